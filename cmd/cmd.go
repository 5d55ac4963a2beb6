// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// accountCommand manages linked platform accounts.
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"acct"},
		Usage:   "Manage linked platform accounts",
		Commands: []*cli.Command{
			{
				Name:  "link",
				Usage: "Link a platform account with its tokens",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "user",
						Usage:    "Local user id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "platform",
						Usage:    "Platform (spotify or apple_music)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "access-token",
						Usage:    "Platform access token (Music-User-Token for Apple Music)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "refresh-token",
						Usage: "Platform refresh token",
					},
					&cli.IntFlag{
						Name:  "expires-in",
						Usage: "Token lifetime in seconds",
					},
					&cli.StringFlag{
						Name:  "external-id",
						Usage: "Platform user id",
					},
					&cli.StringFlag{
						Name:  "display-name",
						Usage: "Platform profile display name",
					},
				},
				Action: r.AccountLink,
			},
			{
				Name:  "list",
				Usage: "List linked accounts",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "user",
						Usage: "Filter by local user id",
					},
					&cli.BoolFlag{
						Name:  "active",
						Usage: "Only active accounts",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.AccountList,
			},
			{
				Name:  "unlink",
				Usage: "Deactivate a linked account",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "id",
						Usage: "Account id to unlink",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "Local user id (with --platform)",
					},
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Platform of the active account to unlink",
					},
				},
				Action: r.AccountUnlink,
			},
		},
	}
}

// playlistCommand curates local playlists.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage local playlists",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "user",
						Usage:    "Owner user id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Create remote mirrors as public",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "user",
						Usage: "Filter by owner user id",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "show",
				Usage: "Show a playlist with its tracks",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist id",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistShow,
			},
			{
				Name:  "add-track",
				Usage: "Append a catalog track to a playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "track",
						Usage:    "Track id",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "position",
						Usage: "1-based position (default: append)",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User id recorded as adder",
					},
				},
				Action: r.PlaylistAddTrack,
			},
			{
				Name:  "remove-track",
				Usage: "Remove a track from a playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "track",
						Usage:    "Track id",
						Required: true,
					},
				},
				Action: r.PlaylistRemoveTrack,
			},
		},
	}
}

// trackCommand seeds and inspects the track catalog.
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Manage the track catalog",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a track to the catalog",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Track title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "artist",
						Usage:    "Track artist",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Album name",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Genre",
					},
					&cli.IntFlag{
						Name:  "duration-ms",
						Usage: "Duration in milliseconds",
					},
					&cli.StringFlag{
						Name:  "spotify-id",
						Usage: "Known Spotify track id",
					},
					&cli.StringFlag{
						Name:  "apple-music-id",
						Usage: "Known Apple Music catalog id",
					},
				},
				Action: r.TrackAdd,
			},
			{
				Name:  "list",
				Usage: "List catalog tracks",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Filter by artist",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Filter by genre",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.TrackList,
			},
		},
	}
}

// syncCommand runs playlist sync operations.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync playlists to linked platforms",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Sync one playlist to its owner's linked platforms",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "user",
						Usage:    "Owner user id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "playlist",
						Usage:    "Playlist id",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "platforms",
						Usage: "Platforms to sync (default: all with registered adapters)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output outcome as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SyncRun,
			},
		},
	}
}

// serveCommand starts the HTTP sync API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP sync API",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}
