package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/repositories"
)

// PlaylistCreate creates a local playlist for a user.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	playlist := models.NewPlaylist(0, cmd.String("user"), cmd.String("name"))
	playlist.SetDescription(cmd.String("description"))
	playlist.SetPublic(cmd.Bool("public"))

	repo := repositories.NewPlaylistRepository(db)
	if err := repo.Create(playlist); err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	r.logger.Info("playlist created", "id", playlist.ID(), "name", playlist.Name())
	r.writePlain("✓ Created playlist %q (id: %s)\n", playlist.Name(), playlist.ID())
	return nil
}

// PlaylistList prints a user's playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	criteria := map[string]any{}
	if user := cmd.String("user"); user != "" {
		criteria["owner_id"] = user
	}

	repo := repositories.NewPlaylistRepository(db)
	playlists, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(playlists))
		for _, playlist := range playlists {
			rows = append(rows, playlistRow(playlist))
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists.\n")
	}

	for _, playlist := range playlists {
		synced := "never synced"
		if ts := playlist.LastSynced(); ts != nil {
			synced = "synced " + ts.Format(time.RFC3339)
		}
		r.writePlain("%s  %-24s %s\n", playlist.ID(), playlist.Name(), synced)
	}
	return nil
}

// PlaylistShow prints one playlist with its ordered tracks.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	playlistRepo := repositories.NewPlaylistRepository(db)
	trackRepo := repositories.NewTrackRepository(db)

	playlist, err := playlistRepo.Get(cmd.String("id"))
	if err != nil {
		return err
	}

	entries, err := playlistRepo.Entries(playlist.ID())
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	if cmd.Bool("json") {
		row := playlistRow(playlist)
		tracks := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			track, err := trackRepo.Get(entry.TrackID)
			if err != nil {
				return err
			}
			tracks = append(tracks, map[string]any{
				"position": entry.Position,
				"id":       track.ID(),
				"title":    track.Title(),
				"artist":   track.Artist(),
			})
		}
		row["tracks"] = tracks
		return r.writeJSON(row, cmd.Bool("pretty"))
	}

	r.writePlain("%s  %s (%d tracks)\n", playlist.ID(), playlist.Name(), len(entries))
	for _, entry := range entries {
		track, err := trackRepo.Get(entry.TrackID)
		if err != nil {
			return err
		}
		r.writePlain("%3d. %s - %s\n", entry.Position, track.Artist(), track.Title())
	}
	return nil
}

// PlaylistAddTrack appends a catalog track to a playlist.
func (r *Runner) PlaylistAddTrack(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	entry := &models.PlaylistEntry{
		PlaylistID: cmd.String("id"),
		TrackID:    cmd.String("track"),
		Position:   int(cmd.Int("position")),
		AddedBy:    cmd.String("user"),
		AddedAt:    time.Now(),
	}

	repo := repositories.NewPlaylistRepository(db)
	if err := repo.AddEntry(entry); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	r.writePlain("✓ Added track %s at position %d\n", entry.TrackID, entry.Position)
	return nil
}

// PlaylistRemoveTrack removes a track from a playlist.
func (r *Runner) PlaylistRemoveTrack(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	repo := repositories.NewPlaylistRepository(db)
	if err := repo.RemoveEntry(cmd.String("id"), cmd.String("track")); err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}

	r.writePlain("✓ Removed track %s\n", cmd.String("track"))
	return nil
}

func playlistRow(playlist *models.Playlist) map[string]any {
	row := map[string]any{
		"id":           playlist.ID(),
		"owner_id":     playlist.OwnerID(),
		"name":         playlist.Name(),
		"description":  playlist.Description(),
		"public":       playlist.Public(),
		"sync_enabled": playlist.SyncEnabled(),
		"last_synced":  playlist.LastSynced(),
	}

	mirrors := map[string]string{}
	for _, platform := range models.Platforms() {
		if id, ok := playlist.MirrorID(platform); ok {
			mirrors[platform.String()] = id
		}
	}
	if len(mirrors) > 0 {
		row["mirror_ids"] = mirrors
	}

	return row
}
