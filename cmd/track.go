package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/repositories"
)

// TrackAdd seeds a catalog track, optionally with known platform ids.
func (r *Runner) TrackAdd(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	track := models.NewTrack(0, cmd.String("title"), cmd.String("artist"))
	track.SetAlbum(cmd.String("album"))
	track.SetGenre(cmd.String("genre"))
	track.SetDurationMS(int(cmd.Int("duration-ms")))

	if id := cmd.String("spotify-id"); id != "" {
		track.SetExternalID(models.PlatformSpotify, id)
	}
	if id := cmd.String("apple-music-id"); id != "" {
		track.SetExternalID(models.PlatformAppleMusic, id)
	}

	repo := repositories.NewTrackRepository(db)
	if err := repo.Create(track); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	r.logger.Info("track added", "id", track.ID(), "title", track.Title())
	r.writePlain("✓ Added %s - %s (id: %s)\n", track.Artist(), track.Title(), track.ID())
	return nil
}

// TrackList prints catalog tracks, optionally filtered by artist or genre.
func (r *Runner) TrackList(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	criteria := map[string]any{}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}
	if genre := cmd.String("genre"); genre != "" {
		criteria["genre"] = genre
	}

	repo := repositories.NewTrackRepository(db)
	tracks, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(tracks))
		for _, track := range tracks {
			rows = append(rows, trackRow(track))
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks.\n")
	}

	for _, track := range tracks {
		r.writePlain("%s  %s - %s\n", track.ID(), track.Artist(), track.Title())
	}
	return nil
}

func trackRow(track *models.Track) map[string]any {
	row := map[string]any{
		"id":          track.ID(),
		"title":       track.Title(),
		"artist":      track.Artist(),
		"album":       track.Album(),
		"genre":       track.Genre(),
		"duration_ms": track.DurationMS(),
	}

	for _, platform := range models.Platforms() {
		if id, ok := track.ExternalID(platform); ok {
			row[platform.String()+"_id"] = id
		}
	}

	return row
}
