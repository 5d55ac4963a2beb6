package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/server"
	"github.com/harmonia-app/harmonia/internal/tasks"
)

// SyncRun pushes a local playlist to the owner's linked platforms.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	playlistID := cmd.String("playlist")
	userID := cmd.String("user")

	platforms := make([]models.Platform, 0)
	for _, raw := range cmd.StringSlice("platforms") {
		platform, err := models.ParsePlatform(raw)
		if err != nil {
			return err
		}
		platforms = append(platforms, platform)
	}

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	r.logger.Info("starting sync", "playlist", playlistID, "user", userID)
	r.writePlain("Syncing playlist %s...\n\n", playlistID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadPlaylist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ResolveAccount, tasks.EnsureMirror:
				r.writePlain("\n🔗 %s\n", update.Message)
			case tasks.MatchTracks:
				if update.Step == 0 {
					r.writePlain("🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.AppendTracks:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.Finalize:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	outcome, err := r.engine(db).SyncPlaylist(ctx, progressCh, playlistID, userID, platforms)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(outcome, cmd.Bool("pretty"))
	}

	r.writePlain("\n═══════════════════════════════════════\n")
	r.writePlain("%s\n", outcome.Message)
	r.writePlain("═══════════════════════════════════════\n")

	for _, result := range outcome.Results {
		if result.Error != nil {
			r.writePlain("✗ %s: %v\n", result.Platform, result.Error)
			continue
		}
		r.writePlain("✓ %s: %d appended (remote %s)\n", result.Platform, len(result.Appended), result.RemoteID)
		if len(result.Omitted) > 0 {
			r.writePlain("  %d tracks could not be matched:\n", len(result.Omitted))
			for _, trackID := range result.Omitted {
				r.writePlain("  - %s\n", trackID)
			}
		}
	}

	return nil
}

// Serve starts the HTTP sync API.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(&server.HealthHandler{})
	router.Handler(server.NewSyncHandler(r.engine(db), r.logger))

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.logger.Info("starting server", "addr", addr)

	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
