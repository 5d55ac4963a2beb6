package main

import (
	"context"
	"errors"
	"os"

	"github.com/harmonia-app/harmonia/internal/services"
	"github.com/harmonia-app/harmonia/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	adapters := services.Registry{}

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if adapter, err := services.NewSpotifyAdapter(config.Credentials.Spotify, nil, config.Sync.RateLimit); err == nil {
			adapters[adapter.Platform()] = adapter
		} else {
			logger.Warn("spotify adapter unavailable", "error", err)
		}
	}

	if config.Credentials.AppleMusic.TeamID != "" {
		if adapter, err := services.NewAppleMusicAdapter(config.Credentials.AppleMusic, nil, config.Sync.RateLimit); err == nil {
			adapters[adapter.Platform()] = adapter
		} else {
			logger.Warn("apple music adapter unavailable", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Adapters: adapters,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "harmonia",
		Usage:    "Sync playlists across Spotify & Apple Music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
