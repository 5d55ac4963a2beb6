package main

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/repositories"
	"github.com/harmonia-app/harmonia/internal/services"
	"github.com/harmonia-app/harmonia/internal/shared"
	tu "github.com/harmonia-app/harmonia/internal/testing"
)

// testRunner wires a Runner against an in-memory migrated database with its
// output captured in a buffer.
type testRunner struct {
	runner *Runner
	db     *sql.DB
	out    *bytes.Buffer
}

func newTestRunner(t *testing.T, adapters services.Registry) *testRunner {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Adapters: adapters,
		Logger:   shared.NewLogger(io.Discard),
		Output:   out,
		DB:       db,
	})

	return &testRunner{runner: runner, db: db, out: out}
}

// run executes one CLI invocation against the runner's command tree.
func (tr *testRunner) run(t *testing.T, args ...string) error {
	t.Helper()
	root := &cli.Command{Name: "harmonia", Commands: tr.runner.register()}
	return root.Run(context.Background(), append([]string{"harmonia"}, args...))
}

func (tr *testRunner) mustRun(t *testing.T, args ...string) {
	t.Helper()
	if err := tr.run(t, args...); err != nil {
		t.Fatalf("command %v error = %v", args, err)
	}
}

func TestNewRunner_Defaults(t *testing.T) {
	runner := NewRunner(RunnerOpts{})

	if runner.config == nil {
		t.Error("config not defaulted")
	}
	if runner.logger == nil {
		t.Error("logger not defaulted")
	}
	if runner.output == nil {
		t.Error("output not defaulted")
	}
	if runner.httpClient == nil {
		t.Error("http client not defaulted")
	}
	if runner.matcher == nil {
		t.Error("matcher not defaulted")
	}
	if runner.adapters == nil {
		t.Error("adapter registry not defaulted")
	}
}

func TestRunner_WriteJSON(t *testing.T) {
	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: out, Logger: shared.NewLogger(io.Discard)})

	if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
		t.Fatalf("writeJSON() error = %v", err)
	}
	if got := out.String(); got != "{\"key\":\"value\"}\n" {
		t.Errorf("output = %q", got)
	}

	failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Logger: shared.NewLogger(io.Discard)})
	if err := failing.writeJSON(map[string]string{"key": "value"}, false); err == nil {
		t.Error("writeJSON() with failing writer returned nil error")
	}
}

func TestSetupDatabase(t *testing.T) {
	tr := newTestRunner(t, nil)
	configPath := filepath.Join(t.TempDir(), "config.toml")

	tr.mustRun(t, "setup", "database", "--config", configPath)

	tu.AssertFileExists(t, configPath)

	// Migrations ran against the injected connection.
	var count int
	if err := tr.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if count == 0 {
		t.Error("no migrations applied")
	}
}

func TestAccountCommands(t *testing.T) {
	tr := newTestRunner(t, nil)

	tr.mustRun(t, "account", "link",
		"--user", "alice",
		"--platform", "spotify",
		"--access-token", "token-1",
		"--display-name", "Alice")

	if !strings.Contains(tr.out.String(), "Linked spotify account for user alice") {
		t.Errorf("link output = %q", tr.out.String())
	}

	repo := repositories.NewAccountRepository(tr.db)
	account, err := repo.GetActive("alice", models.PlatformSpotify)
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if account.AccessToken() != "token-1" {
		t.Errorf("stored token = %q", account.AccessToken())
	}

	tr.out.Reset()
	tr.mustRun(t, "account", "list", "--user", "alice")
	if !strings.Contains(tr.out.String(), "spotify") || !strings.Contains(tr.out.String(), "active") {
		t.Errorf("list output = %q", tr.out.String())
	}

	tr.mustRun(t, "account", "unlink", "--user", "alice", "--platform", "spotify")
	if _, err := repo.GetActive("alice", models.PlatformSpotify); err == nil {
		t.Error("account still active after unlink")
	}
}

func TestAccountLink_UnknownPlatform(t *testing.T) {
	tr := newTestRunner(t, nil)

	err := tr.run(t, "account", "link",
		"--user", "alice",
		"--platform", "myspace",
		"--access-token", "token")
	if err == nil {
		t.Error("link with unknown platform returned nil error")
	}
}

func TestTrackAndPlaylistCommands(t *testing.T) {
	tr := newTestRunner(t, nil)

	tr.mustRun(t, "track", "add",
		"--title", "Chicago",
		"--artist", "Sufjan Stevens",
		"--album", "Illinois",
		"--spotify-id", "sp-1")

	trackRepo := repositories.NewTrackRepository(tr.db)
	tracks, err := trackRepo.List(map[string]any{"artist": "Sufjan Stevens"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("List() = %d tracks, want 1", len(tracks))
	}
	track := tracks[0]
	if id, ok := track.ExternalID(models.PlatformSpotify); !ok || id != "sp-1" {
		t.Errorf("spotify id = %q, %v", id, ok)
	}

	tr.mustRun(t, "playlist", "create", "--user", "alice", "--name", "Road Trip")

	playlistRepo := repositories.NewPlaylistRepository(tr.db)
	playlists, err := playlistRepo.List(map[string]any{"owner_id": "alice"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(playlists) != 1 {
		t.Fatalf("List() = %d playlists, want 1", len(playlists))
	}
	playlist := playlists[0]

	tr.mustRun(t, "playlist", "add-track", "--id", playlist.ID(), "--track", track.ID())

	tr.out.Reset()
	tr.mustRun(t, "playlist", "show", "--id", playlist.ID())
	if !strings.Contains(tr.out.String(), "Sufjan Stevens - Chicago") {
		t.Errorf("show output = %q", tr.out.String())
	}

	tr.mustRun(t, "playlist", "remove-track", "--id", playlist.ID(), "--track", track.ID())
	entries, err := playlistRepo.Entries(playlist.ID())
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries after removal = %d, want 0", len(entries))
	}
}

func TestSyncRunCommand(t *testing.T) {
	adapter := &tu.MockAdapter{PlatformValue: models.PlatformSpotify}
	tr := newTestRunner(t, services.NewRegistry(adapter))

	tr.mustRun(t, "account", "link",
		"--user", "alice",
		"--platform", "spotify",
		"--access-token", "token")
	tr.mustRun(t, "track", "add",
		"--title", "Chicago",
		"--artist", "Sufjan Stevens",
		"--spotify-id", "sp-1")
	tr.mustRun(t, "playlist", "create", "--user", "alice", "--name", "Road Trip")

	trackRepo := repositories.NewTrackRepository(tr.db)
	tracks, err := trackRepo.List(map[string]any{"artist": "Sufjan Stevens"})
	if err != nil || len(tracks) != 1 {
		t.Fatalf("List() = %v tracks, error = %v", len(tracks), err)
	}
	playlistRepo := repositories.NewPlaylistRepository(tr.db)
	playlists, err := playlistRepo.List(map[string]any{"owner_id": "alice"})
	if err != nil || len(playlists) != 1 {
		t.Fatalf("List() = %v playlists, error = %v", len(playlists), err)
	}
	playlist := playlists[0]

	tr.mustRun(t, "playlist", "add-track", "--id", playlist.ID(), "--track", tracks[0].ID())

	tr.out.Reset()
	tr.mustRun(t, "sync", "run",
		"--user", "alice",
		"--playlist", playlist.ID(),
		"--platforms", "spotify")

	if !strings.Contains(tr.out.String(), "Synced to 1 of 1 platform(s)") {
		t.Errorf("sync output = %q", tr.out.String())
	}

	if len(adapter.Appended) != 1 || len(adapter.Appended[0]) != 1 || adapter.Appended[0][0] != "sp-1" {
		t.Errorf("adapter.Appended = %v", adapter.Appended)
	}

	synced, err := playlistRepo.Get(playlist.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !synced.SyncEnabled() || synced.LastSynced() == nil {
		t.Error("playlist not marked synced")
	}
	if id, ok := synced.MirrorID(models.PlatformSpotify); !ok || id == "" {
		t.Errorf("mirror id = %q, %v", id, ok)
	}
}

func TestSyncRun_MissingPlaylist(t *testing.T) {
	adapter := &tu.MockAdapter{PlatformValue: models.PlatformSpotify}
	tr := newTestRunner(t, services.NewRegistry(adapter))

	err := tr.run(t, "sync", "run", "--user", "alice", "--playlist", "nope")
	if err == nil {
		t.Error("sync of a missing playlist returned nil error")
	}
}
