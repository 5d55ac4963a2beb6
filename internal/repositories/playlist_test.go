package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
)

func mustCreatePlaylist(t *testing.T, repo *PlaylistRepository, owner, name string) *models.Playlist {
	t.Helper()
	playlist := models.NewPlaylist(0, owner, name)
	if err := repo.Create(playlist); err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return playlist
}

func mustCreateTrack(t *testing.T, db *sql.DB, title string) *models.Track {
	t.Helper()
	repo := NewTrackRepository(db)
	track := models.NewTrack(0, title, "Test Artist")
	if err := repo.Create(track); err != nil {
		t.Fatalf("Create track %s error = %v", title, err)
	}
	return track
}

func TestPlaylistRepository_GetOwned(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)

	playlist := mustCreatePlaylist(t, repo, "alice", "Morning Mix")

	got, err := repo.GetOwned(playlist.ID(), "alice")
	if err != nil {
		t.Fatalf("GetOwned() error = %v", err)
	}
	if got.Name() != "Morning Mix" {
		t.Errorf("GetOwned() name = %q", got.Name())
	}

	// Not-owned and absent are the same error: no existence oracle.
	if _, err := repo.GetOwned(playlist.ID(), "mallory"); !errors.Is(err, shared.ErrPlaylistNotFound) {
		t.Errorf("GetOwned(wrong owner) error = %v, want ErrPlaylistNotFound", err)
	}
	if _, err := repo.GetOwned("missing", "alice"); !errors.Is(err, shared.ErrPlaylistNotFound) {
		t.Errorf("GetOwned(missing) error = %v, want ErrPlaylistNotFound", err)
	}
}

func TestPlaylistRepository_Entries(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)

	playlist := mustCreatePlaylist(t, repo, "alice", "Ordered")
	track1 := mustCreateTrack(t, db, "First")
	track2 := mustCreateTrack(t, db, "Second")
	track3 := mustCreateTrack(t, db, "Third")

	for _, trackID := range []string{track1.ID(), track2.ID(), track3.ID()} {
		entry := &models.PlaylistEntry{PlaylistID: playlist.ID(), TrackID: trackID, AddedBy: "alice"}
		if err := repo.AddEntry(entry); err != nil {
			t.Fatalf("AddEntry() error = %v", err)
		}
	}

	entries, err := repo.Entries(playlist.ID())
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Entries() = %d, want 3", len(entries))
	}
	for i, entry := range entries {
		if entry.Position != i+1 {
			t.Errorf("entry %d position = %d, want %d", i, entry.Position, i+1)
		}
	}
	if entries[0].TrackID != track1.ID() || entries[2].TrackID != track3.ID() {
		t.Error("entries not in insertion order")
	}
}

func TestPlaylistRepository_AddEntry_Duplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)

	playlist := mustCreatePlaylist(t, repo, "alice", "Dups")
	track := mustCreateTrack(t, db, "Only Once")

	first := &models.PlaylistEntry{PlaylistID: playlist.ID(), TrackID: track.ID()}
	if err := repo.AddEntry(first); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}

	second := &models.PlaylistEntry{PlaylistID: playlist.ID(), TrackID: track.ID()}
	if err := repo.AddEntry(second); !errors.Is(err, shared.ErrDuplicateEntry) {
		t.Errorf("duplicate AddEntry() error = %v, want ErrDuplicateEntry", err)
	}
}

func TestPlaylistRepository_RemoveEntry(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)

	playlist := mustCreatePlaylist(t, repo, "alice", "Shrinking")
	track := mustCreateTrack(t, db, "Removable")

	entry := &models.PlaylistEntry{PlaylistID: playlist.ID(), TrackID: track.ID()}
	if err := repo.AddEntry(entry); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}

	if err := repo.RemoveEntry(playlist.ID(), track.ID()); err != nil {
		t.Fatalf("RemoveEntry() error = %v", err)
	}
	if err := repo.RemoveEntry(playlist.ID(), track.ID()); err == nil {
		t.Error("second RemoveEntry() succeeded, want error")
	}
}

func TestPlaylistRepository_SetMirrorID(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)

	playlist := mustCreatePlaylist(t, repo, "alice", "Mirrored")

	stored, err := repo.SetMirrorID(playlist.ID(), models.PlatformSpotify, "remote-1")
	if err != nil {
		t.Fatalf("SetMirrorID() error = %v", err)
	}
	if stored != "remote-1" {
		t.Errorf("stored = %q, want remote-1", stored)
	}

	// Losing writer gets the first writer's value.
	stored, err = repo.SetMirrorID(playlist.ID(), models.PlatformSpotify, "remote-2")
	if err != nil {
		t.Fatalf("second SetMirrorID() error = %v", err)
	}
	if stored != "remote-1" {
		t.Errorf("stored after race = %q, want remote-1", stored)
	}

	// Platforms do not interfere.
	stored, err = repo.SetMirrorID(playlist.ID(), models.PlatformAppleMusic, "am-remote")
	if err != nil {
		t.Fatalf("SetMirrorID(apple) error = %v", err)
	}
	if stored != "am-remote" {
		t.Errorf("apple stored = %q, want am-remote", stored)
	}

	got, err := repo.Get(playlist.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if id, _ := got.MirrorID(models.PlatformSpotify); id != "remote-1" {
		t.Errorf("persisted spotify mirror = %q, want remote-1", id)
	}

	if _, err := repo.SetMirrorID("missing", models.PlatformSpotify, "x"); !errors.Is(err, shared.ErrPlaylistNotFound) {
		t.Errorf("SetMirrorID(missing) error = %v, want ErrPlaylistNotFound", err)
	}
}

func TestPlaylistRepository_MarkSynced(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)

	playlist := mustCreatePlaylist(t, repo, "alice", "Synced")
	at := time.Now()

	if err := repo.MarkSynced(playlist.ID(), at); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}

	got, err := repo.Get(playlist.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.SyncEnabled() {
		t.Error("SyncEnabled = false after MarkSynced")
	}
	if got.LastSynced() == nil {
		t.Error("LastSynced = nil after MarkSynced")
	}

	if err := repo.MarkSynced("missing", at); !errors.Is(err, shared.ErrPlaylistNotFound) {
		t.Errorf("MarkSynced(missing) error = %v, want ErrPlaylistNotFound", err)
	}
}

func TestPlaylistRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)

	playlist := mustCreatePlaylist(t, repo, "alice", "Doomed")
	track := mustCreateTrack(t, db, "Orphaned")
	if err := repo.AddEntry(&models.PlaylistEntry{PlaylistID: playlist.ID(), TrackID: track.ID()}); err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}

	if err := repo.Delete(playlist.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.Get(playlist.ID()); !errors.Is(err, shared.ErrPlaylistNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrPlaylistNotFound", err)
	}

	entries, err := repo.Entries(playlist.ID())
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Entries() after delete = %d, want 0", len(entries))
	}
}

func TestPlaylistRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlaylistRepository(db)

	mine := mustCreatePlaylist(t, repo, "alice", "Mine")
	mustCreatePlaylist(t, repo, "bob", "Theirs")

	playlists, err := repo.List(map[string]any{"owner_id": "alice"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(playlists) != 1 || playlists[0].ID() != mine.ID() {
		t.Errorf("List(owner_id=alice) = %d playlists, want just %s", len(playlists), mine.ID())
	}
}
