package models

import (
	"errors"
	"testing"
	"time"

	"github.com/harmonia-app/harmonia/internal/shared"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Platform
		wantErr bool
	}{
		{"spotify", "spotify", PlatformSpotify, false},
		{"apple music", "apple_music", PlatformAppleMusic, false},
		{"unknown", "myspace", "", true},
		{"empty", "", "", true},
		{"wrong case", "Spotify", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlatform(tt.input)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrUnknownPlatform) {
					t.Errorf("ParsePlatform(%q) error = %v, want ErrUnknownPlatform", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlatform(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePlatform(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPlatforms_StableOrder(t *testing.T) {
	platforms := Platforms()
	if len(platforms) != 2 || platforms[0] != PlatformSpotify || platforms[1] != PlatformAppleMusic {
		t.Errorf("Platforms() = %v", platforms)
	}
}

func TestTrack_SetExternalID(t *testing.T) {
	track := NewTrack(1, "Holland, 1945", "Neutral Milk Hotel")

	if _, ok := track.ExternalID(PlatformSpotify); ok {
		t.Error("new track reports an external id")
	}

	if !track.SetExternalID(PlatformSpotify, "sp-1") {
		t.Error("first SetExternalID returned false")
	}
	if track.SetExternalID(PlatformSpotify, "sp-other") {
		t.Error("second SetExternalID returned true")
	}

	id, ok := track.ExternalID(PlatformSpotify)
	if !ok || id != "sp-1" {
		t.Errorf("ExternalID(spotify) = %q, %v; want sp-1, true", id, ok)
	}

	// Platforms are independent.
	if !track.SetExternalID(PlatformAppleMusic, "am-1") {
		t.Error("SetExternalID on a second platform returned false")
	}
}

func TestTrack_Validate(t *testing.T) {
	tests := []struct {
		name    string
		track   *Track
		wantErr bool
	}{
		{"valid", NewTrack(1, "Title", "Artist"), false},
		{"missing title", NewTrack(1, "", "Artist"), true},
		{"missing artist", NewTrack(1, "Title", ""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.track.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("invalid platform on external id", func(t *testing.T) {
		track := NewTrack(1, "Title", "Artist")
		track.SetExternalID(Platform("myspace"), "x")
		if err := track.Validate(); err == nil {
			t.Error("Validate() with bogus platform returned nil error")
		}
	})
}

func TestPlaylist_SetMirrorID(t *testing.T) {
	playlist := NewPlaylist(1, "alice", "Mix")

	if _, ok := playlist.MirrorID(PlatformSpotify); ok {
		t.Error("new playlist reports a mirror id")
	}

	if !playlist.SetMirrorID(PlatformSpotify, "remote-1") {
		t.Error("first SetMirrorID returned false")
	}
	if playlist.SetMirrorID(PlatformSpotify, "remote-2") {
		t.Error("second SetMirrorID returned true")
	}

	id, ok := playlist.MirrorID(PlatformSpotify)
	if !ok || id != "remote-1" {
		t.Errorf("MirrorID(spotify) = %q, %v; want remote-1, true", id, ok)
	}

	if _, ok := playlist.MirrorID(PlatformAppleMusic); ok {
		t.Error("unset platform reports a mirror id")
	}
}

func TestPlaylist_MarkSynced(t *testing.T) {
	playlist := NewPlaylist(1, "alice", "Mix")
	if playlist.SyncEnabled() {
		t.Error("new playlist is sync enabled")
	}

	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	playlist.MarkSynced(at)

	if !playlist.SyncEnabled() {
		t.Error("MarkSynced did not enable sync")
	}
	if playlist.LastSynced() == nil || !playlist.LastSynced().Equal(at) {
		t.Errorf("LastSynced() = %v, want %v", playlist.LastSynced(), at)
	}
}

func TestPlaylist_Validate(t *testing.T) {
	if err := NewPlaylist(1, "alice", "Mix").Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := NewPlaylist(1, "", "Mix").Validate(); err == nil {
		t.Error("Validate() without owner returned nil error")
	}
	if err := NewPlaylist(1, "alice", "").Validate(); err == nil {
		t.Error("Validate() without name returned nil error")
	}
}

func TestPlaylistEntry_Validate(t *testing.T) {
	entry := PlaylistEntry{PlaylistID: "pl-1", TrackID: "tr-1", Position: 1}
	if err := entry.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	zero := PlaylistEntry{PlaylistID: "pl-1", TrackID: "tr-1", Position: 0}
	if err := zero.Validate(); err == nil {
		t.Error("Validate() with position 0 returned nil error")
	}

	noTrack := PlaylistEntry{PlaylistID: "pl-1", Position: 1}
	if err := noTrack.Validate(); err == nil {
		t.Error("Validate() without track id returned nil error")
	}
}

func TestPlatformAccount_Expired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	account := NewPlatformAccount(1, "alice", PlatformSpotify)
	if account.Expired(now) {
		t.Error("account with no expiry reports expired")
	}

	past := now.Add(-time.Hour)
	account.SetExpiresAt(&past)
	if !account.Expired(now) {
		t.Error("account past its expiry reports valid")
	}

	future := now.Add(time.Hour)
	account.SetExpiresAt(&future)
	if account.Expired(now) {
		t.Error("account before its expiry reports expired")
	}
}

func TestPlatformAccount_Validate(t *testing.T) {
	if err := NewPlatformAccount(1, "alice", PlatformSpotify).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := NewPlatformAccount(1, "", PlatformSpotify).Validate(); err == nil {
		t.Error("Validate() without user returned nil error")
	}
	if err := NewPlatformAccount(1, "alice", Platform("myspace")).Validate(); err == nil {
		t.Error("Validate() with bogus platform returned nil error")
	}
}
