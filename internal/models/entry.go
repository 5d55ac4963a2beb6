package models

import (
	"fmt"
	"time"
)

// PlaylistEntry joins a Playlist and a Track with an explicit position.
//
// Positions are a dense 1-based sequence within a playlist; new entries append
// at max(position)+1. A track appears at most once per playlist.
type PlaylistEntry struct {
	ID         string
	PlaylistID string
	TrackID    string
	Position   int
	AddedBy    string
	AddedAt    time.Time
}

// Validate checks the entry's required fields and position invariant.
func (e *PlaylistEntry) Validate() error {
	if e.PlaylistID == "" {
		return fmt.Errorf("entry playlist id is required")
	}
	if e.TrackID == "" {
		return fmt.Errorf("entry track id is required")
	}
	if e.Position < 1 {
		return fmt.Errorf("entry position must be >= 1, got %d", e.Position)
	}
	return nil
}
