package models

import (
	"fmt"
	"time"
)

// Track is a logical song entity in the catalog.
//
// A track carries at most one external id per platform. An id, once attached,
// is stable: SetExternalID keeps the first writer's value and reports whether
// the write took effect. A track is unresolved on a platform until a sync (or
// catalog seed) attaches an id for it.
type Track struct {
	id           string
	sequence     int
	title        string
	artist       string
	album        string
	genre        string
	durationMS   int
	externalIDs  map[Platform]string
	platformData map[string]any
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewTrack creates a Track with the given sequence, title, and artist.
func NewTrack(sequence int, title, artist string) *Track {
	now := time.Now()
	return &Track{
		sequence:     sequence,
		title:        title,
		artist:       artist,
		externalIDs:  map[Platform]string{},
		platformData: map[string]any{},
		createdAt:    now,
		updatedAt:    now,
	}
}

func (t *Track) ID() string           { return t.id }
func (t *Track) Sequence() int        { return t.sequence }
func (t *Track) Title() string        { return t.title }
func (t *Track) Artist() string       { return t.artist }
func (t *Track) Album() string        { return t.album }
func (t *Track) Genre() string        { return t.genre }
func (t *Track) DurationMS() int      { return t.durationMS }
func (t *Track) CreatedAt() time.Time { return t.createdAt }
func (t *Track) UpdatedAt() time.Time { return t.updatedAt }
func (t *Track) DeletedAt() *time.Time {
	return t.deletedAt
}

func (t *Track) SetID(id string)             { t.id = id }
func (t *Track) SetAlbum(album string)       { t.album = album }
func (t *Track) SetGenre(genre string)       { t.genre = genre }
func (t *Track) SetDurationMS(ms int)        { t.durationMS = ms }
func (t *Track) SetCreatedAt(ts time.Time)   { t.createdAt = ts }
func (t *Track) SetUpdatedAt(ts time.Time)   { t.updatedAt = ts }
func (t *Track) SetDeletedAt(ts *time.Time)  { t.deletedAt = ts }
func (t *Track) SetSequence(sequence int)    { t.sequence = sequence }
func (t *Track) PlatformData() map[string]any {
	return t.platformData
}

func (t *Track) SetPlatformData(data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	t.platformData = data
}

// ExternalID returns the track's external id on the given platform, if attached.
func (t *Track) ExternalID(platform Platform) (string, bool) {
	id, ok := t.externalIDs[platform]
	return id, ok && id != ""
}

// SetExternalID attaches an external id for a platform.
//
// First writer wins: if an id is already attached the existing value is kept
// and false is returned. This keeps identity stable under concurrent resolution.
func (t *Track) SetExternalID(platform Platform, externalID string) bool {
	if existing, ok := t.externalIDs[platform]; ok && existing != "" {
		return false
	}
	t.externalIDs[platform] = externalID
	return true
}

// Validate checks the track's required fields.
func (t *Track) Validate() error {
	if t.title == "" {
		return fmt.Errorf("track title is required")
	}
	if t.artist == "" {
		return fmt.Errorf("track artist is required")
	}
	for platform := range t.externalIDs {
		if !platform.Valid() {
			return fmt.Errorf("invalid platform %q on track", platform)
		}
	}
	return nil
}
