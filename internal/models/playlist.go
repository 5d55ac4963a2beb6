package models

import (
	"fmt"
	"time"
)

// Playlist is a user-owned named ordered collection of tracks.
//
// The mirror id for a platform identifies the playlist copy on that platform.
// It is set at most once per platform and afterwards treated as stable: remote
// playlists are never recreated, only appended to.
type Playlist struct {
	id          string
	sequence    int
	ownerID     string
	name        string
	description string
	public      bool
	mirrorIDs   map[Platform]string
	syncEnabled bool
	lastSynced  *time.Time
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewPlaylist creates a Playlist owned by ownerID.
func NewPlaylist(sequence int, ownerID, name string) *Playlist {
	now := time.Now()
	return &Playlist{
		sequence:  sequence,
		ownerID:   ownerID,
		name:      name,
		mirrorIDs: map[Platform]string{},
		createdAt: now,
		updatedAt: now,
	}
}

func (p *Playlist) ID() string             { return p.id }
func (p *Playlist) Sequence() int          { return p.sequence }
func (p *Playlist) OwnerID() string        { return p.ownerID }
func (p *Playlist) Name() string           { return p.name }
func (p *Playlist) Description() string    { return p.description }
func (p *Playlist) Public() bool           { return p.public }
func (p *Playlist) SyncEnabled() bool      { return p.syncEnabled }
func (p *Playlist) LastSynced() *time.Time { return p.lastSynced }
func (p *Playlist) CreatedAt() time.Time   { return p.createdAt }
func (p *Playlist) UpdatedAt() time.Time   { return p.updatedAt }
func (p *Playlist) DeletedAt() *time.Time  { return p.deletedAt }

func (p *Playlist) SetID(id string)              { p.id = id }
func (p *Playlist) SetName(name string)          { p.name = name }
func (p *Playlist) SetDescription(d string)      { p.description = d }
func (p *Playlist) SetPublic(public bool)        { p.public = public }
func (p *Playlist) SetCreatedAt(ts time.Time)    { p.createdAt = ts }
func (p *Playlist) SetUpdatedAt(ts time.Time)    { p.updatedAt = ts }
func (p *Playlist) SetDeletedAt(ts *time.Time)   { p.deletedAt = ts }
func (p *Playlist) SetSyncEnabled(enabled bool)  { p.syncEnabled = enabled }
func (p *Playlist) SetLastSynced(ts *time.Time)  { p.lastSynced = ts }

// MirrorID returns the remote playlist id on the given platform, if set.
func (p *Playlist) MirrorID(platform Platform) (string, bool) {
	id, ok := p.mirrorIDs[platform]
	return id, ok && id != ""
}

// SetMirrorID records the remote playlist id for a platform.
//
// The mirror id is set at most once; a second write is ignored and false is
// returned so callers can detect the lost race.
func (p *Playlist) SetMirrorID(platform Platform, remoteID string) bool {
	if existing, ok := p.mirrorIDs[platform]; ok && existing != "" {
		return false
	}
	p.mirrorIDs[platform] = remoteID
	return true
}

// MarkSynced stamps the playlist as having completed at least one platform sync.
func (p *Playlist) MarkSynced(at time.Time) {
	p.syncEnabled = true
	p.lastSynced = &at
}

// Validate checks the playlist's required fields.
func (p *Playlist) Validate() error {
	if p.ownerID == "" {
		return fmt.Errorf("playlist owner is required")
	}
	if p.name == "" {
		return fmt.Errorf("playlist name is required")
	}
	for platform := range p.mirrorIDs {
		if !platform.Valid() {
			return fmt.Errorf("invalid platform %q on playlist", platform)
		}
	}
	return nil
}
