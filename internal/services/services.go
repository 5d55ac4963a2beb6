package services

import (
	"context"
	"fmt"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
)

// Adapter defines the uniform capability contract every platform integration satisfies.
//
// All calls act on behalf of one linked account. Failures (expired auth, rate
// limits, network errors, non-2xx responses) are returned as errors and are
// always platform-local: the sync orchestrator records them and moves on.
type Adapter interface {
	// Name returns the human-readable platform name (e.g., "Spotify").
	Name() string

	// Platform returns the platform this adapter integrates.
	Platform() models.Platform

	// EnsurePlaylist returns the remote playlist id mirroring the given playlist.
	// When the playlist has no mirror id for this platform, a remote playlist is
	// created with the playlist's name, description, and visibility; otherwise
	// the stored id is returned without a remote call. The caller persists the
	// returned id onto the playlist aggregate.
	EnsurePlaylist(ctx context.Context, account *models.PlatformAccount, playlist *models.Playlist) (string, error)

	// AppendTracks appends the given external track ids to the end of the remote
	// playlist. Safe to call with an empty list (no-op, no remote call).
	AppendTracks(ctx context.Context, account *models.PlatformAccount, remoteID string, externalIDs []string) error

	// SearchTracks performs a free-text catalog search scoped to this platform.
	SearchTracks(ctx context.Context, account *models.PlatformAccount, query string, limit int) ([]TrackCandidate, error)

	// PlaylistTrackIDs returns the external ids currently on the remote playlist,
	// in playlist order. Used to avoid re-appending tracks on repeated syncs.
	PlaylistTrackIDs(ctx context.Context, account *models.PlatformAccount, remoteID string) ([]string, error)
}

// TrackCandidate is one catalog search result from a platform.
type TrackCandidate struct {
	ExternalID string
	Title      string
	Artist     string
	Album      string
	DurationMS int
}

// Matcher resolves a local track to a platform catalog item.
//
// Implementations own the search heuristic; the orchestrator only sees the
// resulting external id (or [shared.ErrTrackNotFound]).
type Matcher interface {
	Match(ctx context.Context, adapter Adapter, account *models.PlatformAccount, track *models.Track) (string, error)
}

// FirstMatch is the default naive matching strategy: one free-text query built
// by joining title and artist, taking the first returned candidate.
//
// Best-effort by design. It performs no fuzzy matching or confidence scoring,
// which makes it a known source of sync inaccuracy on catalogs with covers,
// remasters, or region variants.
type FirstMatch struct {
	Limit int // search result page size, defaults to 1
}

// Match implements [Matcher].
func (m FirstMatch) Match(ctx context.Context, adapter Adapter, account *models.PlatformAccount, track *models.Track) (string, error) {
	limit := m.Limit
	if limit <= 0 {
		limit = 1
	}

	query := fmt.Sprintf("%s %s", track.Title(), track.Artist())

	candidates, err := adapter.SearchTracks(ctx, account, query, limit)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no results for %q on %s", shared.ErrTrackNotFound, query, adapter.Name())
	}

	return candidates[0].ExternalID, nil
}

// Registry maps platform names to their adapters.
type Registry map[models.Platform]Adapter

// NewRegistry builds a Registry from the given adapters, keyed by platform.
func NewRegistry(adapters ...Adapter) Registry {
	registry := make(Registry, len(adapters))
	for _, adapter := range adapters {
		registry[adapter.Platform()] = adapter
	}
	return registry
}

// Lookup returns the adapter for a platform, or an error naming the platform.
func (r Registry) Lookup(platform models.Platform) (Adapter, error) {
	adapter, ok := r[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %q", shared.ErrUnknownPlatform, platform)
	}
	return adapter, nil
}
