package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/services"
	"github.com/harmonia-app/harmonia/internal/shared"
)

// PlaylistStore is the subset of playlist persistence the engine depends on.
type PlaylistStore interface {
	GetOwned(id, ownerID string) (*models.Playlist, error)
	Entries(playlistID string) ([]*models.PlaylistEntry, error)
	SetMirrorID(playlistID string, platform models.Platform, remoteID string) (string, error)
	MarkSynced(playlistID string, at time.Time) error
}

// TrackCatalog is the subset of track persistence the engine depends on.
type TrackCatalog interface {
	Get(id string) (*models.Track, error)
	AttachExternalID(trackID string, platform models.Platform, externalID string) error
}

// AccountStore resolves the active linked account for a (user, platform) pair.
type AccountStore interface {
	GetActive(userID string, platform models.Platform) (*models.PlatformAccount, error)
}

// PlatformResult records the outcome of syncing one platform.
type PlatformResult struct {
	Platform models.Platform
	RemoteID string   // Remote mirror playlist id
	Appended []string // External ids appended this run, in playlist order
	Omitted  []string // Local track ids that could not be matched
	Error    error    // Platform-local failure (nil on success)
}

// SyncOutcome summarizes a full sync run across all requested platforms.
//
// A run succeeds when at least one platform synced; per-platform failures are
// reported in Errors without failing the run.
type SyncOutcome struct {
	PlaylistID      string                       `json:"playlist_id"`
	Success         bool                         `json:"success"`
	Message         string                       `json:"message"`
	SyncedPlatforms []models.Platform            `json:"synced_platforms"`
	Errors          map[models.Platform]string   `json:"errors,omitempty"`
	Omitted         map[models.Platform][]string `json:"omitted,omitempty"`
	Results         []PlatformResult             `json:"-"`
}

// SyncEngine defines operations for pushing local playlists to linked platforms.
type SyncEngine interface {
	// SyncPlaylist syncs one playlist to the given platforms on behalf of its
	// owner. An empty platform list means every platform with a registered
	// adapter. Returns an error only when the run cannot start (playlist
	// missing or not owned by ownerID); platform failures land in the outcome.
	SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlistID, ownerID string, platforms []models.Platform) (*SyncOutcome, error)
}

// PlaylistSyncEngine implements SyncEngine on top of the persistence layer and
// the platform adapter registry.
//
// Concurrent syncs of the same playlist are serialized with a per-playlist
// lock; syncs of different playlists run independently.
type PlaylistSyncEngine struct {
	playlists   PlaylistStore
	tracks      TrackCatalog
	accounts    AccountStore
	adapters    services.Registry
	matcher     services.Matcher
	callTimeout time.Duration
	logger      *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPlaylistSyncEngine creates a sync engine. A nil matcher selects
// [services.FirstMatch]; callTimeout <= 0 selects 30 seconds.
func NewPlaylistSyncEngine(playlists PlaylistStore, tracks TrackCatalog, accounts AccountStore, adapters services.Registry, matcher services.Matcher, callTimeout time.Duration, logger *log.Logger) *PlaylistSyncEngine {
	if matcher == nil {
		matcher = services.FirstMatch{}
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	return &PlaylistSyncEngine{
		playlists:   playlists,
		tracks:      tracks,
		accounts:    accounts,
		adapters:    adapters,
		matcher:     matcher,
		callTimeout: callTimeout,
		logger:      logger,
		locks:       map[string]*sync.Mutex{},
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistSyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// lockPlaylist serializes sync runs per playlist id and returns the unlock.
func (e *PlaylistSyncEngine) lockPlaylist(id string) func() {
	e.mu.Lock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// callCtx bounds a single adapter call so one stuck platform cannot stall the run.
func (e *PlaylistSyncEngine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.callTimeout)
}

// SyncPlaylist implements SyncEngine.
func (e *PlaylistSyncEngine) SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlistID, ownerID string, platforms []models.Platform) (*SyncOutcome, error) {
	if e.playlists == nil || e.tracks == nil || e.accounts == nil {
		return nil, fmt.Errorf("%w: sync engine not fully initialized", shared.ErrServiceUnavailable)
	}

	unlock := e.lockPlaylist(playlistID)
	defer unlock()

	e.sendProgress(progress, loadPlaylistUpdate(playlistID))

	playlist, err := e.playlists.GetOwned(playlistID, ownerID)
	if err != nil {
		return nil, err
	}

	entries, err := e.playlists.Entries(playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist entries: %w", err)
	}

	ordered := make([]*models.Track, 0, len(entries))
	for _, entry := range entries {
		track, err := e.tracks.Get(entry.TrackID)
		if err != nil {
			return nil, fmt.Errorf("failed to load track %s: %w", entry.TrackID, err)
		}
		ordered = append(ordered, track)
	}

	e.sendProgress(progress, loadedPlaylistUpdate(playlist, len(ordered)))

	if len(platforms) == 0 {
		for _, platform := range models.Platforms() {
			if _, ok := e.adapters[platform]; ok {
				platforms = append(platforms, platform)
			}
		}
	}

	outcome := &SyncOutcome{PlaylistID: playlistID}
	total := len(platforms)

	for i, platform := range platforms {
		step := i + 1

		result := e.syncPlatform(ctx, progress, playlist, ordered, platform, step, total)
		outcome.Results = append(outcome.Results, result)

		if result.Error != nil {
			e.logger.Warn("platform sync failed", "playlist", playlistID, "platform", platform, "err", result.Error)
			if outcome.Errors == nil {
				outcome.Errors = map[models.Platform]string{}
			}
			outcome.Errors[platform] = result.Error.Error()
			e.sendProgress(progress, platformFailedUpdate(step, total, string(platform), result.Error))
			continue
		}

		outcome.SyncedPlatforms = append(outcome.SyncedPlatforms, platform)
		if len(result.Omitted) > 0 {
			if outcome.Omitted == nil {
				outcome.Omitted = map[models.Platform][]string{}
			}
			outcome.Omitted[platform] = result.Omitted
		}
		e.sendProgress(progress, platformDoneUpdate(step, total, string(platform)))
	}

	outcome.Success = len(outcome.SyncedPlatforms) > 0
	if outcome.Success {
		if err := e.playlists.MarkSynced(playlistID, time.Now()); err != nil {
			e.logger.Error("failed to mark playlist synced", "playlist", playlistID, "err", err)
		}
		outcome.Message = fmt.Sprintf("Synced to %d of %d platform(s)", len(outcome.SyncedPlatforms), total)
	} else {
		outcome.Message = "Sync failed on all platforms"
	}

	return outcome, nil
}

// syncPlatform pushes one playlist to one platform. All failures are returned
// in the result and scoped to this platform.
func (e *PlaylistSyncEngine) syncPlatform(ctx context.Context, progress chan<- ProgressUpdate, playlist *models.Playlist, ordered []*models.Track, platform models.Platform, step, total int) PlatformResult {
	result := PlatformResult{Platform: platform}

	adapter, err := e.adapters.Lookup(platform)
	if err != nil {
		result.Error = err
		return result
	}

	e.sendProgress(progress, resolveAccountUpdate(step, total, platform))

	account, err := e.accounts.GetActive(playlist.OwnerID(), platform)
	if err != nil {
		if errors.Is(err, shared.ErrAccountNotFound) {
			result.Error = fmt.Errorf("%w: no active %s account for user %s", shared.ErrNoLinkedAccount, platform, playlist.OwnerID())
		} else {
			result.Error = err
		}
		return result
	}

	e.sendProgress(progress, ensureMirrorUpdate(step, total, adapter.Name()))

	remoteID, err := e.ensureMirror(ctx, adapter, account, playlist, platform)
	if err != nil {
		result.Error = err
		return result
	}
	result.RemoteID = remoteID

	e.sendProgress(progress, matchTrackUpdate(0, len(ordered), nil, adapter.Name()))

	resolved := make([]string, 0, len(ordered))
	for i, track := range ordered {
		e.sendProgress(progress, matchTrackUpdate(i+1, len(ordered), track, adapter.Name()))

		externalID, err := e.resolveTrack(ctx, adapter, account, track, platform)
		if err != nil {
			if errors.Is(err, shared.ErrTrackNotFound) {
				e.logger.Debug("track unmatched", "track", track.ID(), "platform", platform)
				result.Omitted = append(result.Omitted, track.ID())
				continue
			}
			result.Error = fmt.Errorf("failed to resolve track %s: %w", track.ID(), err)
			return result
		}
		resolved = append(resolved, externalID)
	}

	missing := e.missingOnRemote(ctx, adapter, account, remoteID, resolved)

	if len(missing) > 0 {
		e.sendProgress(progress, appendTracksUpdate(len(missing), adapter.Name()))

		callCtx, cancel := e.callCtx(ctx)
		err = adapter.AppendTracks(callCtx, account, remoteID, missing)
		cancel()
		if err != nil {
			result.Error = fmt.Errorf("failed to append tracks: %w", err)
			return result
		}
	}

	result.Appended = missing
	return result
}

// ensureMirror resolves the remote playlist id and persists it on first
// creation. When two runs race, the stored id wins and any extra remote
// playlist created by the loser is abandoned rather than appended to.
func (e *PlaylistSyncEngine) ensureMirror(ctx context.Context, adapter services.Adapter, account *models.PlatformAccount, playlist *models.Playlist, platform models.Platform) (string, error) {
	callCtx, cancel := e.callCtx(ctx)
	remoteID, err := adapter.EnsurePlaylist(callCtx, account, playlist)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to ensure remote playlist: %w", err)
	}

	stored, err := e.playlists.SetMirrorID(playlist.ID(), platform, remoteID)
	if err != nil {
		return "", fmt.Errorf("failed to persist remote playlist id: %w", err)
	}
	if stored != remoteID {
		e.logger.Warn("remote playlist already recorded, using stored id",
			"playlist", playlist.ID(), "platform", platform, "stored", stored, "created", remoteID)
	}

	playlist.SetMirrorID(platform, stored)
	return stored, nil
}

// resolveTrack maps a local track to its platform external id: the stored id
// when present, otherwise a catalog match persisted for future runs. The
// persisted value is re-read after attach so concurrent resolvers converge on
// one id per track.
func (e *PlaylistSyncEngine) resolveTrack(ctx context.Context, adapter services.Adapter, account *models.PlatformAccount, track *models.Track, platform models.Platform) (string, error) {
	if id, ok := track.ExternalID(platform); ok {
		return id, nil
	}

	callCtx, cancel := e.callCtx(ctx)
	matched, err := e.matcher.Match(callCtx, adapter, account, track)
	cancel()
	if err != nil {
		return "", err
	}

	if err := e.tracks.AttachExternalID(track.ID(), platform, matched); err != nil {
		return "", fmt.Errorf("failed to store external id: %w", err)
	}

	fresh, err := e.tracks.Get(track.ID())
	if err == nil {
		if id, ok := fresh.ExternalID(platform); ok {
			track.SetExternalID(platform, id)
			return id, nil
		}
	}

	track.SetExternalID(platform, matched)
	return matched, nil
}

// missingOnRemote filters resolved ids down to those not already on the remote
// playlist, preserving order and dropping duplicates within the run. When the
// remote listing fails the full list is returned: re-appending is preferable
// to silently skipping tracks.
func (e *PlaylistSyncEngine) missingOnRemote(ctx context.Context, adapter services.Adapter, account *models.PlatformAccount, remoteID string, resolved []string) []string {
	existing := map[string]bool{}

	callCtx, cancel := e.callCtx(ctx)
	remote, err := adapter.PlaylistTrackIDs(callCtx, account, remoteID)
	cancel()
	if err != nil {
		e.logger.Warn("failed to list remote playlist tracks, appending without dedup", "remote", remoteID, "err", err)
	} else {
		for _, id := range remote {
			existing[id] = true
		}
	}

	missing := make([]string, 0, len(resolved))
	for _, id := range resolved {
		if existing[id] {
			continue
		}
		existing[id] = true
		missing = append(missing, id)
	}

	return missing
}
