package tasks

import (
	"fmt"

	"github.com/harmonia-app/harmonia/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced consumers
}

// Operation phase enumeration
type Phase int

const (
	LoadPlaylist Phase = iota
	ResolveAccount
	EnsureMirror
	MatchTracks
	AppendTracks
	Finalize
)

func (p Phase) String() string {
	switch p {
	case LoadPlaylist:
		return "load_playlist"
	case ResolveAccount:
		return "resolve_account"
	case EnsureMirror:
		return "ensure_mirror"
	case MatchTracks:
		return "match_tracks"
	case AppendTracks:
		return "append_tracks"
	case Finalize:
		return "finalize"
	default:
		return ""
	}
}

func loadPlaylistUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading playlist %s...", playlistID),
	}
}

func loadedPlaylistUpdate(playlist *models.Playlist, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded playlist: %s (%d tracks)", playlist.Name(), trackCount),
		Data:    playlist,
	}
}

func resolveAccountUpdate(step, total int, platform models.Platform) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveAccount,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Looking up linked %s account...", platform),
	}
}

func ensureMirrorUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnsureMirror,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Ensuring playlist exists on %s...", name),
	}
}

func matchTrackUpdate(step, total int, track *models.Track, name string) ProgressUpdate {
	if track == nil {
		return ProgressUpdate{
			Phase:   MatchTracks,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("Matching tracks on %s...", name),
		}
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, track.Artist(), track.Title()),
	}
}

func appendTracksUpdate(count int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Appending %d tracks on %s...", count, name),
	}
}

func platformDoneUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finalize,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ %s", name),
	}
}

func platformFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finalize,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ %s: %v", name, err),
	}
}
