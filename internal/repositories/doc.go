// Package repositories provides SQLite-backed persistence for the sync backend.
//
// TrackRepository doubles as the cross-platform identity map: it stores one
// catalog row per logical track and attaches per-platform external ids with
// first-writer-wins semantics. PlaylistRepository owns playlists and their
// ordered entries, including the per-platform mirror ids the sync engine
// persists. AccountRepository holds linked platform credentials.
package repositories
