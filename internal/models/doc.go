// Package models defines domain entities and persistence interfaces for the harmonia sync backend.
//
// The package contains the persistent entities backing the sync engine:
//   - [Track] : Catalog entry with per-platform external ids for cross-platform identity
//   - [Playlist] : User-owned ordered collection with per-platform mirror ids
//   - [PlaylistEntry] : Junction row linking playlists to tracks with dense ordering
//   - [PlatformAccount] : Linked streaming-service credential record
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
