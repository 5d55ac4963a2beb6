package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
)

// PlaylistRepository implements models.Repository[*models.Playlist] plus the
// entry and sync-state operations the sync engine needs.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

const playlistColumns = "id, sequence, owner_id, name, description, public, spotify_id, apple_music_id, sync_enabled, last_synced, created_at, updated_at, deleted_at"

// Create inserts a new playlist into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	playlist.SetID(id)

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, owner_id, name, description, public, spotify_id, apple_music_id, sync_enabled, last_synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		playlist.OwnerID(),
		playlist.Name(),
		playlist.Description(),
		playlist.Public(),
		mirrorIDValue(playlist, models.PlatformSpotify),
		mirrorIDValue(playlist, models.PlatformAppleMusic),
		playlist.SyncEnabled(),
		playlist.LastSynced(),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`, playlistColumns)

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetOwned retrieves a playlist by ID scoped to its owner.
//
// Absent and not-owned are indistinguishable to the caller: both surface as
// [shared.ErrPlaylistNotFound].
func (r *PlaylistRepository) GetOwned(id, ownerID string) (*models.Playlist, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM playlists
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, playlistColumns)

	return r.scanOne(r.db.QueryRow(query, id, ownerID))
}

// Update modifies an existing playlist's metadata in the database
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.SetUpdatedAt(now)

	query := `
		UPDATE playlists
		SET name = ?, description = ?, public = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		playlist.Name(),
		playlist.Description(),
		playlist.Public(),
		now,
		playlist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found or already deleted: %s", playlist.ID())
	}

	return nil
}

// Delete soft-deletes a playlist and removes its entries
func (r *PlaylistRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.Exec(`
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found or already deleted: %s", id)
	}

	if _, err := tx.Exec("DELETE FROM playlist_entries WHERE playlist_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete playlist entries: %w", err)
	}

	return tx.Commit()
}

// List retrieves all playlists matching the given criteria, excluding soft-deleted playlists
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM playlists
		WHERE deleted_at IS NULL
	`, playlistColumns)

	args := []any{}

	if ownerID, ok := criteria["owner_id"].(string); ok && ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}

	if syncEnabled, ok := criteria["sync_enabled"].(bool); ok {
		query += " AND sync_enabled = ?"
		args = append(args, syncEnabled)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// Entries retrieves a playlist's entries in position order.
func (r *PlaylistRepository) Entries(playlistID string) ([]*models.PlaylistEntry, error) {
	query := `
		SELECT id, playlist_id, track_id, position, added_by, added_at
		FROM playlist_entries
		WHERE playlist_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.PlaylistEntry
	for rows.Next() {
		var entry models.PlaylistEntry
		if err := rows.Scan(&entry.ID, &entry.PlaylistID, &entry.TrackID, &entry.Position, &entry.AddedBy, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// AddEntry appends a track to a playlist.
//
// When entry.Position is zero the entry is appended at max(position)+1,
// keeping positions a dense 1-based sequence. A track already present in the
// playlist is rejected with [shared.ErrDuplicateEntry].
func (r *PlaylistRepository) AddEntry(entry *models.PlaylistEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if entry.Position < 1 {
		var next int
		err := tx.QueryRow(
			"SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_entries WHERE playlist_id = ?",
			entry.PlaylistID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to compute next position: %w", err)
		}
		entry.Position = next
	}

	entry.ID = shared.GenerateID()
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO playlist_entries (id, playlist_id, track_id, position, added_by, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.PlaylistID, entry.TrackID, entry.Position, entry.AddedBy, entry.AddedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("%w: track %s already in playlist %s", shared.ErrDuplicateEntry, entry.TrackID, entry.PlaylistID)
		}
		return fmt.Errorf("failed to insert playlist entry: %w", err)
	}

	return tx.Commit()
}

// RemoveEntry removes a track from a playlist
func (r *PlaylistRepository) RemoveEntry(playlistID, trackID string) error {
	result, err := r.db.Exec(
		"DELETE FROM playlist_entries WHERE playlist_id = ? AND track_id = ?",
		playlistID, trackID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove playlist entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track %s not in playlist %s", trackID, playlistID)
	}

	return nil
}

// SetMirrorID persists the remote playlist id for a platform and returns the stored value.
//
// The mirror id is written at most once: a concurrent writer that loses the
// race gets the first writer's value back, never an error.
func (r *PlaylistRepository) SetMirrorID(playlistID string, platform models.Platform, remoteID string) (string, error) {
	column, err := externalIDColumn(platform)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf(`
		UPDATE playlists
		SET %s = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL AND %s IS NULL
	`, column, column)

	if _, err := r.db.Exec(query, remoteID, time.Now(), playlistID); err != nil {
		return "", fmt.Errorf("failed to set mirror id: %w", err)
	}

	var stored sql.NullString
	selectQuery := fmt.Sprintf("SELECT %s FROM playlists WHERE id = ? AND deleted_at IS NULL", column)
	if err := r.db.QueryRow(selectQuery, playlistID).Scan(&stored); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return "", fmt.Errorf("failed to read mirror id: %w", err)
	}

	if !stored.Valid {
		return "", fmt.Errorf("mirror id not persisted for playlist %s", playlistID)
	}

	return stored.String, nil
}

// MarkSynced stamps a playlist's last-synced timestamp and enables sync.
func (r *PlaylistRepository) MarkSynced(playlistID string, at time.Time) error {
	result, err := r.db.Exec(`
		UPDATE playlists
		SET sync_enabled = 1, last_synced = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, at, time.Now(), playlistID)
	if err != nil {
		return fmt.Errorf("failed to mark playlist synced: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	return nil
}

// scanOne scans a single [sql.Row] into a [models.Playlist]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	playlist, err := scanPlaylist(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w", shared.ErrPlaylistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return playlist, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Playlist]
func (r *PlaylistRepository) scanRow(rows *sql.Rows) (*models.Playlist, error) {
	playlist, err := scanPlaylist(rows.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return playlist, nil
}

func scanPlaylist(scan func(dest ...any) error) (*models.Playlist, error) {
	var (
		id           string
		sequence     int
		ownerID      string
		name         string
		description  string
		public       bool
		spotifyID    sql.NullString
		appleMusicID sql.NullString
		syncEnabled  bool
		lastSynced   sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := scan(&id, &sequence, &ownerID, &name, &description, &public, &spotifyID, &appleMusicID, &syncEnabled, &lastSynced, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	playlist := models.NewPlaylist(sequence, ownerID, name)
	playlist.SetID(id)
	playlist.SetDescription(description)
	playlist.SetPublic(public)
	playlist.SetSyncEnabled(syncEnabled)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)

	if spotifyID.Valid {
		playlist.SetMirrorID(models.PlatformSpotify, spotifyID.String)
	}
	if appleMusicID.Valid {
		playlist.SetMirrorID(models.PlatformAppleMusic, appleMusicID.String)
	}
	if lastSynced.Valid {
		playlist.SetLastSynced(&lastSynced.Time)
	}
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}

	return playlist, nil
}

// mirrorIDValue converts a playlist's mirror id on a platform to a nullable column value.
func mirrorIDValue(playlist *models.Playlist, platform models.Platform) any {
	if id, ok := playlist.MirrorID(platform); ok {
		return id
	}
	return nil
}
