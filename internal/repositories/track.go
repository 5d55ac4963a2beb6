package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
)

// TrackRepository implements models.Repository[*models.Track] for the track catalog.
//
// Beyond CRUD it is the identity map between the logical track space and each
// platform's external id space: GetByExternalID resolves a platform item to a
// catalog row, and AttachExternalID persists newly discovered mappings with
// first-writer-wins semantics.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackColumns = "id, sequence, title, artist, album, duration_ms, genre, spotify_id, apple_music_id, platform_data, created_at, updated_at, deleted_at"

// Create inserts a new track into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.Track) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	track.SetSequence(sequence)

	id := shared.GenerateID()
	track.SetID(id)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	platformData, err := json.Marshal(track.PlatformData())
	if err != nil {
		return fmt.Errorf("failed to marshal platform data: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, title, artist, album, duration_ms, genre, spotify_id, apple_music_id, platform_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.Title(),
		track.Artist(),
		track.Album(),
		track.DurationMS(),
		track.Genre(),
		externalIDValue(track, models.PlatformSpotify),
		externalIDValue(track, models.PlatformAppleMusic),
		string(platformData),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tracks
		WHERE id = ? AND deleted_at IS NULL
	`, trackColumns)

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByExternalID retrieves a track by its external id on the given platform
func (r *TrackRepository) GetByExternalID(platform models.Platform, externalID string) (*models.Track, error) {
	column, err := externalIDColumn(platform)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM tracks
		WHERE %s = ? AND deleted_at IS NULL
	`, trackColumns, column)

	return r.scanOne(r.db.QueryRow(query, externalID))
}

// AttachExternalID persists a newly resolved external id for a track.
//
// Idempotent and first-writer-wins: if an id is already attached (even a
// different one) the stored value is kept and no error is raised. Attaching an
// id that another track already owns is also treated as a silent no-op, so
// concurrent identity resolution cannot oscillate the mapping.
func (r *TrackRepository) AttachExternalID(trackID string, platform models.Platform, externalID string) error {
	column, err := externalIDColumn(platform)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE tracks
		SET %s = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL AND %s IS NULL
	`, column, column)

	result, err := r.db.Exec(query, externalID, time.Now(), trackID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to attach external id: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		// Either the id is already attached (first writer won) or the track
		// is gone; only the latter is an error.
		if _, err := r.Get(trackID); err != nil {
			return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
		}
	}

	return nil
}

// Update modifies an existing track's metadata in the database.
//
// External ids are not updated here; use AttachExternalID.
func (r *TrackRepository) Update(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	platformData, err := json.Marshal(track.PlatformData())
	if err != nil {
		return fmt.Errorf("failed to marshal platform data: %w", err)
	}

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration_ms = ?, genre = ?, platform_data = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title(),
		track.Artist(),
		track.Album(),
		track.DurationMS(),
		track.Genre(),
		string(platformData),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", track.ID())
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks
func (r *TrackRepository) List(criteria map[string]any) ([]*models.Track, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tracks
		WHERE deleted_at IS NULL
	`, trackColumns)

	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ?"
		args = append(args, genre)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanOne scans a single [sql.Row] into a [models.Track]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.Track, error) {
	track, err := scanTrack(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w", shared.ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return track, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Track]
func (r *TrackRepository) scanRow(rows *sql.Rows) (*models.Track, error) {
	track, err := scanTrack(rows.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return track, nil
}

func scanTrack(scan func(dest ...any) error) (*models.Track, error) {
	var (
		id           string
		sequence     int
		title        string
		artist       string
		album        string
		durationMS   int
		genre        string
		spotifyID    sql.NullString
		appleMusicID sql.NullString
		platformData string
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := scan(&id, &sequence, &title, &artist, &album, &durationMS, &genre, &spotifyID, &appleMusicID, &platformData, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	track := models.NewTrack(sequence, title, artist)
	track.SetID(id)
	track.SetAlbum(album)
	track.SetDurationMS(durationMS)
	track.SetGenre(genre)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)

	if spotifyID.Valid {
		track.SetExternalID(models.PlatformSpotify, spotifyID.String)
	}
	if appleMusicID.Valid {
		track.SetExternalID(models.PlatformAppleMusic, appleMusicID.String)
	}

	if platformData != "" {
		var data map[string]any
		if err := json.Unmarshal([]byte(platformData), &data); err == nil {
			track.SetPlatformData(data)
		}
	}

	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

// externalIDValue converts a track's external id on a platform to a nullable column value.
func externalIDValue(track *models.Track, platform models.Platform) any {
	if id, ok := track.ExternalID(platform); ok {
		return id
	}
	return nil
}
