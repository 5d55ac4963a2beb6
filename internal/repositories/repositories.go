package repositories

import (
	"database/sql"
	"fmt"

	"github.com/harmonia-app/harmonia/internal/models"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., playlist #15).
// They are NOT exposed in API output but used internally for sorting and debugging.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// externalIDColumn maps a platform to its external-id column.
//
// Column names come from this fixed switch, never from caller input.
func externalIDColumn(platform models.Platform) (string, error) {
	switch platform {
	case models.PlatformSpotify:
		return "spotify_id", nil
	case models.PlatformAppleMusic:
		return "apple_music_id", nil
	default:
		return "", fmt.Errorf("no external id column for platform %q", platform)
	}
}
