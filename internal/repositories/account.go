package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
)

// AccountRepository implements models.Repository[*models.PlatformAccount] for linked platform credentials.
//
// Linking a new account for a (user, platform) pair deactivates the previous
// one in the same transaction, so at most one active account exists per pair.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = "id, sequence, user_id, platform, external_id, display_name, access_token, refresh_token, expires_at, active, created_at, updated_at, deleted_at"

// Create inserts a new account, deactivating any existing active account for the same (user, platform)
func (r *AccountRepository) Create(account *models.PlatformAccount) error {
	sequence, err := NextSequence(r.db, "platform_accounts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	account.SetID(id)

	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if account.Active() {
		_, err = tx.Exec(`
			UPDATE platform_accounts
			SET active = 0, updated_at = ?
			WHERE user_id = ? AND platform = ? AND active = 1 AND deleted_at IS NULL
		`, time.Now(), account.UserID(), account.Platform().String())
		if err != nil {
			return fmt.Errorf("failed to deactivate previous account: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO platform_accounts (id, sequence, user_id, platform, external_id, display_name, access_token, refresh_token, expires_at, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		sequence,
		account.UserID(),
		account.Platform().String(),
		account.ExternalID(),
		account.DisplayName(),
		account.AccessToken(),
		account.RefreshToken(),
		account.ExpiresAt(),
		account.Active(),
		account.CreatedAt(),
		account.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return tx.Commit()
}

// Get retrieves an account by ID, excluding soft-deleted accounts
func (r *AccountRepository) Get(id string) (*models.PlatformAccount, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM platform_accounts
		WHERE id = ? AND deleted_at IS NULL
	`, accountColumns)

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetActive retrieves the single active account for (userID, platform).
//
// Absence surfaces as [shared.ErrAccountNotFound].
func (r *AccountRepository) GetActive(userID string, platform models.Platform) (*models.PlatformAccount, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM platform_accounts
		WHERE user_id = ? AND platform = ? AND active = 1 AND deleted_at IS NULL
	`, accountColumns)

	return r.scanOne(r.db.QueryRow(query, userID, platform.String()))
}

// Update modifies an existing account's credentials and state
func (r *AccountRepository) Update(account *models.PlatformAccount) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	account.SetUpdatedAt(now)

	query := `
		UPDATE platform_accounts
		SET external_id = ?, display_name = ?, access_token = ?, refresh_token = ?, expires_at = ?, active = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		account.ExternalID(),
		account.DisplayName(),
		account.AccessToken(),
		account.RefreshToken(),
		account.ExpiresAt(),
		account.Active(),
		now,
		account.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found or already deleted: %s", account.ID())
	}

	return nil
}

// Deactivate sets an account inactive, preserving its history
func (r *AccountRepository) Deactivate(id string) error {
	result, err := r.db.Exec(`
		UPDATE platform_accounts
		SET active = 0, updated_at = ?
		WHERE id = ? AND active = 1 AND deleted_at IS NULL
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAccountNotFound, id)
	}

	return nil
}

// Delete soft-deletes an account by ID
func (r *AccountRepository) Delete(id string) error {
	now := time.Now()

	result, err := r.db.Exec(`
		UPDATE platform_accounts
		SET deleted_at = ?, active = 0
		WHERE id = ? AND deleted_at IS NULL
	`, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all accounts matching the given criteria, excluding soft-deleted accounts
func (r *AccountRepository) List(criteria map[string]any) ([]*models.PlatformAccount, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM platform_accounts
		WHERE deleted_at IS NULL
	`, accountColumns)

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if platform, ok := criteria["platform"].(string); ok && platform != "" {
		query += " AND platform = ?"
		args = append(args, platform)
	}

	if active, ok := criteria["active"].(bool); ok {
		query += " AND active = ?"
		args = append(args, active)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.PlatformAccount
	for rows.Next() {
		account, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

// scanOne scans a single [sql.Row] into a [models.PlatformAccount]
func (r *AccountRepository) scanOne(row *sql.Row) (*models.PlatformAccount, error) {
	account, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w", shared.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return account, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PlatformAccount]
func (r *AccountRepository) scanRow(rows *sql.Rows) (*models.PlatformAccount, error) {
	account, err := scanAccount(rows.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return account, nil
}

func scanAccount(scan func(dest ...any) error) (*models.PlatformAccount, error) {
	var (
		id           string
		sequence     int
		userID       string
		platform     string
		externalID   string
		displayName  string
		accessToken  string
		refreshToken string
		expiresAt    sql.NullTime
		active       bool
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := scan(&id, &sequence, &userID, &platform, &externalID, &displayName, &accessToken, &refreshToken, &expiresAt, &active, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	account := models.NewPlatformAccount(sequence, userID, models.Platform(platform))
	account.SetID(id)
	account.SetExternalID(externalID)
	account.SetDisplayName(displayName)
	account.SetAccessToken(accessToken)
	account.SetRefreshToken(refreshToken)
	account.SetActive(active)
	account.SetCreatedAt(createdAt)
	account.SetUpdatedAt(updatedAt)

	if expiresAt.Valid {
		account.SetExpiresAt(&expiresAt.Time)
	}
	if deletedAt.Valid {
		account.SetDeletedAt(&deletedAt.Time)
	}

	return account, nil
}
