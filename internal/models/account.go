package models

import (
	"fmt"
	"time"
)

// PlatformAccount is one linked credential record per (user, platform).
//
// At most one account per (user, platform) is active at a time. Unlinking
// deactivates the record rather than deleting it, preserving history.
type PlatformAccount struct {
	id           string
	sequence     int
	userID       string
	platform     Platform
	externalID   string
	displayName  string
	accessToken  string
	refreshToken string
	expiresAt    *time.Time
	active       bool
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewPlatformAccount creates an active account for (userID, platform).
func NewPlatformAccount(sequence int, userID string, platform Platform) *PlatformAccount {
	now := time.Now()
	return &PlatformAccount{
		sequence:  sequence,
		userID:    userID,
		platform:  platform,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}
}

func (a *PlatformAccount) ID() string            { return a.id }
func (a *PlatformAccount) Sequence() int         { return a.sequence }
func (a *PlatformAccount) UserID() string        { return a.userID }
func (a *PlatformAccount) Platform() Platform    { return a.platform }
func (a *PlatformAccount) ExternalID() string    { return a.externalID }
func (a *PlatformAccount) DisplayName() string   { return a.displayName }
func (a *PlatformAccount) AccessToken() string   { return a.accessToken }
func (a *PlatformAccount) RefreshToken() string  { return a.refreshToken }
func (a *PlatformAccount) ExpiresAt() *time.Time { return a.expiresAt }
func (a *PlatformAccount) Active() bool          { return a.active }
func (a *PlatformAccount) CreatedAt() time.Time  { return a.createdAt }
func (a *PlatformAccount) UpdatedAt() time.Time  { return a.updatedAt }
func (a *PlatformAccount) DeletedAt() *time.Time { return a.deletedAt }

func (a *PlatformAccount) SetID(id string)              { a.id = id }
func (a *PlatformAccount) SetExternalID(id string)      { a.externalID = id }
func (a *PlatformAccount) SetDisplayName(name string)   { a.displayName = name }
func (a *PlatformAccount) SetAccessToken(token string)  { a.accessToken = token }
func (a *PlatformAccount) SetRefreshToken(token string) { a.refreshToken = token }
func (a *PlatformAccount) SetExpiresAt(ts *time.Time)   { a.expiresAt = ts }
func (a *PlatformAccount) SetActive(active bool)        { a.active = active }
func (a *PlatformAccount) SetCreatedAt(ts time.Time)    { a.createdAt = ts }
func (a *PlatformAccount) SetUpdatedAt(ts time.Time)    { a.updatedAt = ts }
func (a *PlatformAccount) SetDeletedAt(ts *time.Time)   { a.deletedAt = ts }

// Expired reports whether the access token has passed its expiry.
func (a *PlatformAccount) Expired(now time.Time) bool {
	return a.expiresAt != nil && now.After(*a.expiresAt)
}

// Validate checks the account's required fields.
func (a *PlatformAccount) Validate() error {
	if a.userID == "" {
		return fmt.Errorf("account user id is required")
	}
	if !a.platform.Valid() {
		return fmt.Errorf("invalid platform %q on account", a.platform)
	}
	return nil
}
