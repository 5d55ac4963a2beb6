package repositories

import (
	"errors"
	"testing"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/shared"
)

func newTestAccount(user string, platform models.Platform, token string) *models.PlatformAccount {
	account := models.NewPlatformAccount(0, user, platform)
	account.SetAccessToken(token)
	account.SetDisplayName(user + " on " + string(platform))
	return account
}

func TestAccountRepository_CreateDeactivatesPrevious(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)

	first := newTestAccount("alice", models.PlatformSpotify, "token-1")
	if err := repo.Create(first); err != nil {
		t.Fatalf("Create(first) error = %v", err)
	}

	second := newTestAccount("alice", models.PlatformSpotify, "token-2")
	if err := repo.Create(second); err != nil {
		t.Fatalf("Create(second) error = %v", err)
	}

	active, err := repo.GetActive("alice", models.PlatformSpotify)
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if active.ID() != second.ID() {
		t.Errorf("active account = %s, want the relinked one %s", active.ID(), second.ID())
	}
	if active.AccessToken() != "token-2" {
		t.Errorf("active token = %q, want token-2", active.AccessToken())
	}

	// History is preserved, only one row remains active.
	all, err := repo.List(map[string]any{"user_id": "alice"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() = %d accounts, want 2", len(all))
	}

	activeOnly, err := repo.List(map[string]any{"user_id": "alice", "active": true})
	if err != nil {
		t.Fatalf("List(active) error = %v", err)
	}
	if len(activeOnly) != 1 {
		t.Errorf("List(active) = %d accounts, want 1", len(activeOnly))
	}
}

func TestAccountRepository_GetActive_PerPlatform(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)

	if err := repo.Create(newTestAccount("alice", models.PlatformSpotify, "sp-token")); err != nil {
		t.Fatalf("Create(spotify) error = %v", err)
	}
	if err := repo.Create(newTestAccount("alice", models.PlatformAppleMusic, "am-token")); err != nil {
		t.Fatalf("Create(apple) error = %v", err)
	}

	spotify, err := repo.GetActive("alice", models.PlatformSpotify)
	if err != nil {
		t.Fatalf("GetActive(spotify) error = %v", err)
	}
	if spotify.AccessToken() != "sp-token" {
		t.Errorf("spotify token = %q", spotify.AccessToken())
	}

	if _, err := repo.GetActive("bob", models.PlatformSpotify); !errors.Is(err, shared.ErrAccountNotFound) {
		t.Errorf("GetActive(unknown user) error = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountRepository_Deactivate(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)

	account := newTestAccount("alice", models.PlatformSpotify, "token")
	if err := repo.Create(account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Deactivate(account.ID()); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	if _, err := repo.GetActive("alice", models.PlatformSpotify); !errors.Is(err, shared.ErrAccountNotFound) {
		t.Errorf("GetActive() after deactivate error = %v, want ErrAccountNotFound", err)
	}

	// Record still exists for history.
	got, err := repo.Get(account.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Active() {
		t.Error("account still active after Deactivate")
	}

	if err := repo.Deactivate(account.ID()); !errors.Is(err, shared.ErrAccountNotFound) {
		t.Errorf("second Deactivate() error = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)

	account := newTestAccount("alice", models.PlatformSpotify, "token")
	if err := repo.Create(account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(account.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.Get(account.ID()); !errors.Is(err, shared.ErrAccountNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrAccountNotFound", err)
	}

	all, err := repo.List(map[string]any{"user_id": "alice"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("List() after delete = %d, want 0", len(all))
	}
}
