package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/harmonia-app/harmonia/internal/models"
	"github.com/harmonia-app/harmonia/internal/repositories"
	"github.com/harmonia-app/harmonia/internal/shared"
)

// AccountLink stores platform credentials as the active account for (user, platform).
//
// Any previously active account for the pair is deactivated. Tokens are
// supplied directly; obtaining them (OAuth consent, MusicKit user token) is
// the caller's responsibility.
func (r *Runner) AccountLink(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	platform, err := models.ParsePlatform(cmd.String("platform"))
	if err != nil {
		return err
	}

	accessToken := cmd.String("access-token")
	if accessToken == "" {
		return fmt.Errorf("%w: --access-token is required", shared.ErrMissingArgument)
	}

	account := models.NewPlatformAccount(0, cmd.String("user"), platform)
	account.SetAccessToken(accessToken)
	account.SetRefreshToken(cmd.String("refresh-token"))
	account.SetExternalID(cmd.String("external-id"))
	account.SetDisplayName(cmd.String("display-name"))

	if expiresIn := cmd.Int("expires-in"); expiresIn > 0 {
		expiry := time.Now().Add(time.Duration(expiresIn) * time.Second)
		account.SetExpiresAt(&expiry)
	}

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	repo := repositories.NewAccountRepository(db)
	if err := repo.Create(account); err != nil {
		return fmt.Errorf("failed to link account: %w", err)
	}

	r.logger.Info("account linked", "user", account.UserID(), "platform", platform, "id", account.ID())
	r.writePlain("✓ Linked %s account for user %s (id: %s)\n", platform, account.UserID(), account.ID())
	return nil
}

// AccountList prints the user's linked accounts.
func (r *Runner) AccountList(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	criteria := map[string]any{}
	if user := cmd.String("user"); user != "" {
		criteria["user_id"] = user
	}
	if cmd.Bool("active") {
		criteria["active"] = true
	}

	repo := repositories.NewAccountRepository(db)
	accounts, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(accounts))
		for _, account := range accounts {
			rows = append(rows, accountRow(account))
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(accounts) == 0 {
		return r.writePlain("No linked accounts.\n")
	}

	for _, account := range accounts {
		status := "inactive"
		if account.Active() {
			status = "active"
		}
		r.writePlain("%s  %-12s %-8s %s (%s)\n",
			account.ID(), account.Platform(), status, account.DisplayName(), account.UserID())
	}
	return nil
}

// AccountUnlink deactivates a linked account without deleting its history.
func (r *Runner) AccountUnlink(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, closeDB, err := r.database()
	if err != nil {
		return err
	}
	defer closeDB()

	repo := repositories.NewAccountRepository(db)

	id := cmd.String("id")
	if id == "" {
		platform, err := models.ParsePlatform(cmd.String("platform"))
		if err != nil {
			return fmt.Errorf("%w: --id or --platform is required", shared.ErrMissingArgument)
		}
		account, err := repo.GetActive(cmd.String("user"), platform)
		if err != nil {
			return err
		}
		id = account.ID()
	}

	if err := repo.Deactivate(id); err != nil {
		return fmt.Errorf("failed to unlink account: %w", err)
	}

	r.logger.Info("account unlinked", "id", id)
	r.writePlain("✓ Unlinked account %s\n", id)
	return nil
}

func accountRow(account *models.PlatformAccount) map[string]any {
	return map[string]any{
		"id":           account.ID(),
		"user_id":      account.UserID(),
		"platform":     account.Platform(),
		"external_id":  account.ExternalID(),
		"display_name": account.DisplayName(),
		"active":       account.Active(),
		"expires_at":   account.ExpiresAt(),
	}
}
