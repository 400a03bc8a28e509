package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
)

const socialAccountColumns = `id, user_id, platform, platform_user_id, platform_username, account_type,
	is_active, token_secret_ref, token_expires_at, last_used, created_at, updated_at`

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetForUser(ctx context.Context, id, userID int64) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64, activeOnly bool) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, platform string, before time.Time) ([]*models.SocialAccount, error)
	CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error)
	SetToken(ctx context.Context, id int64, secretRef string, expiresAt *time.Time) error
	TouchLastUsed(ctx context.Context, id int64, at time.Time) error
	Deactivate(ctx context.Context, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func scanSocialAccount(row rowScanner) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := row.Scan(
		&sa.ID,
		&sa.UserID,
		&sa.Platform,
		&sa.PlatformUserID,
		&sa.PlatformUsername,
		&sa.AccountType,
		&sa.IsActive,
		&sa.TokenSecretRef,
		&sa.TokenExpiresAt,
		&sa.LastUsed,
		&sa.CreatedAt,
		&sa.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]*models.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

// Upsert creates the account or, when the same platform identity was
// connected before, refreshes it and marks it active again.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts (
			user_id,
			platform,
			platform_user_id,
			platform_username,
			account_type,
			is_active,
			token_secret_ref,
			token_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7)
		ON CONFLICT (user_id, platform, platform_user_id) DO UPDATE
		SET platform_username = EXCLUDED.platform_username,
			account_type = EXCLUDED.account_type,
			is_active = TRUE,
			token_secret_ref = EXCLUDED.token_secret_ref,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = NOW()
		RETURNING id
	`

	if sa.AccountType == "" {
		sa.AccountType = models.AccountTypePersonal
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sa.UserID,
		sa.Platform,
		sa.PlatformUserID,
		sa.PlatformUsername,
		sa.AccountType,
		sa.TokenSecretRef,
		sa.TokenExpiresAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	sa.ID = id
	sa.IsActive = true
	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) GetForUser(ctx context.Context, id, userID int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1 AND user_id = $2`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64, activeOnly bool) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	return r.queryAccounts(ctx, query, userID)
}

// ListExpiring returns active accounts on platform whose token expires
// before the given time, including already expired ones.
func (r *socialAccountRepository) ListExpiring(ctx context.Context, platform string, before time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE platform = $1
			AND is_active = TRUE
			AND token_expires_at IS NOT NULL
			AND token_expires_at < $2
		ORDER BY token_expires_at ASC`

	return r.queryAccounts(ctx, query, platform, before)
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	query := "SELECT 1 FROM social_accounts WHERE id = $1 AND user_id = $2 AND is_active = TRUE"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, secretRef string, expiresAt *time.Time) error {
	query := `
		UPDATE social_accounts
		SET token_secret_ref = COALESCE(NULLIF($2, ''), token_secret_ref),
			token_expires_at = $3,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, secretRef, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		err = errors.New("no rows affected; social account may not exist")
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE social_accounts SET last_used = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Deactivate soft-deletes the account. Rows are never removed so historical
// posts keep their reference.
func (r *socialAccountRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE social_accounts SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
