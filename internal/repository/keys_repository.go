package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
)

type ApiKeyRepository interface {
	GetByHash(ctx context.Context, keyHash string) (*models.ApiKey, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	Create(ctx context.Context, apiKey *models.ApiKey) (int64, error)
	TouchLastUsed(ctx context.Context, id int64, at time.Time) error
	Remove(ctx context.Context, id, userID int64) (bool, error)
}

const apiKeyColumns = "id, user_id, key_prefix, last_used_at, created_at"

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func scanApiKey(row rowScanner) (*models.ApiKey, error) {
	var k models.ApiKey
	if err := row.Scan(&k.ID, &k.UserID, &k.Prefix, &k.LastUsedAt, &k.CreatedAt); err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *apiKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	query := "SELECT " + apiKeyColumns + " FROM api_keys WHERE key_hash = $1"
	k, err := scanApiKey(r.db.QueryRowContext(ctx, query, keyHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	k.KeyHash = keyHash
	return k, nil
}

func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	query := "SELECT " + apiKeyColumns + " FROM api_keys WHERE user_id = $1 ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var keys []*models.ApiKey
	for rows.Next() {
		k, err := scanApiKey(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM api_keys WHERE user_id = $1", userID).Scan(&n)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}

func (r *apiKeyRepository) Create(ctx context.Context, apiKey *models.ApiKey) (int64, error) {
	query := `
		INSERT INTO api_keys (user_id, key_hash, key_prefix)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, apiKey.UserID, apiKey.KeyHash, apiKey.Prefix).Scan(&apiKey.ID, &apiKey.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return apiKey.ID, nil
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at = $1 WHERE id = $2", at, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Remove deletes the key only when it belongs to userID.
func (r *apiKeyRepository) Remove(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM api_keys WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
