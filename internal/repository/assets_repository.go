package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaAsset, error)
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, id, userID int64) (bool, error)
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (int64, error) {
	var id int64
	var err error

	query := `
		INSERT INTO media_assets (user_id, file_name, file_type, file_size, file_url, prompt, ai_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	args := []any{ma.UserID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL, ma.Prompt, ma.AIGenerated}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	ma.ID = id
	return id, nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	query := `
		SELECT id, user_id, file_name, file_type, file_size, file_url, prompt, ai_generated, created_at
		FROM media_assets
		WHERE id = $1
	`

	var ma models.MediaAsset
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ma.ID,
		&ma.UserID,
		&ma.FileName,
		&ma.FileType,
		&ma.FileSize,
		&ma.FileURL,
		&ma.Prompt,
		&ma.AIGenerated,
		&ma.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &ma, nil
}

func (r *mediaAssetRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.MediaAsset, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, user_id, file_name, file_type, file_size, file_url, prompt, ai_generated, created_at
		FROM media_assets
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		var ma models.MediaAsset
		err := rows.Scan(&ma.ID, &ma.UserID, &ma.FileName, &ma.FileType, &ma.FileSize, &ma.FileURL, &ma.Prompt, &ma.AIGenerated, &ma.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &ma)
	}
	return assets, rows.Err()
}

func (r *mediaAssetRepository) Remove(ctx context.Context, id, userID int64) (bool, error) {
	query := `DELETE FROM media_assets WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}
