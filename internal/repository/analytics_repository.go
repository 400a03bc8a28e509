package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
)

type AnalyticsRepository interface {
	Upsert(ctx context.Context, a *models.PostAnalytics) error
	GetByPostID(ctx context.Context, postID int64) (*models.PostAnalytics, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Upsert(ctx context.Context, a *models.PostAnalytics) error {
	query := `
		INSERT INTO post_analytics (post_id, likes_count, comments_count, shares_count, impressions, reach, platform_metrics, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (post_id) DO UPDATE
		SET likes_count = EXCLUDED.likes_count,
			comments_count = EXCLUDED.comments_count,
			shares_count = EXCLUDED.shares_count,
			impressions = EXCLUDED.impressions,
			reach = EXCLUDED.reach,
			platform_metrics = EXCLUDED.platform_metrics,
			collected_at = EXCLUDED.collected_at
		RETURNING id
	`

	metrics := a.PlatformMetrics
	if metrics == nil {
		metrics = map[string]any{}
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("error encoding platform metrics: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		a.PostID,
		a.LikesCount,
		a.CommentsCount,
		a.SharesCount,
		a.Impressions,
		a.Reach,
		raw,
		a.CollectedAt,
	).Scan(&a.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *analyticsRepository) GetByPostID(ctx context.Context, postID int64) (*models.PostAnalytics, error) {
	query := `
		SELECT id, post_id, likes_count, comments_count, shares_count, impressions, reach, platform_metrics, collected_at
		FROM post_analytics
		WHERE post_id = $1
	`

	var a models.PostAnalytics
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, postID).Scan(
		&a.ID,
		&a.PostID,
		&a.LikesCount,
		&a.CommentsCount,
		&a.SharesCount,
		&a.Impressions,
		&a.Reach,
		&raw,
		&a.CollectedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.PlatformMetrics); err != nil {
			return nil, fmt.Errorf("error decoding platform metrics: %w", err)
		}
	}
	return &a, nil
}
