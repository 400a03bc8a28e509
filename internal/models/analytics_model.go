package models

import "time"

type PostAnalytics struct {
	ID              int64          `db:"id" json:"id"`
	PostID          int64          `db:"post_id" json:"post_id"`
	LikesCount      int64          `db:"likes_count" json:"likes_count"`
	CommentsCount   int64          `db:"comments_count" json:"comments_count"`
	SharesCount     int64          `db:"shares_count" json:"shares_count"`
	Impressions     int64          `db:"impressions" json:"impressions"`
	Reach           int64          `db:"reach" json:"reach"`
	PlatformMetrics map[string]any `db:"platform_metrics" json:"platform_metrics"`
	CollectedAt     time.Time      `db:"collected_at" json:"collected_at"`
}
