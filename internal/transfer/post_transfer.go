package transfer

import "time"

type SchedulePostRequest struct {
	ContentText      string     `json:"content_text"`
	MediaURLs        []string   `json:"media_urls"`
	MediaType        string     `json:"media_type"`
	ScheduledFor     *time.Time `json:"scheduled_for"`
	SocialAccountIDs []int64    `json:"social_account_ids"`
}

type ScheduledPostSummary struct {
	ID               int64     `json:"id"`
	Platform         string    `json:"platform"`
	PlatformUsername string    `json:"platform_username"`
	ScheduledFor     time.Time `json:"scheduled_for"`
	Status           string    `json:"status"`
}

type SchedulePostResponse struct {
	Success        bool                    `json:"success"`
	Message        string                  `json:"message"`
	ScheduledPosts []*ScheduledPostSummary `json:"scheduled_posts"`
}

type ImmediatePostResult struct {
	PostID         int64   `json:"post_id"`
	Platform       string  `json:"platform"`
	Success        bool    `json:"success"`
	Status         string  `json:"status"`
	PlatformPostID *string `json:"platform_post_id"`
	ErrorMessage   *string `json:"error_message"`
}

type ImmediatePostResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Results []*ImmediatePostResult `json:"results"`
}

type PostInfo struct {
	ID               int64      `json:"id"`
	ContentText      string     `json:"content_text"`
	MediaURLs        []string   `json:"media_urls"`
	MediaType        string     `json:"media_type"`
	ScheduledFor     time.Time  `json:"scheduled_for"`
	Status           string     `json:"status"`
	Platform         string     `json:"platform"`
	PlatformUsername string     `json:"platform_username"`
	PlatformPostID   *string    `json:"platform_post_id"`
	PostedAt         *time.Time `json:"posted_at"`
	ErrorMessage     *string    `json:"error_message"`
	CreatedAt        time.Time  `json:"created_at"`
}

type PostListResponse struct {
	Posts []*PostInfo `json:"posts"`
}

// PostAnalyticsResponse carries either the collected counters or, when
// nothing was collected yet, only Message.
type PostAnalyticsResponse struct {
	PostID          int64          `json:"post_id"`
	PlatformPostID  string         `json:"platform_post_id"`
	LikesCount      *int64         `json:"likes_count,omitempty"`
	CommentsCount   *int64         `json:"comments_count,omitempty"`
	SharesCount     *int64         `json:"shares_count,omitempty"`
	Impressions     *int64         `json:"impressions,omitempty"`
	Reach           *int64         `json:"reach,omitempty"`
	PlatformMetrics map[string]any `json:"platform_metrics,omitempty"`
	CollectedAt     *time.Time     `json:"collected_at,omitempty"`
	Message         string         `json:"message,omitempty"`
}
