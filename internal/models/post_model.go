package models

import "time"

type Post struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	SocialAccountID int64      `db:"social_account_id" json:"social_account_id"`
	ContentText     string     `db:"content_text" json:"content_text"`
	MediaURLs       []string   `db:"media_urls" json:"media_urls"`
	MediaType       string     `db:"media_type" json:"media_type"`
	ScheduledFor    time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Status          string     `db:"status" json:"status"` // scheduled, posted, failed, cancelled
	PlatformPostID  *string    `db:"platform_post_id" json:"platform_post_id"`
	PostedAt        *time.Time `db:"posted_at" json:"posted_at"`
	ErrorMessage    *string    `db:"error_message" json:"error_message"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusScheduled = "scheduled"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
	PostStatusCancelled = "cancelled"
)

const (
	MediaTypeText     = "text"
	MediaTypeImage    = "image"
	MediaTypeVideo    = "video"
	MediaTypeCarousel = "carousel"
)

func IsValidPostStatus(status string) bool {
	switch status {
	case PostStatusScheduled, PostStatusPosted, PostStatusFailed, PostStatusCancelled:
		return true
	}
	return false
}

func IsValidMediaType(mediaType string) bool {
	switch mediaType {
	case MediaTypeText, MediaTypeImage, MediaTypeVideo, MediaTypeCarousel:
		return true
	}
	return false
}

// IsTerminal reports whether the post has left the scheduled state.
func (p *Post) IsTerminal() bool {
	return p.Status != PostStatusScheduled
}

// IsDue reports whether a scheduled post should be picked up by a tick
// running at now. The cutoff now+buffer is inclusive.
func (p *Post) IsDue(now time.Time, buffer time.Duration) bool {
	return p.Status == PostStatusScheduled && !p.ScheduledFor.After(now.Add(buffer))
}
