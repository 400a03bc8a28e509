package models

import (
	"time"
)

type SocialAccount struct {
	ID               int64      `db:"id" json:"id"`
	UserID           int64      `db:"user_id" json:"user_id"`
	Platform         string     `db:"platform" json:"platform"`
	PlatformUserID   string     `db:"platform_user_id" json:"platform_user_id"`
	PlatformUsername string     `db:"platform_username" json:"platform_username"`
	AccountType      string     `db:"account_type" json:"account_type"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	TokenSecretRef   string     `db:"token_secret_ref" json:"-"`
	TokenExpiresAt   *time.Time `db:"token_expires_at" json:"token_expires_at"`
	LastUsed         *time.Time `db:"last_used" json:"last_used"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PlatformLinkedIn  = "linkedin"
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
)

const (
	AccountTypePersonal = "personal"
	AccountTypeBusiness = "business"
	AccountTypePage     = "page"
)
