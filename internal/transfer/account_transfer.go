package transfer

import "time"

type SocialAccountInfo struct {
	ID               int64      `json:"id"`
	Platform         string     `json:"platform"`
	PlatformUserID   string     `json:"platform_user_id"`
	PlatformUsername string     `json:"platform_username"`
	AccountType      string     `json:"account_type"`
	IsActive         bool       `json:"is_active"`
	TokenValid       bool       `json:"token_valid"`
	TokenExpiresAt   *time.Time `json:"token_expires_at,omitempty"`
	LastUsed         *time.Time `json:"last_used,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type OAuthURLResponse struct {
	OAuthURL    string `json:"oauth_url"`
	Platform    string `json:"platform"`
	RedirectURI string `json:"redirect_uri"`
}

// OAuthState is what the state store keeps between the authorize redirect
// and the callback.
type OAuthState struct {
	UserID      int64  `json:"user_id"`
	Platform    string `json:"platform"`
	RedirectURI string `json:"redirect_uri"`
}

// OAuthCallback is the query string a network sends back after the user
// approves (or denies) the connection.
type OAuthCallback struct {
	State         string
	Code          string
	OAuthToken    string
	OAuthVerifier string
	Error         string
}
