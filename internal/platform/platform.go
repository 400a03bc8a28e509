// Package platform translates generic post content into calls against each
// supported social network and normalizes what comes back.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// PostContent is the network-agnostic shape handed to an Adapter.
type PostContent struct {
	Text      string
	MediaURLs []string
	MediaType string
}

// PostResult is the normalized outcome of one publish attempt.
type PostResult struct {
	Success        bool
	PlatformPostID string
	Error          string
	PostedAt       time.Time
}

// Analytics holds the engagement counters a network was willing to share.
type Analytics struct {
	LikesCount       int64
	CommentsCount    int64
	SharesCount      int64
	Impressions      int64
	Reach            int64
	PlatformSpecific map[string]any
}

// Credentials is what an adapter needs to act on behalf of an account.
// AccessTokenSecret is only used by OAuth 1.0a networks. AccountID is the
// platform-side id stored on the social account. TargetURN overrides the
// identity a post is published as, where the network supports that.
type Credentials struct {
	AccessToken       string
	AccessTokenSecret string
	AccountID         string
	TargetURN         string
}

// Tokens is the payload persisted in the secret store for an account.
type Tokens struct {
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret,omitempty"`
	RefreshToken      string `json:"refresh_token,omitempty"`
	ExpiresIn         int64  `json:"expires_in,omitempty"`
}

// ExpiresAt converts ExpiresIn into an absolute time, or nil when the network
// did not report an expiry.
func (t *Tokens) ExpiresAt(now time.Time) *time.Time {
	if t.ExpiresIn <= 0 {
		return nil
	}
	at := now.Add(time.Duration(t.ExpiresIn) * time.Second)
	return &at
}

// AuthGrant carries everything a callback can hand back. OAuth 2 networks use
// Code and RedirectURI; Twitter uses OAuthToken and OAuthVerifier.
type AuthGrant struct {
	Code          string
	RedirectURI   string
	OAuthToken    string
	OAuthVerifier string
}

type UserInfo struct {
	ID             string
	Username       string
	Name           string
	ProfilePicture string
	AccountType    string
}

// Adapter is implemented once per social network.
type Adapter interface {
	Name() string
	GetOAuthURL(ctx context.Context, redirectURI, state string) (string, error)
	ExchangeCodeForTokens(ctx context.Context, grant AuthGrant) (*Tokens, error)
	GetUserInfo(ctx context.Context, creds Credentials) (*UserInfo, error)
	// PostContent never returns a partially applied post: any failure in any
	// step is reported as a single failed PostResult.
	PostContent(ctx context.Context, content PostContent, creds Credentials) PostResult
	GetPostAnalytics(ctx context.Context, platformPostID string, creds Credentials) (*Analytics, error)
	// ValidateToken reports false on any transport or auth failure.
	ValidateToken(ctx context.Context, creds Credentials) bool
}

// Refresher is implemented by networks whose long-lived tokens can be renewed.
type Refresher interface {
	RefreshToken(ctx context.Context, accessToken string) (*Tokens, error)
}

var (
	ErrMediaRequired       = errors.New("Instagram requires media content (images/videos)")
	ErrNoBusinessAccount   = errors.New("No Instagram Business account found")
	ErrUnsupportedPlatform = errors.New("platform not supported")
)

// AuthExchangeError is returned when a network rejects an authorization code
// or verifier (expired, reused, redirect mismatch).
type AuthExchangeError struct {
	Platform string
	Err      error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("%s rejected the authorization grant: %v", e.Platform, e.Err)
}

func (e *AuthExchangeError) Unwrap() error {
	return e.Err
}

func succeeded(platformPostID string) PostResult {
	return PostResult{
		Success:        true,
		PlatformPostID: platformPostID,
		PostedAt:       time.Now().UTC(),
	}
}

func failed(err error) PostResult {
	return PostResult{
		Success:  false,
		Error:    err.Error(),
		PostedAt: time.Now().UTC(),
	}
}

// Registry is the lookup table from platform name to adapter.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, name)
	}
	return a, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
