package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"golang.org/x/oauth2"
)

const (
	linkedInAPIBase  = "https://api.linkedin.com/v2"
	linkedInAuthURL  = "https://www.linkedin.com/oauth/v2/authorization"
	linkedInTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
)

var linkedInScopes = []string{"r_liteprofile", "r_emailaddress", "w_member_social"}

type LinkedInConfig struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client
}

type LinkedIn struct {
	cfg    LinkedInConfig
	client *http.Client
}

func NewLinkedIn(cfg LinkedInConfig) *LinkedIn {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = linkedInAPIBase
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = linkedInAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = linkedInTokenURL
	}
	return &LinkedIn{cfg: cfg, client: defaultClient(cfg.HTTPClient)}
}

func (l *LinkedIn) Name() string {
	return models.PlatformLinkedIn
}

func (l *LinkedIn) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     l.cfg.ClientID,
		ClientSecret: l.cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       linkedInScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   l.cfg.AuthURL,
			TokenURL:  l.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (l *LinkedIn) GetOAuthURL(ctx context.Context, redirectURI, state string) (string, error) {
	return l.oauthConfig(redirectURI).AuthCodeURL(state), nil
}

func (l *LinkedIn) ExchangeCodeForTokens(ctx context.Context, grant AuthGrant) (*Tokens, error) {
	if grant.Code == "" {
		return nil, &AuthExchangeError{Platform: l.Name(), Err: fmt.Errorf("missing authorization code")}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.client)
	token, err := l.oauthConfig(grant.RedirectURI).Exchange(ctx, grant.Code)
	if err != nil {
		return nil, &AuthExchangeError{Platform: l.Name(), Err: err}
	}

	return tokensFromOAuth2(token), nil
}

type linkedInProfile struct {
	ID                 string `json:"id"`
	LocalizedFirstName string `json:"localizedFirstName"`
	LocalizedLastName  string `json:"localizedLastName"`
}

func (l *LinkedIn) profile(ctx context.Context, accessToken string) (*linkedInProfile, error) {
	req, err := l.newRequest(ctx, http.MethodGet, "/me", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var p linkedInProfile
	if err := doJSON(l.client, l.Name(), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (l *LinkedIn) GetUserInfo(ctx context.Context, creds Credentials) (*UserInfo, error) {
	p, err := l.profile(ctx, creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("error fetching LinkedIn profile: %w", err)
	}

	name := strings.TrimSpace(p.LocalizedFirstName + " " + p.LocalizedLastName)
	return &UserInfo{
		ID:          p.ID,
		Username:    name,
		Name:        name,
		AccountType: models.AccountTypePersonal,
	}, nil
}

func (l *LinkedIn) ValidateToken(ctx context.Context, creds Credentials) bool {
	if creds.AccessToken == "" {
		return false
	}
	_, err := l.profile(ctx, creds.AccessToken)
	return err == nil
}

// author returns the URN the post is published as.
func (l *LinkedIn) author(ctx context.Context, creds Credentials) (string, error) {
	if creds.TargetURN != "" {
		return creds.TargetURN, nil
	}
	p, err := l.profile(ctx, creds.AccessToken)
	if err != nil {
		return "", fmt.Errorf("error resolving LinkedIn author: %w", err)
	}
	return "urn:li:person:" + p.ID, nil
}

// OrganizationURN builds the post-as identity for a company page.
func OrganizationURN(organizationID string) string {
	return "urn:li:organization:" + organizationID
}

type ugcMedia struct {
	Status string `json:"status"`
	Media  string `json:"media"`
}

type ugcShareContent struct {
	ShareCommentary struct {
		Text string `json:"text"`
	} `json:"shareCommentary"`
	ShareMediaCategory string     `json:"shareMediaCategory"`
	Media              []ugcMedia `json:"media,omitempty"`
}

type ugcPost struct {
	Author          string `json:"author"`
	LifecycleState  string `json:"lifecycleState"`
	SpecificContent struct {
		ShareContent ugcShareContent `json:"com.linkedin.ugc.ShareContent"`
	} `json:"specificContent"`
	Visibility struct {
		MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
	} `json:"visibility"`
}

func (l *LinkedIn) PostContent(ctx context.Context, content PostContent, creds Credentials) PostResult {
	author, err := l.author(ctx, creds)
	if err != nil {
		return failed(err)
	}

	body := ugcPost{Author: author, LifecycleState: "PUBLISHED"}
	body.Visibility.MemberNetworkVisibility = "PUBLIC"
	share := &body.SpecificContent.ShareContent
	share.ShareCommentary.Text = content.Text
	share.ShareMediaCategory = "NONE"

	if content.MediaType != models.MediaTypeText && len(content.MediaURLs) > 0 {
		recipe, category := "urn:li:digitalmediaRecipe:feedshare-image", "IMAGE"
		if content.MediaType == models.MediaTypeVideo {
			recipe, category = "urn:li:digitalmediaRecipe:feedshare-video", "VIDEO"
		}

		for _, mediaURL := range content.MediaURLs {
			asset, err := l.uploadMedia(ctx, creds.AccessToken, author, recipe, mediaURL)
			if err != nil {
				return failed(err)
			}
			share.Media = append(share.Media, ugcMedia{Status: "READY", Media: asset})
		}
		share.ShareMediaCategory = category
	}

	req, err := l.newRequest(ctx, http.MethodPost, "/ugcPosts", creds.AccessToken, body)
	if err != nil {
		return failed(err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return failed(fmt.Errorf("linkedin request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(fmt.Errorf("error reading LinkedIn response: %w", err))
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return failed(&APIError{Platform: l.Name(), StatusCode: resp.StatusCode, Message: errorMessage(raw)})
	}

	// The id comes back in the body or, for some API versions, only in a header.
	id := resp.Header.Get("X-RestLi-Id")
	if len(raw) > 0 {
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			if id == "" {
				return failed(fmt.Errorf("error parsing LinkedIn response: %w", err))
			}
		} else if created.ID != "" {
			id = created.ID
		}
	}
	if id == "" {
		return failed(fmt.Errorf("LinkedIn did not return a post id"))
	}
	return succeeded(id)
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism struct {
			MediaUpload struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

// uploadMedia registers an upload, copies the media bytes to LinkedIn and
// returns the asset URN to reference in the post body.
func (l *LinkedIn) uploadMedia(ctx context.Context, accessToken, owner, recipe, mediaURL string) (string, error) {
	register := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{recipe},
			"owner":   owner,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}

	req, err := l.newRequest(ctx, http.MethodPost, "/assets?action=registerUpload", accessToken, register)
	if err != nil {
		return "", err
	}

	var reg registerUploadResponse
	if err := doJSON(l.client, l.Name(), req, &reg); err != nil {
		return "", fmt.Errorf("error registering LinkedIn upload: %w", err)
	}
	uploadURL := reg.Value.UploadMechanism.MediaUpload.UploadURL
	if uploadURL == "" || reg.Value.Asset == "" {
		return "", fmt.Errorf("LinkedIn register upload returned no upload url")
	}

	data, contentType, err := download(ctx, l.client, mediaURL)
	if err != nil {
		return "", err
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("error creating LinkedIn upload request: %w", err)
	}
	put.Header.Set("Authorization", "Bearer "+accessToken)
	if contentType != "" {
		put.Header.Set("Content-Type", contentType)
	}
	if err := doJSON(l.client, l.Name(), put, nil); err != nil {
		return "", fmt.Errorf("error uploading media to LinkedIn: %w", err)
	}

	return reg.Value.Asset, nil
}

func (l *LinkedIn) GetPostAnalytics(ctx context.Context, platformPostID string, creds Credentials) (*Analytics, error) {
	req, err := l.newRequest(ctx, http.MethodGet, "/socialActions/"+url.PathEscape(platformPostID), creds.AccessToken, nil)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := doJSON(l.client, l.Name(), req, &raw); err != nil {
		return &Analytics{}, nil
	}

	a := &Analytics{PlatformSpecific: raw}
	if likes, ok := raw["likesSummary"].(map[string]any); ok {
		a.LikesCount = toInt64(likes["totalLikes"])
	}
	if comments, ok := raw["commentsSummary"].(map[string]any); ok {
		a.CommentsCount = toInt64(comments["aggregatedTotalComments"])
	}
	if a.LikesCount == 0 {
		a.LikesCount = toInt64(raw["numLikes"])
	}
	if a.CommentsCount == 0 {
		a.CommentsCount = toInt64(raw["numComments"])
	}
	a.SharesCount = toInt64(raw["numShares"])
	return a, nil
}

func (l *LinkedIn) newRequest(ctx context.Context, method, path, accessToken string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding LinkedIn request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.cfg.APIBaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating LinkedIn request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func tokensFromOAuth2(token *oauth2.Token) *Tokens {
	t := &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		t.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	return t
}
