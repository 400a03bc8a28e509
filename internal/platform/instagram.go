package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"golang.org/x/oauth2"
)

const (
	instagramGraphBase = "https://graph.facebook.com/v18.0"
	instagramAuthURL   = "https://www.facebook.com/v18.0/dialog/oauth"

	// Long-lived Facebook tokens last 60 days when the exchange omits expires_in.
	instagramLongLivedTTL = 60 * 24 * 60 * 60
)

var instagramScopes = []string{
	"instagram_basic",
	"instagram_content_publish",
	"instagram_manage_insights",
	"pages_show_list",
	"pages_read_engagement",
}

type InstagramConfig struct {
	AppID        string
	AppSecret    string
	GraphBaseURL string
	AuthURL      string
	HTTPClient   *http.Client
	// PollInterval and MaxPollAttempts bound the wait for a media container
	// to finish processing before it can be published.
	PollInterval    time.Duration
	MaxPollAttempts int
}

type Instagram struct {
	cfg    InstagramConfig
	client *http.Client
}

func NewInstagram(cfg InstagramConfig) *Instagram {
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = instagramGraphBase
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = instagramAuthURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 30
	}
	return &Instagram{cfg: cfg, client: defaultClient(cfg.HTTPClient)}
}

func (i *Instagram) Name() string {
	return models.PlatformInstagram
}

func (i *Instagram) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     i.cfg.AppID,
		ClientSecret: i.cfg.AppSecret,
		RedirectURL:  redirectURI,
		Scopes:       instagramScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   i.cfg.AuthURL,
			TokenURL:  i.cfg.GraphBaseURL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (i *Instagram) GetOAuthURL(ctx context.Context, redirectURI, state string) (string, error) {
	return i.oauthConfig(redirectURI).AuthCodeURL(state), nil
}

// ExchangeCodeForTokens trades the code for a short-lived token and then
// immediately for a long-lived one.
func (i *Instagram) ExchangeCodeForTokens(ctx context.Context, grant AuthGrant) (*Tokens, error) {
	if grant.Code == "" {
		return nil, &AuthExchangeError{Platform: i.Name(), Err: fmt.Errorf("missing authorization code")}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, i.client)
	token, err := i.oauthConfig(grant.RedirectURI).Exchange(ctx, grant.Code)
	if err != nil {
		return nil, &AuthExchangeError{Platform: i.Name(), Err: err}
	}

	long, err := i.longLivedToken(ctx, token.AccessToken)
	if err != nil {
		return nil, &AuthExchangeError{Platform: i.Name(), Err: err}
	}
	return long, nil
}

// RefreshToken renews a long-lived token before it expires.
func (i *Instagram) RefreshToken(ctx context.Context, accessToken string) (*Tokens, error) {
	return i.longLivedToken(ctx, accessToken)
}

func (i *Instagram) longLivedToken(ctx context.Context, accessToken string) (*Tokens, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", i.cfg.AppID)
	params.Set("client_secret", i.cfg.AppSecret)
	params.Set("fb_exchange_token", accessToken)

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := i.get(ctx, "/oauth/access_token", params, &resp); err != nil {
		return nil, fmt.Errorf("error exchanging for long-lived token: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("long-lived token exchange returned no token")
	}
	if resp.ExpiresIn == 0 {
		resp.ExpiresIn = instagramLongLivedTTL
	}
	return &Tokens{AccessToken: resp.AccessToken, ExpiresIn: resp.ExpiresIn}, nil
}

func (i *Instagram) businessAccountID(ctx context.Context, accessToken string) (string, error) {
	params := url.Values{}
	params.Set("fields", "instagram_business_account,name")
	params.Set("access_token", accessToken)

	var pages struct {
		Data []struct {
			ID                       string `json:"id"`
			Name                     string `json:"name"`
			InstagramBusinessAccount *struct {
				ID string `json:"id"`
			} `json:"instagram_business_account"`
		} `json:"data"`
	}
	if err := i.get(ctx, "/me/accounts", params, &pages); err != nil {
		return "", fmt.Errorf("error listing Facebook pages: %w", err)
	}

	for _, page := range pages.Data {
		if page.InstagramBusinessAccount != nil && page.InstagramBusinessAccount.ID != "" {
			return page.InstagramBusinessAccount.ID, nil
		}
	}
	return "", ErrNoBusinessAccount
}

func (i *Instagram) GetUserInfo(ctx context.Context, creds Credentials) (*UserInfo, error) {
	params := url.Values{}
	params.Set("fields", "id,name")
	params.Set("access_token", creds.AccessToken)

	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := i.get(ctx, "/me", params, &me); err != nil {
		return nil, fmt.Errorf("error fetching Facebook profile: %w", err)
	}

	igID, err := i.businessAccountID(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	params = url.Values{}
	params.Set("fields", "username,profile_picture_url")
	params.Set("access_token", creds.AccessToken)
	var ig struct {
		Username          string `json:"username"`
		ProfilePictureURL string `json:"profile_picture_url"`
	}
	if err := i.get(ctx, "/"+igID, params, &ig); err != nil {
		ig.Username = me.Name
	}

	return &UserInfo{
		ID:             igID,
		Username:       ig.Username,
		Name:           me.Name,
		ProfilePicture: ig.ProfilePictureURL,
		AccountType:    models.AccountTypeBusiness,
	}, nil
}

func (i *Instagram) ValidateToken(ctx context.Context, creds Credentials) bool {
	if creds.AccessToken == "" {
		return false
	}
	params := url.Values{}
	params.Set("fields", "id")
	params.Set("access_token", creds.AccessToken)
	return i.get(ctx, "/me", params, nil) == nil
}

func (i *Instagram) PostContent(ctx context.Context, content PostContent, creds Credentials) PostResult {
	if content.MediaType == models.MediaTypeText || len(content.MediaURLs) == 0 {
		return failed(ErrMediaRequired)
	}

	igID := creds.AccountID
	if igID == "" {
		id, err := i.businessAccountID(ctx, creds.AccessToken)
		if err != nil {
			return failed(err)
		}
		igID = id
	}

	var containerID string
	var err error
	switch {
	case content.MediaType == models.MediaTypeCarousel || len(content.MediaURLs) > 1:
		containerID, err = i.createCarousel(ctx, igID, content, creds.AccessToken)
	case content.MediaType == models.MediaTypeVideo:
		containerID, err = i.createContainer(ctx, igID, creds.AccessToken, url.Values{
			"media_type": {"REELS"},
			"video_url":  {content.MediaURLs[0]},
			"caption":    {content.Text},
		})
	default:
		containerID, err = i.createContainer(ctx, igID, creds.AccessToken, url.Values{
			"image_url": {content.MediaURLs[0]},
			"caption":   {content.Text},
		})
	}
	if err != nil {
		return failed(err)
	}

	if err := i.waitForContainer(ctx, containerID, creds.AccessToken); err != nil {
		return failed(err)
	}

	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", creds.AccessToken)

	var published struct {
		ID string `json:"id"`
	}
	if err := i.post(ctx, "/"+igID+"/media_publish", form, &published); err != nil {
		return failed(fmt.Errorf("error publishing Instagram media: %w", err))
	}
	if published.ID == "" {
		return failed(fmt.Errorf("Instagram did not return a media id"))
	}
	return succeeded(published.ID)
}

func (i *Instagram) createCarousel(ctx context.Context, igID string, content PostContent, accessToken string) (string, error) {
	children := make([]string, 0, len(content.MediaURLs))
	for _, mediaURL := range content.MediaURLs {
		form := url.Values{"is_carousel_item": {"true"}}
		if isVideoURL(mediaURL) {
			form.Set("media_type", "VIDEO")
			form.Set("video_url", mediaURL)
		} else {
			form.Set("image_url", mediaURL)
		}

		id, err := i.createContainer(ctx, igID, accessToken, form)
		if err != nil {
			return "", err
		}
		if err := i.waitForContainer(ctx, id, accessToken); err != nil {
			return "", err
		}
		children = append(children, id)
	}

	return i.createContainer(ctx, igID, accessToken, url.Values{
		"media_type": {"CAROUSEL"},
		"children":   {strings.Join(children, ",")},
		"caption":    {content.Text},
	})
}

func (i *Instagram) createContainer(ctx context.Context, igID, accessToken string, form url.Values) (string, error) {
	form.Set("access_token", accessToken)

	var container struct {
		ID string `json:"id"`
	}
	if err := i.post(ctx, "/"+igID+"/media", form, &container); err != nil {
		return "", fmt.Errorf("error creating Instagram media container: %w", err)
	}
	if container.ID == "" {
		return "", fmt.Errorf("Instagram did not return a container id")
	}
	return container.ID, nil
}

func (i *Instagram) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	params := url.Values{}
	params.Set("fields", "status_code")
	params.Set("access_token", accessToken)

	for attempt := 0; attempt < i.cfg.MaxPollAttempts; attempt++ {
		var status struct {
			StatusCode string `json:"status_code"`
		}
		if err := i.get(ctx, "/"+containerID, params, &status); err != nil {
			return fmt.Errorf("error checking Instagram container status: %w", err)
		}

		switch status.StatusCode {
		case "FINISHED", "":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("Instagram media container %s ended with status %s", containerID, status.StatusCode)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for Instagram media container %s: %w", containerID, ctx.Err())
		case <-time.After(i.cfg.PollInterval):
		}
	}
	return fmt.Errorf("Instagram media container %s was not ready in time", containerID)
}

func (i *Instagram) GetPostAnalytics(ctx context.Context, platformPostID string, creds Credentials) (*Analytics, error) {
	params := url.Values{}
	params.Set("metric", "impressions,reach,likes,comments,shares,saved")
	params.Set("access_token", creds.AccessToken)

	var insights struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value any `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := i.get(ctx, "/"+platformPostID+"/insights", params, &insights); err == nil && len(insights.Data) > 0 {
		metrics := make(map[string]any, len(insights.Data))
		for _, d := range insights.Data {
			if len(d.Values) > 0 {
				metrics[d.Name] = d.Values[0].Value
			}
		}
		return &Analytics{
			LikesCount:       toInt64(metrics["likes"]),
			CommentsCount:    toInt64(metrics["comments"]),
			SharesCount:      toInt64(metrics["shares"]),
			Impressions:      toInt64(metrics["impressions"]),
			Reach:            toInt64(metrics["reach"]),
			PlatformSpecific: metrics,
		}, nil
	}

	// Insights need extra scopes; fall back to the counters on the media object.
	params = url.Values{}
	params.Set("fields", "like_count,comments_count")
	params.Set("access_token", creds.AccessToken)

	var media map[string]any
	if err := i.get(ctx, "/"+platformPostID, params, &media); err != nil {
		return &Analytics{}, nil
	}
	return &Analytics{
		LikesCount:       toInt64(media["like_count"]),
		CommentsCount:    toInt64(media["comments_count"]),
		PlatformSpecific: media,
	}, nil
}

func (i *Instagram) get(ctx context.Context, p string, params url.Values, out any) error {
	endpoint := i.cfg.GraphBaseURL + p
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating Instagram request: %w", err)
	}
	return doJSON(i.client, i.Name(), req, out)
}

func (i *Instagram) post(ctx context.Context, p string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.cfg.GraphBaseURL+p, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error creating Instagram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doJSON(i.client, i.Name(), req, out)
}

func isVideoURL(mediaURL string) bool {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".mp4", ".mov", ".m4v":
		return true
	}
	return false
}
