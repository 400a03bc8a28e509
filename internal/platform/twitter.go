package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/dghubble/oauth1"
	"github.com/maheshrc27/socialflow/internal/models"
)

const (
	twitterAPIBase         = "https://api.twitter.com"
	twitterUploadURL       = "https://upload.twitter.com/1.1/media/upload.json"
	twitterRequestTokenURL = "https://api.twitter.com/oauth/request_token"
	twitterAuthorizeURL    = "https://api.twitter.com/oauth/authorize"
	twitterAccessTokenURL  = "https://api.twitter.com/oauth/access_token"

	// MaxTwitterMedia is the number of attachments a tweet accepts. Extra
	// media URLs are dropped.
	MaxTwitterMedia = 4
)

type TwitterConfig struct {
	APIKey          string
	APISecret       string
	APIBaseURL      string
	UploadURL       string
	RequestTokenURL string
	AuthorizeURL    string
	AccessTokenURL  string
	HTTPClient      *http.Client
}

type Twitter struct {
	cfg    TwitterConfig
	client *http.Client
}

func NewTwitter(cfg TwitterConfig) *Twitter {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = twitterAPIBase
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = twitterUploadURL
	}
	if cfg.RequestTokenURL == "" {
		cfg.RequestTokenURL = twitterRequestTokenURL
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = twitterAuthorizeURL
	}
	if cfg.AccessTokenURL == "" {
		cfg.AccessTokenURL = twitterAccessTokenURL
	}
	return &Twitter{cfg: cfg, client: defaultClient(cfg.HTTPClient)}
}

func (t *Twitter) Name() string {
	return models.PlatformTwitter
}

func (t *Twitter) oauthConfig(callbackURL string) *oauth1.Config {
	return &oauth1.Config{
		ConsumerKey:    t.cfg.APIKey,
		ConsumerSecret: t.cfg.APISecret,
		CallbackURL:    callbackURL,
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: t.cfg.RequestTokenURL,
			AuthorizeURL:    t.cfg.AuthorizeURL,
			AccessTokenURL:  t.cfg.AccessTokenURL,
		},
		HTTPClient: t.client,
	}
}

// signedClient returns an http.Client that signs every request with the
// account's OAuth 1.0a token.
func (t *Twitter) signedClient(ctx context.Context, creds Credentials) *http.Client {
	ctx = context.WithValue(ctx, oauth1.HTTPClient, t.client)
	client := t.oauthConfig("").Client(ctx, oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret))
	client.Timeout = t.client.Timeout
	return client
}

// GetOAuthURL obtains a request token and returns the authorize URL. OAuth 1.0a
// has no state parameter, so the state rides along on the callback URL.
func (t *Twitter) GetOAuthURL(ctx context.Context, redirectURI, state string) (string, error) {
	callback, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	q := callback.Query()
	q.Set("state", state)
	callback.RawQuery = q.Encode()

	conf := t.oauthConfig(callback.String())
	requestToken, _, err := conf.RequestToken()
	if err != nil {
		return "", fmt.Errorf("error obtaining Twitter request token: %w", err)
	}

	authURL, err := conf.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("error building Twitter authorization url: %w", err)
	}
	return authURL.String(), nil
}

func (t *Twitter) ExchangeCodeForTokens(ctx context.Context, grant AuthGrant) (*Tokens, error) {
	if grant.OAuthToken == "" || grant.OAuthVerifier == "" {
		return nil, &AuthExchangeError{Platform: t.Name(), Err: fmt.Errorf("missing oauth_token or oauth_verifier")}
	}

	accessToken, accessSecret, err := t.oauthConfig("").AccessToken(grant.OAuthToken, "", grant.OAuthVerifier)
	if err != nil {
		return nil, &AuthExchangeError{Platform: t.Name(), Err: err}
	}

	return &Tokens{AccessToken: accessToken, AccessTokenSecret: accessSecret}, nil
}

type twitterUser struct {
	IDStr                string `json:"id_str"`
	ScreenName           string `json:"screen_name"`
	Name                 string `json:"name"`
	ProfileImageURLHTTPS string `json:"profile_image_url_https"`
}

func (t *Twitter) verifyCredentials(ctx context.Context, creds Credentials) (*twitterUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.APIBaseURL+"/1.1/account/verify_credentials.json", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Twitter request: %w", err)
	}

	var u twitterUser
	if err := doJSON(t.signedClient(ctx, creds), t.Name(), req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *Twitter) GetUserInfo(ctx context.Context, creds Credentials) (*UserInfo, error) {
	u, err := t.verifyCredentials(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("error fetching Twitter user: %w", err)
	}
	return &UserInfo{
		ID:             u.IDStr,
		Username:       u.ScreenName,
		Name:           u.Name,
		ProfilePicture: u.ProfileImageURLHTTPS,
		AccountType:    models.AccountTypePersonal,
	}, nil
}

func (t *Twitter) ValidateToken(ctx context.Context, creds Credentials) bool {
	if creds.AccessToken == "" || creds.AccessTokenSecret == "" {
		return false
	}
	_, err := t.verifyCredentials(ctx, creds)
	return err == nil
}

func (t *Twitter) PostContent(ctx context.Context, content PostContent, creds Credentials) PostResult {
	client := t.signedClient(ctx, creds)

	var mediaIDs []string
	if content.MediaType != models.MediaTypeText {
		urls := content.MediaURLs
		if len(urls) > MaxTwitterMedia {
			urls = urls[:MaxTwitterMedia]
		}
		for _, mediaURL := range urls {
			id, err := t.uploadMedia(ctx, client, mediaURL)
			if err != nil {
				return failed(err)
			}
			mediaIDs = append(mediaIDs, id)
		}
	}

	payload := map[string]any{"text": content.Text}
	if len(mediaIDs) > 0 {
		payload["media"] = map[string]any{"media_ids": mediaIDs}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return failed(fmt.Errorf("error encoding tweet: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.APIBaseURL+"/2/tweets", bytes.NewReader(data))
	if err != nil {
		return failed(fmt.Errorf("error creating Twitter request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	var created struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := doJSON(client, t.Name(), req, &created); err != nil {
		return failed(err)
	}
	if created.Data.ID == "" {
		return failed(fmt.Errorf("Twitter did not return a tweet id"))
	}
	return succeeded(created.Data.ID)
}

func (t *Twitter) uploadMedia(ctx context.Context, client *http.Client, mediaURL string) (string, error) {
	data, _, err := download(ctx, t.client, mediaURL)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("media", "media")
	if err != nil {
		return "", fmt.Errorf("error creating Twitter upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("error writing Twitter upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("error closing Twitter upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.UploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("error creating Twitter upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var uploaded struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := doJSON(client, t.Name(), req, &uploaded); err != nil {
		return "", fmt.Errorf("error uploading media to Twitter: %w", err)
	}
	if uploaded.MediaIDString == "" {
		return "", fmt.Errorf("Twitter upload returned no media id")
	}
	return uploaded.MediaIDString, nil
}

func (t *Twitter) GetPostAnalytics(ctx context.Context, platformPostID string, creds Credentials) (*Analytics, error) {
	endpoint := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=public_metrics", t.cfg.APIBaseURL, url.PathEscape(platformPostID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Twitter request: %w", err)
	}

	var resp struct {
		Data struct {
			PublicMetrics map[string]any `json:"public_metrics"`
		} `json:"data"`
	}
	if err := doJSON(t.signedClient(ctx, creds), t.Name(), req, &resp); err != nil {
		return &Analytics{}, nil
	}

	m := resp.Data.PublicMetrics
	return &Analytics{
		LikesCount:       toInt64(m["like_count"]),
		CommentsCount:    toInt64(m["reply_count"]),
		SharesCount:      toInt64(m["retweet_count"]) + toInt64(m["quote_count"]),
		Impressions:      toInt64(m["impression_count"]),
		PlatformSpecific: m,
	}, nil
}
