package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstagramTestServer(t *testing.T, handler http.HandlerFunc) *Instagram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewInstagram(InstagramConfig{
		AppID:           "app",
		AppSecret:       "secret",
		GraphBaseURL:    srv.URL,
		AuthURL:         srv.URL + "/dialog/oauth",
		HTTPClient:      srv.Client(),
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	})
}

func TestInstagramRejectsTextOnly(t *testing.T) {
	var calls atomic.Int32
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	for _, content := range []PostContent{
		{Text: "just words", MediaType: "text"},
		{Text: "no urls", MediaType: "image"},
	} {
		res := ig.PostContent(context.Background(), content, Credentials{AccessToken: "at", AccountID: "ig1"})
		assert.False(t, res.Success)
		assert.Equal(t, "Instagram requires media content (images/videos)", res.Error)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestInstagramPublishImage(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig1/media":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "https://cdn.test/a.jpg", r.PostForm.Get("image_url"))
			assert.Equal(t, "caption", r.PostForm.Get("caption"))
			w.Write([]byte(`{"id":"c1"}`))
		case "/c1":
			w.Write([]byte(`{"status_code":"FINISHED"}`))
		case "/ig1/media_publish":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "c1", r.PostForm.Get("creation_id"))
			w.Write([]byte(`{"id":"m1"}`))
		default:
			http.NotFound(w, r)
		}
	})

	res := ig.PostContent(context.Background(), PostContent{
		Text:      "caption",
		MediaType: "image",
		MediaURLs: []string{"https://cdn.test/a.jpg"},
	}, Credentials{AccessToken: "at", AccountID: "ig1"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "m1", res.PlatformPostID)
}

func TestInstagramPublishReelWaitsForProcessing(t *testing.T) {
	var polls atomic.Int32
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig1/media":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "REELS", r.PostForm.Get("media_type"))
			assert.Equal(t, "https://cdn.test/clip.mp4", r.PostForm.Get("video_url"))
			assert.Equal(t, "watch", r.PostForm.Get("caption"))
			w.Write([]byte(`{"id":"c1"}`))
		case "/c1":
			if polls.Add(1) < 3 {
				w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
				return
			}
			w.Write([]byte(`{"status_code":"FINISHED"}`))
		case "/ig1/media_publish":
			w.Write([]byte(`{"id":"reel1"}`))
		default:
			http.NotFound(w, r)
		}
	})

	res := ig.PostContent(context.Background(), PostContent{
		Text:      "watch",
		MediaType: "video",
		MediaURLs: []string{"https://cdn.test/clip.mp4"},
	}, Credentials{AccessToken: "at", AccountID: "ig1"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "reel1", res.PlatformPostID)
	assert.Equal(t, int32(3), polls.Load())
}

func TestInstagramContainerWaitHonoursDeadline(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig1/media":
			w.Write([]byte(`{"id":"c1"}`))
		default:
			w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
		}
	})
	ig.cfg.PollInterval = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := ig.PostContent(ctx, PostContent{
		MediaType: "video",
		MediaURLs: []string{"https://cdn.test/clip.mp4"},
	}, Credentials{AccessToken: "at", AccountID: "ig1"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "waiting for Instagram media container c1")
}

func TestInstagramPublishCarousel(t *testing.T) {
	var children atomic.Int32
	var parentChildren string
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig1/media":
			assert.NoError(t, r.ParseForm())
			if r.PostForm.Get("media_type") == "CAROUSEL" {
				parentChildren = r.PostForm.Get("children")
				w.Write([]byte(`{"id":"parent"}`))
				return
			}
			assert.Equal(t, "true", r.PostForm.Get("is_carousel_item"))
			if children.Add(1) == 1 {
				w.Write([]byte(`{"id":"child1"}`))
			} else {
				assert.Equal(t, "VIDEO", r.PostForm.Get("media_type"))
				w.Write([]byte(`{"id":"child2"}`))
			}
		case "/ig1/media_publish":
			w.Write([]byte(`{"id":"m2"}`))
		default:
			w.Write([]byte(`{"status_code":"FINISHED"}`))
		}
	})

	res := ig.PostContent(context.Background(), PostContent{
		Text:      "two",
		MediaType: "carousel",
		MediaURLs: []string{"https://cdn.test/a.jpg", "https://cdn.test/b.mp4"},
	}, Credentials{AccessToken: "at", AccountID: "ig1"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "child1,child2", parentChildren)
}

func TestInstagramContainerError(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig1/media":
			w.Write([]byte(`{"id":"c1"}`))
		case "/c1":
			w.Write([]byte(`{"status_code":"ERROR"}`))
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	})

	res := ig.PostContent(context.Background(), PostContent{
		MediaType: "video",
		MediaURLs: []string{"https://cdn.test/a.mp4"},
	}, Credentials{AccessToken: "at", AccountID: "ig1"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "ERROR")
}

func TestInstagramResolvesBusinessAccount(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/accounts":
			w.Write([]byte(`{"data":[{"id":"p1","name":"Page"},{"id":"p2","instagram_business_account":{"id":"ig9"}}]}`))
		case "/ig9/media":
			w.Write([]byte(`{"id":"c9"}`))
		case "/c9":
			w.Write([]byte(`{"status_code":"FINISHED"}`))
		case "/ig9/media_publish":
			w.Write([]byte(`{"id":"m9"}`))
		default:
			http.NotFound(w, r)
		}
	})

	res := ig.PostContent(context.Background(), PostContent{
		MediaType: "image",
		MediaURLs: []string{"https://cdn.test/a.jpg"},
	}, Credentials{AccessToken: "at"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "m9", res.PlatformPostID)
}

func TestInstagramUserInfoWithoutBusinessAccount(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			w.Write([]byte(`{"id":"fb1","name":"Ada"}`))
		case "/me/accounts":
			w.Write([]byte(`{"data":[]}`))
		}
	})

	_, err := ig.GetUserInfo(context.Background(), Credentials{AccessToken: "at"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBusinessAccount))
}

func TestInstagramExchangeAndRefresh(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"access_token":"short","token_type":"bearer"}`))
			return
		}
		assert.Equal(t, "fb_exchange_token", r.URL.Query().Get("grant_type"))
		w.Write([]byte(`{"access_token":"long-` + r.URL.Query().Get("fb_exchange_token") + `"}`))
	})

	tokens, err := ig.ExchangeCodeForTokens(context.Background(), AuthGrant{Code: "code", RedirectURI: "https://app.test/cb"})
	require.NoError(t, err)
	assert.Equal(t, "long-short", tokens.AccessToken)
	assert.Equal(t, int64(instagramLongLivedTTL), tokens.ExpiresIn)

	refreshed, err := ig.RefreshToken(context.Background(), "long-short")
	require.NoError(t, err)
	assert.Equal(t, "long-long-short", refreshed.AccessToken)
}

func TestInstagramValidateToken(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Error validating access token","code":190}}`))
	})

	assert.False(t, ig.ValidateToken(context.Background(), Credentials{AccessToken: "expired"}))
}

func TestInstagramAnalyticsFallback(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/m1/insights":
			w.WriteHeader(http.StatusBadRequest)
		case "/m1":
			w.Write([]byte(`{"like_count":7,"comments_count":3,"id":"m1"}`))
		}
	})

	a, err := ig.GetPostAnalytics(context.Background(), "m1", Credentials{AccessToken: "at"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.LikesCount)
	assert.Equal(t, int64(3), a.CommentsCount)
}

func TestInstagramAnalyticsInsights(t *testing.T) {
	ig := newInstagramTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"name":"impressions","values":[{"value":120}]},{"name":"reach","values":[{"value":90}]},{"name":"likes","values":[{"value":12}]}]}`))
	})

	a, err := ig.GetPostAnalytics(context.Background(), "m1", Credentials{AccessToken: "at"})
	require.NoError(t, err)
	assert.Equal(t, int64(120), a.Impressions)
	assert.Equal(t, int64(90), a.Reach)
	assert.Equal(t, int64(12), a.LikesCount)
}
