package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/platform"
	"github.com/maheshrc27/socialflow/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyticsFixture(t *testing.T) (AnalyticsService, *fakePosts, *fakeAnalytics, int64) {
	t.Helper()
	ctx := context.Background()

	account := activeAccount(1, 7, models.PlatformTwitter)
	store := newMemoryStore()
	store.values[account.TokenSecretRef] = `{"access_token":"at","access_token_secret":"ats"}`

	adapter := &fakeAdapter{
		name: models.PlatformTwitter,
		analytics: &platform.Analytics{
			LikesCount:       12,
			SharesCount:      3,
			PlatformSpecific: map[string]any{"quote_count": int64(1)},
		},
	}

	posts := newFakePosts()
	id, err := posts.Create(ctx, nil, &models.Post{UserID: 7, SocialAccountID: 1, ContentText: "x"})
	require.NoError(t, err)

	an := newFakeAnalytics()
	svc := NewAnalyticsService(posts, newFakeAccounts(account), an,
		platform.NewRegistry(adapter), secrets.NewResolver(store, secrets.DefaultPrefix), time.Second)
	return svc, posts, an, id
}

func TestAnalyticsRequiresPostedPost(t *testing.T) {
	svc, _, _, id := newAnalyticsFixture(t)

	_, err := svc.Get(context.Background(), 7, id)
	assert.ErrorIs(t, err, ErrNotFound)

	a, err := svc.Collect(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAnalyticsNotYetCollected(t *testing.T) {
	svc, posts, _, id := newAnalyticsFixture(t)
	ctx := context.Background()
	require.NoError(t, posts.MarkPosted(ctx, id, "tw-1", time.Now()))

	resp, err := svc.Get(ctx, 7, id)
	require.NoError(t, err)
	assert.Equal(t, "tw-1", resp.PlatformPostID)
	assert.Equal(t, "Analytics not yet collected for this post", resp.Message)
	assert.Nil(t, resp.LikesCount)
}

func TestAnalyticsRefreshStoresCounters(t *testing.T) {
	svc, posts, an, id := newAnalyticsFixture(t)
	ctx := context.Background()
	require.NoError(t, posts.MarkPosted(ctx, id, "tw-1", time.Now()))

	resp, err := svc.Refresh(ctx, 7, id)
	require.NoError(t, err)
	require.NotNil(t, resp.LikesCount)
	assert.Equal(t, int64(12), *resp.LikesCount)
	assert.Equal(t, int64(3), *resp.SharesCount)
	require.Contains(t, an.rows, id)

	cached, err := svc.Get(ctx, 7, id)
	require.NoError(t, err)
	assert.Empty(t, cached.Message)
	assert.Equal(t, int64(12), *cached.LikesCount)

	_, err = svc.Refresh(ctx, 8, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
