package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeKeys struct {
	keys    map[int64]*models.ApiKey
	nextID  int64
	touched []int64
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{keys: map[int64]*models.ApiKey{}}
}

func (f *fakeKeys) GetByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	for _, k := range f.keys {
		if k.KeyHash == keyHash {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeKeys) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	var out []*models.ApiKey
	for id := int64(1); id <= f.nextID; id++ {
		if k, ok := f.keys[id]; ok && k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKeys) CountByUserID(ctx context.Context, userID int64) (int, error) {
	keys, _ := f.ListByUserID(ctx, userID)
	return len(keys), nil
}

func (f *fakeKeys) Create(ctx context.Context, apiKey *models.ApiKey) (int64, error) {
	f.nextID++
	apiKey.ID = f.nextID
	cp := *apiKey
	f.keys[apiKey.ID] = &cp
	return apiKey.ID, nil
}

func (f *fakeKeys) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeKeys) Remove(ctx context.Context, id, userID int64) (bool, error) {
	k, ok := f.keys[id]
	if !ok || k.UserID != userID {
		return false, nil
	}
	delete(f.keys, id)
	return true, nil
}

func TestApiKeyLifecycle(t *testing.T) {
	keys := newFakeKeys()
	svc := NewApiKeyService(keys)
	ctx := context.Background()

	created, err := svc.Create(ctx, 4)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Key, created.Prefix))
	assert.NotEqual(t, created.Key, keys.keys[created.ID].KeyHash)
	assert.Empty(t, keys.keys[created.ID].Key, "full key is never stored")

	userID, err := svc.GetUserID(ctx, created.Key)
	require.NoError(t, err)
	assert.Equal(t, int64(4), userID)
	assert.Equal(t, []int64{created.ID}, keys.touched)

	_, err = svc.GetUserID(ctx, "sf_unknown")
	assert.ErrorIs(t, err, ErrUnknownApiKey)

	err = svc.RemoveAPIKey(ctx, 5, created.ID)
	assert.ErrorIs(t, err, ErrNotFound, "other users cannot remove the key")

	require.NoError(t, svc.RemoveAPIKey(ctx, 4, created.ID))
	_, err = svc.GetUserID(ctx, created.Key)
	assert.ErrorIs(t, err, ErrUnknownApiKey)

	var vErr *ValidationError
	assert.True(t, errors.As(svc.RemoveAPIKey(ctx, 4, 0), &vErr))
}

func TestApiKeyLimit(t *testing.T) {
	svc := NewApiKeyService(newFakeKeys())
	ctx := context.Background()

	for i := 0; i < MaxApiKeys; i++ {
		_, err := svc.Create(ctx, 1)
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, 1)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Only 5 API Keys can be created.", vErr.Message)

	_, err = svc.Create(ctx, 2)
	assert.NoError(t, err)
}

type fakeUsers struct {
	users   map[int64]*models.User
	nextID  int64
	linked  map[int64]string
	removed []int64
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[int64]*models.User{}, linked: map[int64]string{}}
	for _, u := range users {
		f.users[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) (int64, error) {
	f.nextID++
	user.ID = f.nextID
	user.IsActive = true
	f.users[user.ID] = user
	return user.ID, nil
}

func (f *fakeUsers) LinkGoogle(ctx context.Context, id int64, googleID, picture string) error {
	f.linked[id] = googleID
	return nil
}

func (f *fakeUsers) Remove(ctx context.Context, id int64) error {
	f.removed = append(f.removed, id)
	delete(f.users, id)
	return nil
}

func TestRemoveUserDeletesStoredTokens(t *testing.T) {
	store := newMemoryStore()
	store.values["social-tokens/linkedin/3/a"] = `{"access_token":"x"}`
	store.values["social-tokens/twitter/3/b"] = `{"access_token":"y"}`
	store.values["social-tokens/twitter/4/c"] = `{"access_token":"z"}`

	first := activeAccount(1, 3, models.PlatformLinkedIn)
	first.TokenSecretRef = "social-tokens/linkedin/3/a"
	second := activeAccount(2, 3, models.PlatformTwitter)
	second.TokenSecretRef = "social-tokens/twitter/3/b"
	second.IsActive = false
	other := activeAccount(3, 4, models.PlatformTwitter)
	other.TokenSecretRef = "social-tokens/twitter/4/c"

	users := newFakeUsers(&models.User{ID: 3, Email: "a@example.com", IsActive: true})
	svc := NewUserService(users, newFakeAccounts(first, second, other), store)

	require.NoError(t, svc.RemoveUser(context.Background(), 3))
	assert.Equal(t, []int64{3}, users.removed)
	assert.Equal(t, map[string]string{"social-tokens/twitter/4/c": `{"access_token":"z"}`}, store.values)

	_, err := svc.GetUserInfo(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func newGoogleServer(t *testing.T, email string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			w.Write([]byte(`{"access_token":"g-at","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			assert.Equal(t, "Bearer g-at", r.Header.Get("Authorization"))
			w.Write([]byte(`{"id":"g-1","email":"` + email + `","name":"Sam","picture":"https://img/p.png"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAuthService(srv *httptest.Server, users *fakeUsers) *authService {
	svc := NewAuthService(config.Config{
		GoogleClientID:     "cid",
		GoogleClientSecret: "secret",
		GoogleRedirectURI:  "http://localhost:3000/login/callback",
	}, users).(*authService)
	svc.endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	svc.userInfoURL = srv.URL + "/userinfo"
	return svc
}

func TestLoginCallback(t *testing.T) {
	t.Run("creates a new user", func(t *testing.T) {
		users := newFakeUsers()
		svc := newTestAuthService(newGoogleServer(t, "new@example.com"), users)

		id, err := svc.LoginCallback(context.Background(), "code-1")
		require.NoError(t, err)
		require.Contains(t, users.users, id)
		assert.Equal(t, "g-1", users.users[id].GoogleID)
		assert.Equal(t, "Sam", users.users[id].Name)
	})

	t.Run("links an existing user", func(t *testing.T) {
		users := newFakeUsers(&models.User{ID: 9, Email: "old@example.com", IsActive: true})
		svc := newTestAuthService(newGoogleServer(t, "old@example.com"), users)

		id, err := svc.LoginCallback(context.Background(), "code-1")
		require.NoError(t, err)
		assert.Equal(t, int64(9), id)
		assert.Equal(t, "g-1", users.linked[9])
	})

	t.Run("rejects a disabled user", func(t *testing.T) {
		users := newFakeUsers(&models.User{ID: 9, Email: "off@example.com", GoogleID: "g-1"})
		svc := newTestAuthService(newGoogleServer(t, "off@example.com"), users)

		_, err := svc.LoginCallback(context.Background(), "code-1")
		var vErr *ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("requires a code", func(t *testing.T) {
		svc := newTestAuthService(newGoogleServer(t, "x@example.com"), newFakeUsers())

		_, err := svc.LoginCallback(context.Background(), "")
		var vErr *ValidationError
		assert.True(t, errors.As(err, &vErr))
	})
}

func TestLoginURL(t *testing.T) {
	svc := newTestAuthService(newGoogleServer(t, "x@example.com"), newFakeUsers())

	u := svc.LoginURL("state-1")
	assert.True(t, strings.HasPrefix(u, svc.endpoint.AuthURL+"?"))
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "access_type=offline")
}
