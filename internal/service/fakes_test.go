package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/platform"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/secrets"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

type fakePosts struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*models.Post
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: map[int64]*models.Post{}}
}

func (f *fakePosts) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	post.ID = f.nextID
	post.Status = models.PostStatusScheduled
	cp := *post
	f.posts[post.ID] = &cp
	return post.ID, nil
}

func (f *fakePosts) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePosts) GetForUser(ctx context.Context, id, userID int64) (*models.Post, error) {
	p, _ := f.GetByID(ctx, id)
	if p == nil || p.UserID != userID {
		return nil, nil
	}
	return p, nil
}

func (f *fakePosts) GetDue(ctx context.Context, buffer time.Duration) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePosts) ListForUser(ctx context.Context, userID int64, status string, limit int) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Post
	for id := int64(1); id <= f.nextID; id++ {
		p, ok := f.posts[id]
		if !ok || p.UserID != userID || (status != "" && p.Status != status) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakePosts) transition(id int64, apply func(p *models.Post)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok || p.Status != models.PostStatusScheduled {
		return repository.ErrNotScheduled
	}
	apply(p)
	return nil
}

func (f *fakePosts) MarkPosted(ctx context.Context, id int64, platformPostID string, postedAt time.Time) error {
	return f.transition(id, func(p *models.Post) {
		p.Status = models.PostStatusPosted
		p.PlatformPostID = &platformPostID
		p.PostedAt = &postedAt
	})
}

func (f *fakePosts) MarkFailed(ctx context.Context, id int64, message string) error {
	return f.transition(id, func(p *models.Post) {
		p.Status = models.PostStatusFailed
		p.ErrorMessage = &message
	})
}

func (f *fakePosts) MarkCancelled(ctx context.Context, id int64) error {
	return f.transition(id, func(p *models.Post) { p.Status = models.PostStatusCancelled })
}

func (f *fakePosts) Cancel(ctx context.Context, postID, userID int64) (bool, error) {
	f.mu.Lock()
	p, ok := f.posts[postID]
	f.mu.Unlock()
	if !ok || p.UserID != userID {
		return false, nil
	}
	return f.MarkCancelled(ctx, postID) == nil, nil
}

type fakeAccounts struct {
	mu          sync.Mutex
	accounts    map[int64]*models.SocialAccount
	deactivated []int64
}

func newFakeAccounts(accounts ...*models.SocialAccount) *fakeAccounts {
	f := &fakeAccounts{accounts: map[int64]*models.SocialAccount{}}
	for _, a := range accounts {
		f.accounts[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UserID == sa.UserID && a.Platform == sa.Platform && a.PlatformUserID == sa.PlatformUserID {
			sa.ID = a.ID
		}
	}
	if sa.ID == 0 {
		sa.ID = int64(len(f.accounts) + 1)
	}
	if sa.AccountType == "" {
		sa.AccountType = models.AccountTypePersonal
	}
	sa.IsActive = true
	cp := *sa
	f.accounts[sa.ID] = &cp
	return sa.ID, nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetForUser(ctx context.Context, id, userID int64) (*models.SocialAccount, error) {
	a, _ := f.GetByID(ctx, id)
	if a == nil || a.UserID != userID {
		return nil, nil
	}
	return a, nil
}

func (f *fakeAccounts) ListByUserID(ctx context.Context, userID int64, activeOnly bool) ([]*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SocialAccount
	for id := int64(1); id <= int64(len(f.accounts)); id++ {
		a, ok := f.accounts[id]
		if !ok || a.UserID != userID || (activeOnly && !a.IsActive) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAccounts) ListExpiring(ctx context.Context, platformName string, before time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeAccounts) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	a, _ := f.GetForUser(ctx, accountID, userID)
	return a != nil && a.IsActive, nil
}

func (f *fakeAccounts) SetToken(ctx context.Context, id int64, secretRef string, expiresAt *time.Time) error {
	return nil
}

func (f *fakeAccounts) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	return nil
}

func (f *fakeAccounts) Deactivate(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.IsActive = false
	}
	f.deactivated = append(f.deactivated, id)
	return nil
}

type fakeAnalytics struct {
	rows map[int64]*models.PostAnalytics
}

func newFakeAnalytics() *fakeAnalytics {
	return &fakeAnalytics{rows: map[int64]*models.PostAnalytics{}}
}

func (f *fakeAnalytics) Upsert(ctx context.Context, a *models.PostAnalytics) error {
	a.ID = a.PostID
	cp := *a
	f.rows[a.PostID] = &cp
	return nil
}

func (f *fakeAnalytics) GetByPostID(ctx context.Context, postID int64) (*models.PostAnalytics, error) {
	return f.rows[postID], nil
}

type fakeStates struct {
	states map[string]*transfer.OAuthState
}

func newFakeStates() *fakeStates {
	return &fakeStates{states: map[string]*transfer.OAuthState{}}
}

func (f *fakeStates) Save(ctx context.Context, state string, data *transfer.OAuthState, ttl time.Duration) error {
	f.states[state] = data
	return nil
}

func (f *fakeStates) Consume(ctx context.Context, state string) (*transfer.OAuthState, error) {
	data := f.states[state]
	delete(f.states, state)
	return data, nil
}

type fakeMediaAssets struct {
	assets map[int64]*models.MediaAsset
}

func newFakeMediaAssets() *fakeMediaAssets {
	return &fakeMediaAssets{assets: map[int64]*models.MediaAsset{}}
}

func (f *fakeMediaAssets) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) (int64, error) {
	ma.ID = int64(len(f.assets) + 1)
	cp := *ma
	f.assets[ma.ID] = &cp
	return ma.ID, nil
}

func (f *fakeMediaAssets) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	return f.assets[id], nil
}

func (f *fakeMediaAssets) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.MediaAsset, error) {
	var out []*models.MediaAsset
	for _, a := range f.assets {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeMediaAssets) Remove(ctx context.Context, id, userID int64) (bool, error) {
	a, ok := f.assets[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	delete(f.assets, id)
	return true, nil
}

// fakeAdapter is a scriptable platform adapter.
type fakeAdapter struct {
	name      string
	valid     bool
	result    platform.PostResult
	analytics *platform.Analytics
	tokens    *platform.Tokens
	userInfo  *platform.UserInfo
	grants    []platform.AuthGrant
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) GetOAuthURL(ctx context.Context, redirectURI, state string) (string, error) {
	return "https://auth.example.com/?state=" + state + "&redirect_uri=" + redirectURI, nil
}

func (a *fakeAdapter) ExchangeCodeForTokens(ctx context.Context, grant platform.AuthGrant) (*platform.Tokens, error) {
	a.grants = append(a.grants, grant)
	return a.tokens, nil
}

func (a *fakeAdapter) GetUserInfo(ctx context.Context, creds platform.Credentials) (*platform.UserInfo, error) {
	return a.userInfo, nil
}

func (a *fakeAdapter) PostContent(ctx context.Context, content platform.PostContent, creds platform.Credentials) platform.PostResult {
	return a.result
}

func (a *fakeAdapter) GetPostAnalytics(ctx context.Context, platformPostID string, creds platform.Credentials) (*platform.Analytics, error) {
	return a.analytics, nil
}

func (a *fakeAdapter) ValidateToken(ctx context.Context, creds platform.Credentials) bool {
	return a.valid
}

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, name string) (string, error) {
	v, ok := m.values[name]
	if !ok {
		return "", secrets.ErrSecretNotFound
	}
	return v, nil
}

func (m *memoryStore) Put(ctx context.Context, name, value string) (string, error) {
	m.values[name] = value
	return name, nil
}

func (m *memoryStore) Delete(ctx context.Context, name string) error {
	delete(m.values, name)
	return nil
}

type recordingExecutor struct {
	posts *fakePosts
}

func (e *recordingExecutor) ExecutePost(ctx context.Context, post *models.Post) bool {
	return e.posts.MarkPosted(ctx, post.ID, "remote-1", time.Now().UTC()) == nil
}
