package job

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/platform"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/secrets"
)

type memPosts struct {
	mu    sync.Mutex
	posts map[int64]*models.Post
	order []int64
	now   time.Time
}

func newMemPosts(now time.Time, posts ...*models.Post) *memPosts {
	m := &memPosts{posts: map[int64]*models.Post{}, now: now}
	for _, p := range posts {
		if p.Status == "" {
			p.Status = models.PostStatusScheduled
		}
		m.posts[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *memPosts) get(id int64) models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.posts[id]
}

func (m *memPosts) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, nil
}

func (m *memPosts) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	p := m.get(id)
	return &p, nil
}

func (m *memPosts) GetForUser(ctx context.Context, id, userID int64) (*models.Post, error) {
	return m.GetByID(ctx, id)
}

func (m *memPosts) GetDue(ctx context.Context, buffer time.Duration) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*models.Post
	for _, id := range m.order {
		p := m.posts[id]
		if p.IsDue(m.now, buffer) {
			cp := *p
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (m *memPosts) ListForUser(ctx context.Context, userID int64, status string, limit int) ([]*models.Post, error) {
	return nil, nil
}

func (m *memPosts) transition(id int64, apply func(p *models.Post)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.posts[id]
	if p.IsTerminal() {
		return repository.ErrNotScheduled
	}
	apply(p)
	return nil
}

func (m *memPosts) MarkPosted(ctx context.Context, id int64, platformPostID string, postedAt time.Time) error {
	return m.transition(id, func(p *models.Post) {
		p.Status = models.PostStatusPosted
		p.PlatformPostID = &platformPostID
		p.PostedAt = &postedAt
	})
}

func (m *memPosts) MarkFailed(ctx context.Context, id int64, message string) error {
	return m.transition(id, func(p *models.Post) {
		p.Status = models.PostStatusFailed
		p.ErrorMessage = &message
	})
}

func (m *memPosts) MarkCancelled(ctx context.Context, id int64) error {
	return m.transition(id, func(p *models.Post) { p.Status = models.PostStatusCancelled })
}

func (m *memPosts) Cancel(ctx context.Context, postID, userID int64) (bool, error) {
	return m.MarkCancelled(ctx, postID) == nil, nil
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[int64]*models.SocialAccount
	touched  []int64
	tokens   map[int64]string
	expiring []*models.SocialAccount
}

func newMemAccounts(accounts ...*models.SocialAccount) *memAccounts {
	m := &memAccounts{accounts: map[int64]*models.SocialAccount{}, tokens: map[int64]string{}}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *memAccounts) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	return sa.ID, nil
}

func (m *memAccounts) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) GetForUser(ctx context.Context, id, userID int64) (*models.SocialAccount, error) {
	return m.GetByID(ctx, id)
}

func (m *memAccounts) ListByUserID(ctx context.Context, userID int64, activeOnly bool) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (m *memAccounts) ListExpiring(ctx context.Context, platformName string, before time.Time) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range m.expiring {
		if a.Platform == platformName && a.TokenExpiresAt != nil && a.TokenExpiresAt.Before(before) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccounts) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	return true, nil
}

func (m *memAccounts) SetToken(ctx context.Context, id int64, secretRef string, expiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[id] = secretRef
	return nil
}

func (m *memAccounts) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = append(m.touched, id)
	return nil
}

func (m *memAccounts) Deactivate(ctx context.Context, id int64) error {
	return nil
}

type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (m *memStore) Get(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	if !ok {
		return "", secrets.ErrSecretNotFound
	}
	return v, nil
}

func (m *memStore) Put(ctx context.Context, name, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return name, nil
}

func (m *memStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	return nil
}

// stubAdapter answers PostContent per call through postFn.
type stubAdapter struct {
	name      string
	valid     bool
	postCalls int
	postFn    func(call int, content platform.PostContent) platform.PostResult
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) GetOAuthURL(ctx context.Context, redirectURI, state string) (string, error) {
	return "", nil
}

func (a *stubAdapter) ExchangeCodeForTokens(ctx context.Context, grant platform.AuthGrant) (*platform.Tokens, error) {
	return nil, nil
}

func (a *stubAdapter) GetUserInfo(ctx context.Context, creds platform.Credentials) (*platform.UserInfo, error) {
	return nil, nil
}

func (a *stubAdapter) PostContent(ctx context.Context, content platform.PostContent, creds platform.Credentials) platform.PostResult {
	a.postCalls++
	return a.postFn(a.postCalls, content)
}

func (a *stubAdapter) GetPostAnalytics(ctx context.Context, platformPostID string, creds platform.Credentials) (*platform.Analytics, error) {
	return &platform.Analytics{}, nil
}

func (a *stubAdapter) ValidateToken(ctx context.Context, creds platform.Credentials) bool {
	return a.valid
}

type refreshingAdapter struct {
	stubAdapter
	mu        sync.Mutex
	refreshed []string
}

func (a *refreshingAdapter) RefreshToken(ctx context.Context, accessToken string) (*platform.Tokens, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshed = append(a.refreshed, accessToken)
	return &platform.Tokens{AccessToken: accessToken + "-new", ExpiresIn: 60 * 24 * 3600}, nil
}

type recordingAnalytics struct {
	postIDs []int64
}

func (r *recordingAnalytics) ScheduleAnalytics(ctx context.Context, postID int64) error {
	r.postIDs = append(r.postIDs, postID)
	return nil
}
