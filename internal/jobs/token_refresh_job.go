package job

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/platform"
	"github.com/maheshrc27/socialflow/internal/repository"
)

const refreshConcurrency = 10

type TokenStore interface {
	Tokens(ctx context.Context, ref string) (*platform.Tokens, error)
	Save(ctx context.Context, platformName string, userID int64, platformUserID string, tokens *platform.Tokens) (string, error)
}

// TokenRefreshJob renews long-lived tokens for networks that support it
// before they expire.
type TokenRefreshJob struct {
	sr       repository.SocialAccountRepository
	registry *platform.Registry
	tokens   TokenStore
	window   time.Duration
	now      func() time.Time
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	registry *platform.Registry,
	tokens TokenStore,
	window time.Duration) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr:       sr,
		registry: registry,
		tokens:   tokens,
		window:   window,
		now:      time.Now,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	c.Refresh(context.Background())
}

// Refresh returns how many accounts got a new token.
func (c *TokenRefreshJob) Refresh(ctx context.Context) int {
	var refreshed atomic.Int32

	for _, name := range c.registry.Names() {
		adapter, err := c.registry.Get(name)
		if err != nil {
			continue
		}
		refresher, ok := adapter.(platform.Refresher)
		if !ok {
			continue
		}

		accounts, err := c.sr.ListExpiring(ctx, name, c.now().UTC().Add(c.window))
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		var wg sync.WaitGroup
		semaphore := make(chan struct{}, refreshConcurrency)

		for _, acc := range accounts {
			wg.Add(1)
			semaphore <- struct{}{}

			go func(acc *models.SocialAccount) {
				defer wg.Done()
				defer func() { <-semaphore }()

				if err := c.refreshAccount(ctx, refresher, acc); err != nil {
					slog.Warn("unable to refresh token", "platform", acc.Platform, "account_id", acc.ID, "error", err)
					return
				}
				refreshed.Add(1)
			}(acc)
		}
		wg.Wait()
	}

	n := int(refreshed.Load())
	if n > 0 {
		slog.Info("tokens refreshed", "count", n)
	}
	return n
}

func (c *TokenRefreshJob) refreshAccount(ctx context.Context, refresher platform.Refresher, acc *models.SocialAccount) error {
	current, err := c.tokens.Tokens(ctx, acc.TokenSecretRef)
	if err != nil {
		return err
	}

	fresh, err := refresher.RefreshToken(ctx, current.AccessToken)
	if err != nil {
		return err
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = current.RefreshToken
	}
	if fresh.AccessTokenSecret == "" {
		fresh.AccessTokenSecret = current.AccessTokenSecret
	}

	ref, err := c.tokens.Save(ctx, acc.Platform, acc.UserID, acc.PlatformUserID, fresh)
	if err != nil {
		return err
	}
	return c.sr.SetToken(ctx, acc.ID, ref, fresh.ExpiresAt(c.now().UTC()))
}
