package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/platform"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

// CredentialResolver turns a social account into usable platform
// credentials.
type CredentialResolver interface {
	Resolve(ctx context.Context, account *models.SocialAccount) (*platform.Credentials, error)
}

type AnalyticsService interface {
	Get(ctx context.Context, userID, postID int64) (*transfer.PostAnalyticsResponse, error)
	Refresh(ctx context.Context, userID, postID int64) (*transfer.PostAnalyticsResponse, error)
	// Collect fetches and stores metrics for a posted post. It is what the
	// delayed queue task runs, so it has no ownership check.
	Collect(ctx context.Context, postID int64) (*models.PostAnalytics, error)
}

type analyticsService struct {
	pr       repository.PostRepository
	ac       repository.SocialAccountRepository
	an       repository.AnalyticsRepository
	registry *platform.Registry
	creds    CredentialResolver
	timeout  time.Duration
}

func NewAnalyticsService(
	pr repository.PostRepository,
	ac repository.SocialAccountRepository,
	an repository.AnalyticsRepository,
	registry *platform.Registry,
	creds CredentialResolver,
	timeout time.Duration) AnalyticsService {
	if timeout <= 0 {
		timeout = platform.DefaultTimeout
	}
	return &analyticsService{
		pr:       pr,
		ac:       ac,
		an:       an,
		registry: registry,
		creds:    creds,
		timeout:  timeout,
	}
}

func (s *analyticsService) postedPost(ctx context.Context, userID, postID int64) (*models.Post, error) {
	post, err := s.pr.GetForUser(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Status != models.PostStatusPosted || post.PlatformPostID == nil {
		return nil, notFound("Posted content not found")
	}
	return post, nil
}

func (s *analyticsService) Get(ctx context.Context, userID, postID int64) (*transfer.PostAnalyticsResponse, error) {
	post, err := s.postedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	a, err := s.an.GetByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error loading analytics: %w", err)
	}
	if a == nil {
		return &transfer.PostAnalyticsResponse{
			PostID:         postID,
			PlatformPostID: *post.PlatformPostID,
			Message:        "Analytics not yet collected for this post",
		}, nil
	}
	return analyticsResponse(post, a), nil
}

func (s *analyticsService) Refresh(ctx context.Context, userID, postID int64) (*transfer.PostAnalyticsResponse, error) {
	post, err := s.postedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	a, err := s.collect(ctx, post)
	if err != nil {
		return nil, err
	}
	return analyticsResponse(post, a), nil
}

func (s *analyticsService) Collect(ctx context.Context, postID int64) (*models.PostAnalytics, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Status != models.PostStatusPosted || post.PlatformPostID == nil {
		slog.Info("skipping analytics for post that is not posted", "post_id", postID)
		return nil, nil
	}
	return s.collect(ctx, post)
}

func (s *analyticsService) collect(ctx context.Context, post *models.Post) (*models.PostAnalytics, error) {
	account, err := s.ac.GetByID(ctx, post.SocialAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, notFound("Social account not found")
	}

	adapter, err := s.registry.Get(account.Platform)
	if err != nil {
		return nil, invalid(fmt.Sprintf("Platform %s not supported", account.Platform))
	}

	creds, err := s.creds.Resolve(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("Failed to retrieve tokens: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	metrics, err := adapter.GetPostAnalytics(callCtx, *post.PlatformPostID, *creds)
	if err != nil {
		return nil, fmt.Errorf("Failed to refresh analytics: %w", err)
	}

	a := &models.PostAnalytics{
		PostID:          post.ID,
		LikesCount:      metrics.LikesCount,
		CommentsCount:   metrics.CommentsCount,
		SharesCount:     metrics.SharesCount,
		Impressions:     metrics.Impressions,
		Reach:           metrics.Reach,
		PlatformMetrics: metrics.PlatformSpecific,
		CollectedAt:     time.Now().UTC(),
	}
	if err := s.an.Upsert(ctx, a); err != nil {
		return nil, fmt.Errorf("error saving analytics: %w", err)
	}

	slog.Info("analytics collected", "post_id", post.ID, "platform", account.Platform)
	return a, nil
}

func analyticsResponse(post *models.Post, a *models.PostAnalytics) *transfer.PostAnalyticsResponse {
	collectedAt := a.CollectedAt
	return &transfer.PostAnalyticsResponse{
		PostID:          post.ID,
		PlatformPostID:  *post.PlatformPostID,
		LikesCount:      &a.LikesCount,
		CommentsCount:   &a.CommentsCount,
		SharesCount:     &a.SharesCount,
		Impressions:     &a.Impressions,
		Reach:           &a.Reach,
		PlatformMetrics: a.PlatformMetrics,
		CollectedAt:     &collectedAt,
	}
}
