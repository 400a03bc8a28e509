package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/platform"
	"github.com/maheshrc27/socialflow/internal/repository"
)

const (
	msgAccountUnavailable = "Social account not found or inactive"
	msgTokenInvalid       = "Access token is invalid or expired"

	// Publishing may chain several calls and wait on media processing, so it
	// gets its own budget on top of the per-call timeout.
	defaultPublishTimeout = 5 * time.Minute
)

type CredentialResolver interface {
	Resolve(ctx context.Context, account *models.SocialAccount) (*platform.Credentials, error)
}

// AnalyticsScheduler queues a metrics collection for a freshly published
// post.
type AnalyticsScheduler interface {
	ScheduleAnalytics(ctx context.Context, postID int64) error
}

// PostSchedulerJob publishes due posts. Each post is its own unit of work:
// whatever happens to one post is recorded on that post and never stops the
// rest of the tick.
type PostSchedulerJob struct {
	pr        repository.PostRepository
	ac        repository.SocialAccountRepository
	registry  *platform.Registry
	creds     CredentialResolver
	analytics AnalyticsScheduler
	buffer    time.Duration
	timeout   time.Duration
	now       func() time.Time

	publishTimeout time.Duration

	inFlight atomic.Int32
}

func NewPostSchedulerJob(
	pr repository.PostRepository,
	ac repository.SocialAccountRepository,
	registry *platform.Registry,
	creds CredentialResolver,
	analytics AnalyticsScheduler,
	buffer time.Duration,
	timeout time.Duration,
	publishTimeout time.Duration) *PostSchedulerJob {
	if timeout <= 0 {
		timeout = platform.DefaultTimeout
	}
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	return &PostSchedulerJob{
		pr:        pr,
		ac:        ac,
		registry:  registry,
		creds:     creds,
		analytics: analytics,
		buffer:    buffer,
		timeout:   timeout,
		now:       time.Now,

		publishTimeout: publishTimeout,
	}
}

// Run is the cron entry point.
func (j *PostSchedulerJob) Run() {
	j.RunTick(context.Background())
}

// RunTick executes every post due within the buffer, one after another.
// Overlapping ticks are not prevented; they are only reported.
func (j *PostSchedulerJob) RunTick(ctx context.Context) (succeeded, attempted int) {
	if n := j.inFlight.Add(1); n > 1 {
		slog.Warn("scheduler tick started while a previous tick is still running", "in_flight", n)
	}
	defer j.inFlight.Add(-1)

	posts, err := j.pr.GetDue(ctx, j.buffer)
	if err != nil {
		slog.Error("failed to load due posts", "error", err)
		return 0, 0
	}

	for _, post := range posts {
		attempted++
		if j.ExecutePost(ctx, post) {
			succeeded++
		}
	}

	slog.Info(fmt.Sprintf("Successfully executed %d/%d posts", succeeded, attempted))
	return succeeded, attempted
}

// ExecutePost publishes a single post and records the outcome on its row.
func (j *PostSchedulerJob) ExecutePost(ctx context.Context, post *models.Post) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			slog.Error("panic while executing post", "post_id", post.ID, "panic", msg)
			j.fail(ctx, post, msg)
			ok = false
		}
	}()

	account, err := j.ac.GetByID(ctx, post.SocialAccountID)
	if err != nil {
		return j.fail(ctx, post, err.Error())
	}
	if account == nil || !account.IsActive {
		return j.fail(ctx, post, msgAccountUnavailable)
	}

	adapter, err := j.registry.Get(account.Platform)
	if err != nil {
		return j.fail(ctx, post, fmt.Sprintf("Platform %s not supported", account.Platform))
	}

	creds, err := j.creds.Resolve(ctx, account)
	if err != nil {
		return j.fail(ctx, post, fmt.Sprintf("Failed to retrieve tokens: %v", err))
	}

	if !j.validate(ctx, adapter, *creds) {
		return j.fail(ctx, post, msgTokenInvalid)
	}

	result := j.publishPost(ctx, adapter, post, *creds)
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return j.fail(ctx, post, msg)
	}

	postedAt := result.PostedAt
	if postedAt.IsZero() {
		postedAt = j.now().UTC()
	}

	if err := j.markPosted(ctx, post.ID, result.PlatformPostID, postedAt); err != nil {
		if errors.Is(err, repository.ErrNotScheduled) {
			slog.Warn("post published after it left the scheduled state", "post_id", post.ID, "platform_post_id", result.PlatformPostID)
			return true
		}
		// The row must leave scheduled or the next tick publishes it again.
		slog.Error("failed to mark post as posted", "post_id", post.ID, "error", err)
		return j.fail(ctx, post, fmt.Sprintf("published as %s but status update failed: %v", result.PlatformPostID, err))
	}

	if err := j.ac.TouchLastUsed(ctx, account.ID, postedAt); err != nil {
		slog.Warn("failed to update account last_used", "account_id", account.ID, "error", err)
	}

	if j.analytics != nil {
		if err := j.analytics.ScheduleAnalytics(ctx, post.ID); err != nil {
			slog.Warn("failed to schedule analytics collection", "post_id", post.ID, "error", err)
		}
	}

	slog.Info("post published", "post_id", post.ID, "platform", account.Platform, "platform_post_id", result.PlatformPostID)
	return true
}

func (j *PostSchedulerJob) validate(ctx context.Context, adapter platform.Adapter, creds platform.Credentials) bool {
	callCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return adapter.ValidateToken(callCtx, creds)
}

// markPosted retries the write once before giving up.
func (j *PostSchedulerJob) markPosted(ctx context.Context, id int64, platformPostID string, postedAt time.Time) error {
	err := j.pr.MarkPosted(ctx, id, platformPostID, postedAt)
	if err == nil || errors.Is(err, repository.ErrNotScheduled) {
		return err
	}
	slog.Warn("retrying status update for published post", "post_id", id, "error", err)
	return j.pr.MarkPosted(ctx, id, platformPostID, postedAt)
}

func (j *PostSchedulerJob) publishPost(ctx context.Context, adapter platform.Adapter, post *models.Post, creds platform.Credentials) platform.PostResult {
	callCtx, cancel := context.WithTimeout(ctx, j.publishTimeout)
	defer cancel()

	result := adapter.PostContent(callCtx, platform.PostContent{
		Text:      post.ContentText,
		MediaURLs: post.MediaURLs,
		MediaType: post.MediaType,
	}, creds)
	if !result.Success && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		result.Error = fmt.Sprintf("publish timed out after %s: %s", j.publishTimeout, result.Error)
	}
	return result
}

func (j *PostSchedulerJob) fail(ctx context.Context, post *models.Post, message string) bool {
	slog.Info("post failed", "post_id", post.ID, "error", message)

	if err := j.pr.MarkFailed(ctx, post.ID, message); err != nil {
		if errors.Is(err, repository.ErrNotScheduled) {
			slog.Warn("post left the scheduled state before it could be marked failed", "post_id", post.ID)
		} else {
			slog.Error("failed to mark post as failed", "post_id", post.ID, "error", err)
		}
	}
	return false
}
