package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const analyticsMaxRetry = 3

// Enqueuer is the part of *asynq.Client used to schedule tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func EnqueueAnalytics(ctx context.Context, client Enqueuer, payload CollectAnalyticsPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeCollectAnalytics, taskPayload)

	info, err := client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.MaxRetry(analyticsMaxRetry))
	if err != nil {
		return err
	}

	slog.Info("analytics collection scheduled", "post_id", payload.PostID, "task_id", info.ID, "delay", delay.String())
	return nil
}

// AnalyticsScheduler queues a collection run some time after a post goes out.
type AnalyticsScheduler struct {
	client Enqueuer
	delay  time.Duration
}

func NewAnalyticsScheduler(client Enqueuer, delay time.Duration) *AnalyticsScheduler {
	return &AnalyticsScheduler{client: client, delay: delay}
}

func (s *AnalyticsScheduler) ScheduleAnalytics(ctx context.Context, postID int64) error {
	return EnqueueAnalytics(ctx, s.client, CollectAnalyticsPayload{PostID: postID}, s.delay)
}
