package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/socialflow/internal/service"
)

func (j *Queue) HandleCollectAnalyticsTask(ctx context.Context, task *asynq.Task) error {
	var payload CollectAnalyticsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid analytics payload: %v: %w", err, asynq.SkipRetry)
	}

	a, err := j.an.Collect(ctx, payload.PostID)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) || errors.Is(err, service.ErrNotFound) {
			slog.Warn("dropping analytics task", "post_id", payload.PostID, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	if a == nil {
		return nil
	}

	slog.Info("analytics task done", "post_id", payload.PostID, "likes", a.LikesCount, "comments", a.CommentsCount)
	return nil
}
