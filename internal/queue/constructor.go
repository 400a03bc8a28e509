package queue

import (
	"github.com/maheshrc27/socialflow/internal/service"
)

type Queue struct {
	an service.AnalyticsService
}

func NewQueue(an service.AnalyticsService) *Queue {
	return &Queue{
		an: an,
	}
}

const TaskTypeCollectAnalytics = "analytics:collect"

type CollectAnalyticsPayload struct {
	PostID int64 `json:"post_id"`
}
