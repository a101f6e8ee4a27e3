package schedule

import (
	"context"

	"rag-chatbot/internal/rag"
)

// RefreshJob rebuilds the active generation when it has gone stale,
// complementing the on-query staleness check for idle deployments.
type RefreshJob struct {
	manager *rag.Manager
}

func NewRefreshJob(manager *rag.Manager) *RefreshJob {
	return &RefreshJob{manager: manager}
}

func (j *RefreshJob) Name() string { return "index_refresh" }

func (j *RefreshJob) Run(ctx context.Context) error {
	j.manager.RefreshIfStale(ctx)
	return nil
}
