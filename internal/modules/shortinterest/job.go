package shortinterest

import (
	"context"
	"time"
)

// refreshTimeout bounds a full watchlist refresh, including inter-call delays.
const refreshTimeout = 30 * time.Second

// RefreshJob rebuilds the short-interest snapshot on a schedule so the slow
// route stays warm between client polls.
type RefreshJob struct {
	service *Service
}

// NewRefreshJob creates a scheduler job wrapping the service.
func NewRefreshJob(service *Service) *RefreshJob {
	return &RefreshJob{service: service}
}

// Name implements scheduler.Job.
func (j *RefreshJob) Name() string {
	return "short-interest-refresh"
}

// Run implements scheduler.Job.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	j.service.Refresh(ctx)
	return nil
}
