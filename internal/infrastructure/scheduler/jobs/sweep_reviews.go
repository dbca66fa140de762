// Package jobs contains the scheduled jobs of the mastery engine worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aprende-hub/mastery-engine/internal/application/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// SWEEP DUE REVIEWS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SweepDueReviewsJob walks every student with a review plan and injects the
// due, not-yet-scheduled topics into their agenda. It runs shortly after the
// platform's midnight; the scheduled-flag guard makes extra runs harmless.
type SweepDueReviewsJob struct {
	reviews *service.ReviewScheduler
	sink    service.AgendaSink
	logger  *slog.Logger
}

// NewSweepDueReviewsJob creates the sweep job.
func NewSweepDueReviewsJob(reviews *service.ReviewScheduler, sink service.AgendaSink, logger *slog.Logger) *SweepDueReviewsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepDueReviewsJob{
		reviews: reviews,
		sink:    sink,
		logger:  logger,
	}
}

// Name returns the unique name of the job.
func (j *SweepDueReviewsJob) Name() string {
	return "sweep_due_reviews"
}

// Description returns a human-readable description of the job.
func (j *SweepDueReviewsJob) Description() string {
	return "injects due spaced-repetition reviews into student agendas"
}

// Run executes one full sweep.
func (j *SweepDueReviewsJob) Run(ctx context.Context) error {
	injected, err := j.reviews.SweepAll(ctx, j.sink)
	if err != nil {
		return fmt.Errorf("agenda sweep: %w", err)
	}

	j.logger.Info("agenda sweep complete", "injected", injected)
	return nil
}
