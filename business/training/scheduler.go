package training

import (
	"context"
	"fmt"
	"time"

	"cochain/business/bandit"
	"cochain/domain"
	"cochain/pkg/logger"
	"cochain/pkg/metrics"
)

// ---- Collaborator interfaces ----

type Bandit interface {
	BatchUpdateFromInteractions(ctx context.Context, days int) (bandit.BatchResult, error)
}

type Performance interface {
	ModelPerformance(ctx context.Context, days int) (*domain.ModelPerformance, error)
}

type RunRepository interface {
	Save(ctx context.Context, run *domain.TrainingRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.TrainingRun, error)
}

type CacheRepository interface {
	DeleteUntouchedSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler triggers batch training on operator demand. Runs are not
// idempotent across overlapping windows: replaying the same window applies
// a second smoothed update, so the audit log exists for operators to keep
// windows disjoint.
type Scheduler struct {
	bandit      Bandit
	performance Performance
	runRepo     RunRepository
	cacheRepo   CacheRepository
	cacheMaxAge time.Duration
}

func NewScheduler(
	banditSvc Bandit,
	performance Performance,
	runRepo RunRepository,
	cacheRepo CacheRepository,
	cacheMaxAge time.Duration,
) *Scheduler {
	if cacheMaxAge <= 0 {
		cacheMaxAge = 24 * time.Hour
	}

	return &Scheduler{
		bandit:      banditSvc,
		performance: performance,
		runRepo:     runRepo,
		cacheRepo:   cacheRepo,
		cacheMaxAge: cacheMaxAge,
	}
}

// Run replays the trailing interaction window into the bandit, recomputes
// aggregate performance, and appends one audit record. A failed run leaves
// no record; the operator retries on the next trigger.
func (s *Scheduler) Run(ctx context.Context, days int) (*domain.TrainingRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if days <= 0 {
		days = 7
	}

	result, err := s.bandit.BatchUpdateFromInteractions(ctx, days)
	if err != nil {
		logger.Error("training_run_failed",
			"window_days", days,
			"error", err,
		)
		return nil, fmt.Errorf("batch update: %w", err)
	}

	run := &domain.TrainingRun{
		WindowDays:      days,
		EventsProcessed: result.EventsProcessed,
		ProjectsUpdated: result.ProjectsUpdated,
		AvgReward:       result.AvgReward,
		CreatedAt:       time.Now(),
	}

	perf, err := s.performance.ModelPerformance(ctx, days)
	if err != nil {
		// Training already happened; record the run with a note instead
		// of losing the audit trail.
		logger.Error("training_performance_failed", "window_days", days, "error", err)
		run.Notes = fmt.Sprintf("performance recompute failed: %v", err)
	} else {
		run.AvgReward = perf.AvgReward
		run.PositiveRate = perf.PositiveRate
	}

	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("save training run: %w", err)
	}

	metrics.TrainingRuns.Inc()

	logger.Info("training_run",
		"window_days", days,
		"events_processed", run.EventsProcessed,
		"projects_updated", run.ProjectsUpdated,
		"avg_reward", run.AvgReward,
		"positive_rate", run.PositiveRate,
	)

	return run, nil
}

// SweepCache reaps recommendation cache rows untouched for longer than the
// configured maximum age.
func (s *Scheduler) SweepCache(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.cacheMaxAge)

	removed, err := s.cacheRepo.DeleteUntouchedSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep recommendation cache: %w", err)
	}

	logger.Info("cache_sweep", "removed", removed, "cutoff", cutoff)

	return removed, nil
}

// History lists recent training runs for the operator dashboard.
func (s *Scheduler) History(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}

	runs, err := s.runRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list training runs: %w", err)
	}

	return runs, nil
}
