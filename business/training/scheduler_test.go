package training

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cochain/business/bandit"
	"cochain/domain"
)

type fakeBatchBandit struct {
	result bandit.BatchResult
	err    error
	calls  []int
}

func (b *fakeBatchBandit) BatchUpdateFromInteractions(_ context.Context, days int) (bandit.BatchResult, error) {
	b.calls = append(b.calls, days)
	return b.result, b.err
}

type fakePerformance struct {
	perf *domain.ModelPerformance
	err  error
}

func (p *fakePerformance) ModelPerformance(_ context.Context, days int) (*domain.ModelPerformance, error) {
	return p.perf, p.err
}

type fakeRunRepo struct {
	runs []domain.TrainingRun
}

func (r *fakeRunRepo) Save(_ context.Context, run *domain.TrainingRun) error {
	r.runs = append(r.runs, *run)
	return nil
}

func (r *fakeRunRepo) ListRecent(_ context.Context, limit int) ([]domain.TrainingRun, error) {
	if limit > len(r.runs) {
		limit = len(r.runs)
	}
	return r.runs[:limit], nil
}

type fakeSweepRepo struct {
	removed int64
	cutoffs []time.Time
}

func (r *fakeSweepRepo) DeleteUntouchedSince(_ context.Context, cutoff time.Time) (int64, error) {
	r.cutoffs = append(r.cutoffs, cutoff)
	return r.removed, nil
}

func TestRun_RecordsAuditEntry(t *testing.T) {
	ctx := context.Background()
	batch := &fakeBatchBandit{result: bandit.BatchResult{
		EventsProcessed: 120,
		ProjectsUpdated: 14,
		AvgReward:       1.8,
	}}
	perf := &fakePerformance{perf: &domain.ModelPerformance{
		AvgReward:    2.1,
		PositiveRate: 0.63,
	}}
	runRepo := &fakeRunRepo{}

	s := NewScheduler(batch, perf, runRepo, &fakeSweepRepo{}, 0)

	run, err := s.Run(ctx, 7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(batch.calls) != 1 || batch.calls[0] != 7 {
		t.Errorf("batch calls = %v, want one call with 7 days", batch.calls)
	}
	if run.EventsProcessed != 120 || run.ProjectsUpdated != 14 {
		t.Errorf("run counters = %+v", run)
	}
	// Performance recompute overrides the raw batch averages.
	if run.AvgReward != 2.1 || run.PositiveRate != 0.63 {
		t.Errorf("run performance = (%v, %v), want (2.1, 0.63)", run.AvgReward, run.PositiveRate)
	}
	if len(runRepo.runs) != 1 {
		t.Fatalf("stored %d runs, want 1", len(runRepo.runs))
	}
}

func TestRun_DefaultsWindow(t *testing.T) {
	batch := &fakeBatchBandit{}
	s := NewScheduler(batch, &fakePerformance{perf: &domain.ModelPerformance{}}, &fakeRunRepo{}, &fakeSweepRepo{}, 0)

	if _, err := s.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if batch.calls[0] != 7 {
		t.Errorf("default window = %d, want 7", batch.calls[0])
	}
}

func TestRun_BatchFailureLeavesNoRecord(t *testing.T) {
	runRepo := &fakeRunRepo{}
	s := NewScheduler(
		&fakeBatchBandit{err: errors.New("store down")},
		&fakePerformance{perf: &domain.ModelPerformance{}},
		runRepo, &fakeSweepRepo{}, 0,
	)

	if _, err := s.Run(context.Background(), 7); err == nil {
		t.Fatal("batch failure must surface")
	}
	if len(runRepo.runs) != 0 {
		t.Error("failed run left an audit record")
	}
}

func TestRun_PerformanceFailureStillRecords(t *testing.T) {
	runRepo := &fakeRunRepo{}
	s := NewScheduler(
		&fakeBatchBandit{result: bandit.BatchResult{EventsProcessed: 10, AvgReward: 1.5}},
		&fakePerformance{err: errors.New("window query failed")},
		runRepo, &fakeSweepRepo{}, 0,
	)

	run, err := s.Run(context.Background(), 7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(runRepo.runs) != 1 {
		t.Fatal("run was not recorded despite successful training")
	}
	if !strings.Contains(run.Notes, "performance recompute failed") {
		t.Errorf("notes = %q, want a recompute failure note", run.Notes)
	}
	// The raw batch average survives when the recompute fails.
	if run.AvgReward != 1.5 {
		t.Errorf("AvgReward = %v, want the batch value 1.5", run.AvgReward)
	}
}

func TestSweepCache(t *testing.T) {
	sweepRepo := &fakeSweepRepo{removed: 9}
	s := NewScheduler(
		&fakeBatchBandit{},
		&fakePerformance{perf: &domain.ModelPerformance{}},
		&fakeRunRepo{}, sweepRepo,
		24*time.Hour,
	)

	removed, err := s.SweepCache(context.Background())
	if err != nil {
		t.Fatalf("SweepCache: %v", err)
	}
	if removed != 9 {
		t.Errorf("removed = %d, want 9", removed)
	}

	if len(sweepRepo.cutoffs) != 1 {
		t.Fatalf("sweep calls = %d, want 1", len(sweepRepo.cutoffs))
	}
	wantCutoff := time.Now().Add(-24 * time.Hour)
	if diff := sweepRepo.cutoffs[0].Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff %v not ~24h ago", sweepRepo.cutoffs[0])
	}
}

func TestHistory(t *testing.T) {
	runRepo := &fakeRunRepo{runs: []domain.TrainingRun{
		{ID: 1}, {ID: 2}, {ID: 3},
	}}
	s := NewScheduler(
		&fakeBatchBandit{},
		&fakePerformance{perf: &domain.ModelPerformance{}},
		runRepo, &fakeSweepRepo{}, 0,
	)

	runs, err := s.History(context.Background(), 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("History returned %d runs, want 2", len(runs))
	}
}
