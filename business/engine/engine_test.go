package engine

import (
	"context"
	"testing"
	"time"

	"cochain/business/reward"
	"cochain/domain"
)

type fakeRanker struct {
	candidates []domain.Candidate
	hash       string
}

func (r *fakeRanker) Rank(_ context.Context, _ uint, limit int) ([]domain.Candidate, error) {
	if limit > len(r.candidates) {
		limit = len(r.candidates)
	}
	out := make([]domain.Candidate, limit)
	copy(out, r.candidates[:limit])
	return out, nil
}

func (r *fakeRanker) ProfileHash(_ context.Context, _ uint) (string, error) {
	return r.hash, nil
}

type fakeCacheRepo struct {
	entries map[uint]domain.RecommendationCache
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[uint]domain.RecommendationCache)}
}

func (r *fakeCacheRepo) Get(_ context.Context, userID uint) (*domain.RecommendationCache, error) {
	entry, ok := r.entries[userID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *fakeCacheRepo) Save(_ context.Context, entry *domain.RecommendationCache) error {
	r.entries[entry.UserID] = *entry
	return nil
}

func (r *fakeCacheRepo) ClearBandit(_ context.Context, userID uint) error {
	entry, ok := r.entries[userID]
	if !ok {
		return nil
	}
	entry.BanditJSON = nil
	r.entries[userID] = entry
	return nil
}

type fakeEventStore struct {
	events []domain.InteractionEvent
}

func (r *fakeEventStore) Save(_ context.Context, event *domain.InteractionEvent) error {
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventStore) ListSince(_ context.Context, since time.Time) ([]domain.InteractionEvent, error) {
	var out []domain.InteractionEvent
	for _, ev := range r.events {
		if !ev.CreatedAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// fakeBandit scores each candidate by its similarity, keeping the incoming
// order. Updates are recorded for assertions.
type fakeBandit struct {
	updates map[uint64][]float64
}

func newFakeBandit() *fakeBandit {
	return &fakeBandit{updates: make(map[uint64][]float64)}
}

func (b *fakeBandit) Rank(_ context.Context, candidates []domain.Candidate) ([]domain.ScoredProject, error) {
	out := make([]domain.ScoredProject, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, domain.ScoredProject{
			ProjectID:       cand.ProjectID,
			SimilarityScore: cand.Similarity,
			BanditScore:     cand.Similarity,
			Strategy:        domain.StrategyExploit,
		})
	}
	return out, nil
}

func (b *fakeBandit) Update(_ context.Context, projectID uint64, rewardValue, _ float64) error {
	b.updates[projectID] = append(b.updates[projectID], rewardValue)
	return nil
}

func (b *fakeBandit) TopProjects(_ context.Context, _ int) ([]domain.TopProject, error) {
	return nil, nil
}

type fakeCatalog struct {
	projects map[uint64]domain.Project
}

func (r *fakeCatalog) FindByIDs(_ context.Context, ids []uint64) ([]domain.Project, error) {
	var out []domain.Project
	for _, id := range ids {
		if p, ok := r.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type engineFixture struct {
	svc       *Service
	ranker    *fakeRanker
	cacheRepo *fakeCacheRepo
	events    *fakeEventStore
	bandit    *fakeBandit
	catalog   *fakeCatalog
}

func newEngineFixture(candidates []domain.Candidate) *engineFixture {
	f := &engineFixture{
		ranker:    &fakeRanker{candidates: candidates, hash: "hash-v1"},
		cacheRepo: newFakeCacheRepo(),
		events:    &fakeEventStore{},
		bandit:    newFakeBandit(),
		catalog:   &fakeCatalog{projects: make(map[uint64]domain.Project)},
	}
	for _, cand := range candidates {
		f.catalog.projects[cand.ProjectID] = domain.Project{
			ID:    cand.ProjectID,
			Title: "project",
		}
	}
	f.svc = NewService(
		f.ranker, f.cacheRepo, f.events, f.bandit, f.catalog,
		reward.NewCalculator(reward.DefaultConfig()),
	)
	return f
}

func makeCandidates(n int) []domain.Candidate {
	out := make([]domain.Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Candidate{
			ProjectID:  uint64(i + 1),
			Similarity: 1.0 - float64(i)*0.01,
		})
	}
	return out
}

func TestGetRecommendations_ServesAndCaches(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(30))

	first, err := f.svc.GetRecommendations(ctx, 1, 10, 0, true)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if first.Cached {
		t.Error("first serve reported cached")
	}
	if first.Method != domain.MethodRLEnhanced {
		t.Errorf("method = %s, want rl_enhanced", first.Method)
	}
	if len(first.Recommendations) != 10 {
		t.Fatalf("served %d items, want 10", len(first.Recommendations))
	}
	if first.TotalCount != 30 {
		t.Errorf("total = %d, want 30 (full list, not the page)", first.TotalCount)
	}

	second, err := f.svc.GetRecommendations(ctx, 1, 10, 0, true)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if !second.Cached {
		t.Error("second serve with an unchanged profile must hit the cache")
	}
	for i := range first.Recommendations {
		if first.Recommendations[i].ProjectID != second.Recommendations[i].ProjectID {
			t.Fatalf("cached ordering diverged at %d", i)
		}
	}
}

func TestGetRecommendations_ProfileChangeBustsCache(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(30))

	if _, err := f.svc.GetRecommendations(ctx, 1, 10, 0, true); err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}

	f.ranker.hash = "hash-v2"

	result, err := f.svc.GetRecommendations(ctx, 1, 10, 0, true)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if result.Cached {
		t.Error("stale profile hash served from cache")
	}
}

func TestGetRecommendations_PaginationIsConsistent(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(30))

	fullPage, err := f.svc.GetRecommendations(ctx, 1, 10, 0, true)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	secondHalf, err := f.svc.GetRecommendations(ctx, 1, 5, 5, true)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}

	if len(secondHalf.Recommendations) != 5 {
		t.Fatalf("offset page has %d items, want 5", len(secondHalf.Recommendations))
	}
	for i := 0; i < 5; i++ {
		want := fullPage.Recommendations[5+i].ProjectID
		got := secondHalf.Recommendations[i].ProjectID
		if got != want {
			t.Errorf("offset page item %d = %d, want %d", i, got, want)
		}
	}
}

func TestGetRecommendations_NoCandidates(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(nil)

	result, err := f.svc.GetRecommendations(ctx, 1, 10, 0, true)
	if err != nil {
		t.Fatalf("empty catalog must not error: %v", err)
	}
	if result.Method != domain.MethodNoResults {
		t.Errorf("method = %s, want no_results", result.Method)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("served %d items from an empty catalog", len(result.Recommendations))
	}
}

func TestGetRecommendations_SimilarityOnlyPath(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(30))

	result, err := f.svc.GetRecommendations(ctx, 1, 10, 0, false)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if result.Method != domain.MethodSimilarityOnly {
		t.Errorf("method = %s, want similarity_only", result.Method)
	}
	for _, rec := range result.Recommendations {
		if rec.RLScore != nil {
			t.Error("similarity-only serve carries an rl score")
		}
	}
}

func TestGetRecommendations_ImpressionsUseFullListPositions(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(30))

	if _, err := f.svc.GetRecommendations(ctx, 1, 5, 5, true); err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}

	var impressions []domain.InteractionEvent
	for _, ev := range f.events.events {
		if ev.InteractionType == domain.InteractionImpression {
			impressions = append(impressions, ev)
		}
	}
	if len(impressions) != 5 {
		t.Fatalf("recorded %d impressions, want 5", len(impressions))
	}
	for i, ev := range impressions {
		if ev.RankPosition == nil {
			t.Fatal("impression without a position")
		}
		// Positions 6..10: ranks in the full list, not the served page.
		if want := 6 + i; *ev.RankPosition != want {
			t.Errorf("impression %d at position %d, want %d", i, *ev.RankPosition, want)
		}
	}
}

func TestRecordInteraction(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(5))

	pos := 2
	rewardValue, err := f.svc.RecordInteraction(ctx, InteractionParams{
		UserID:          1,
		ProjectID:       3,
		InteractionType: domain.InteractionClick,
		RankPosition:    &pos,
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if rewardValue != 4.25 {
		t.Errorf("reward = %v, want 4.25 (click at position 2)", rewardValue)
	}

	if len(f.events.events) != 1 {
		t.Fatalf("stored %d events, want 1", len(f.events.events))
	}
	if f.events.events[0].SessionID == "" {
		t.Error("missing session id was not defaulted")
	}

	updates := f.bandit.updates[3]
	if len(updates) != 1 || updates[0] != 4.25 {
		t.Errorf("bandit updates = %v, want one update of 4.25", updates)
	}
}

func TestRecordInteraction_ZeroRewardSkipsBandit(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(5))

	rewardValue, err := f.svc.RecordInteraction(ctx, InteractionParams{
		UserID:          1,
		ProjectID:       3,
		InteractionType: domain.InteractionImpression,
	})
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if rewardValue != 0 {
		t.Errorf("impression reward = %v, want 0", rewardValue)
	}
	if len(f.events.events) != 1 {
		t.Error("impression event must still be logged")
	}
	if len(f.bandit.updates) != 0 {
		t.Error("zero reward reached the bandit")
	}
}

func TestInvalidateUserCache(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(30))

	if _, err := f.svc.GetRecommendations(ctx, 1, 10, 0, true); err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if len(f.cacheRepo.entries[1].BanditJSON) == 0 {
		t.Fatal("expected a cached bandit list before invalidation")
	}

	if err := f.svc.InvalidateUserCache(ctx, 1); err != nil {
		t.Fatalf("InvalidateUserCache: %v", err)
	}
	if len(f.cacheRepo.entries[1].BanditJSON) != 0 {
		t.Error("bandit list survived invalidation")
	}
	// The similarity list is untouched.
	if len(f.cacheRepo.entries[1].SimilarityJSON) == 0 {
		t.Error("similarity list was dropped by invalidation")
	}

	result, err := f.svc.GetRecommendations(ctx, 1, 10, 0, true)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if result.Cached {
		t.Error("invalidated cache still served")
	}
}

func TestModelPerformance(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(makeCandidates(5))

	// Rewards: click +5, unbookmark -3, impression 0, bookmark +10.
	now := time.Now()
	f.events.events = []domain.InteractionEvent{
		{UserID: 1, ProjectID: 1, InteractionType: domain.InteractionClick, CreatedAt: now},
		{UserID: 1, ProjectID: 2, InteractionType: domain.InteractionUnbookmark, CreatedAt: now},
		{UserID: 2, ProjectID: 1, InteractionType: domain.InteractionImpression, CreatedAt: now},
		{UserID: 2, ProjectID: 3, InteractionType: domain.InteractionBookmark, CreatedAt: now},
	}

	perf, err := f.svc.ModelPerformance(ctx, 7)
	if err != nil {
		t.Fatalf("ModelPerformance: %v", err)
	}

	if perf.ExampleCount != 4 {
		t.Errorf("ExampleCount = %d, want 4", perf.ExampleCount)
	}
	if perf.AvgReward != 3 {
		t.Errorf("AvgReward = %v, want 3", perf.AvgReward)
	}
	if perf.PositiveRate != 0.5 {
		t.Errorf("PositiveRate = %v, want 0.5", perf.PositiveRate)
	}
}
