package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cochain/business/reward"
	"cochain/domain"
	"cochain/pkg/logger"
	"cochain/pkg/metrics"

	"github.com/google/uuid"
)

// candidateMultiplier controls how many similarity candidates are fetched
// relative to the requested page size, leaving the bandit room to re-rank.
const candidateMultiplier = 3

// ---- Collaborator interfaces ----

// CandidateRanker is the external content-similarity source. It returns
// candidates ordered by similarity and the user's current profile signature
// (any change to the signature invalidates cached lists).
type CandidateRanker interface {
	Rank(ctx context.Context, userID uint, limit int) ([]domain.Candidate, error)
	ProfileHash(ctx context.Context, userID uint) (string, error)
}

type CacheRepository interface {
	Get(ctx context.Context, userID uint) (*domain.RecommendationCache, error)
	Save(ctx context.Context, entry *domain.RecommendationCache) error
	ClearBandit(ctx context.Context, userID uint) error
}

type InteractionRepository interface {
	Save(ctx context.Context, event *domain.InteractionEvent) error
	ListSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error)
}

type Bandit interface {
	Rank(ctx context.Context, candidates []domain.Candidate) ([]domain.ScoredProject, error)
	Update(ctx context.Context, projectID uint64, reward, learningRate float64) error
	TopProjects(ctx context.Context, limit int) ([]domain.TopProject, error)
}

type ProjectRepository interface {
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Project, error)
}

// ---- Usecase / Service ----

// Service composes the content ranker with bandit re-ranking, caches full
// ranked lists per user and records impressions for later reward shaping.
type Service struct {
	ranker          CandidateRanker
	cacheRepo       CacheRepository
	interactionRepo InteractionRepository
	bandit          Bandit
	projectRepo     ProjectRepository
	calculator      *reward.Calculator
}

func NewService(
	ranker CandidateRanker,
	cacheRepo CacheRepository,
	interactionRepo InteractionRepository,
	bandit Bandit,
	projectRepo ProjectRepository,
	calculator *reward.Calculator,
) *Service {
	return &Service{
		ranker:          ranker,
		cacheRepo:       cacheRepo,
		interactionRepo: interactionRepo,
		bandit:          bandit,
		projectRepo:     projectRepo,
		calculator:      calculator,
	}
}

// GetRecommendations serves one page. The full ranked list is always built
// (or loaded from cache) first; pagination slices it afterwards, so a
// (count=5, offset=5) call sees items 6-10 of the same ranking that a
// (count=10, offset=0) call would produce. Impressions are recorded with
// positions in the full list, not the page.
func (s *Service) GetRecommendations(ctx context.Context, userID uint, count, offset int, useRL bool) (*domain.RecommendationResult, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if count <= 0 {
		count = 10
	}
	if offset < 0 {
		offset = 0
	}

	profileHash, err := s.ranker.ProfileHash(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile signature: %w", err)
	}

	cached, err := s.cacheRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load recommendation cache: %w", err)
	}

	var full []domain.Recommendation
	var method string
	fromCache := false

	if useRL && cached != nil && cached.ProfileHash == profileHash && len(cached.BanditJSON) > 0 {
		if err := json.Unmarshal(cached.BanditJSON, &full); err == nil && len(full) > 0 {
			method = domain.MethodRLEnhanced
			fromCache = true
		}
	}

	if !fromCache {
		candidates, err := s.ranker.Rank(ctx, userID, count*candidateMultiplier)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}

		if len(candidates) == 0 {
			return &domain.RecommendationResult{
				UserID:          userID,
				Recommendations: []domain.Recommendation{},
				TotalCount:      0,
				Method:          domain.MethodNoResults,
				DurationMS:      time.Since(start).Milliseconds(),
				GeneratedAt:     time.Now(),
			}, nil
		}

		if useRL {
			scored, err := s.bandit.Rank(ctx, candidates)
			if err != nil {
				return nil, fmt.Errorf("bandit rank: %w", err)
			}
			full = fromScored(scored)
			method = domain.MethodRLEnhanced
		} else {
			full = fromCandidates(candidates)
			method = domain.MethodSimilarityOnly
		}

		if err := s.saveCache(ctx, userID, profileHash, cached, candidates, full, useRL); err != nil {
			logger.Warn("recommendation_cache_save_failed", "user_id", userID, "error", err)
		}
	}

	page := paginate(full, offset, count)
	if err := s.enrich(ctx, page); err != nil {
		return nil, err
	}
	if err := s.recordImpressions(ctx, userID, full, offset, len(page)); err != nil {
		return nil, err
	}

	result := &domain.RecommendationResult{
		UserID:          userID,
		Recommendations: page,
		TotalCount:      len(full),
		Method:          method,
		Cached:          fromCache,
		DurationMS:      time.Since(start).Milliseconds(),
		GeneratedAt:     time.Now(),
	}

	metrics.RecommendLatency.Observe(time.Since(start).Seconds())
	metrics.RecommendRequests.WithLabelValues(method, fmt.Sprintf("%t", fromCache)).Inc()

	logger.Debug("recommend_serve",
		"user_id", userID,
		"method", method,
		"cached", fromCache,
		"total", len(full),
		"offset", offset,
		"count", count,
	)

	return result, nil
}

// InteractionParams is one user action reported by the serving layer.
type InteractionParams struct {
	UserID          uint
	ProjectID       uint64
	InteractionType string
	RankPosition    *int
	DurationSeconds *float64
	Rating          *int
	SessionID       string
}

// RecordInteraction persists the event and feeds its shaped reward to the
// bandit at the online learning rate. The reward is computed exactly as the
// batch replay would compute it for the same row.
func (s *Service) RecordInteraction(ctx context.Context, params InteractionParams) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	if params.SessionID == "" {
		params.SessionID = uuid.NewString()
	}

	event := domain.InteractionEvent{
		UserID:          params.UserID,
		ProjectID:       params.ProjectID,
		InteractionType: params.InteractionType,
		RankPosition:    params.RankPosition,
		DurationSeconds: params.DurationSeconds,
		Rating:          params.Rating,
		SessionID:       params.SessionID,
		CreatedAt:       time.Now(),
	}

	rewardValue := s.calculator.ForEvent(event)

	if err := s.interactionRepo.Save(ctx, &event); err != nil {
		return 0, fmt.Errorf("save interaction: %w", err)
	}

	if rewardValue != 0 {
		if err := s.bandit.Update(ctx, params.ProjectID, rewardValue, 0.5); err != nil {
			return 0, fmt.Errorf("bandit update: %w", err)
		}
	}

	return rewardValue, nil
}

// InvalidateUserCache drops the user's bandit-ranked list. The similarity
// list stays; it only dies with the profile signature.
func (s *Service) InvalidateUserCache(ctx context.Context, userID uint) error {
	if err := s.cacheRepo.ClearBandit(ctx, userID); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}

	return nil
}

// ModelPerformance recomputes aggregates straight from the interaction log
// over the trailing window, never from cached training records.
func (s *Service) ModelPerformance(ctx context.Context, days int) (*domain.ModelPerformance, error) {
	if days <= 0 {
		days = 7
	}

	since := time.Now().AddDate(0, 0, -days)
	events, err := s.interactionRepo.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load interaction window: %w", err)
	}

	total := 0.0
	positive := 0
	for _, ev := range events {
		r := s.calculator.ForEvent(ev)
		total += r
		if r > 0 {
			positive++
		}
	}

	perf := &domain.ModelPerformance{
		WindowDays:   days,
		ExampleCount: len(events),
		ComputedAt:   time.Now(),
	}
	if len(events) > 0 {
		perf.AvgReward = total / float64(len(events))
		perf.PositiveRate = float64(positive) / float64(len(events))
	}

	top, err := s.bandit.TopProjects(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("load top projects: %w", err)
	}
	perf.TopProjects = top

	return perf, nil
}

// ---- helpers ----

func (s *Service) saveCache(
	ctx context.Context,
	userID uint,
	profileHash string,
	previous *domain.RecommendationCache,
	candidates []domain.Candidate,
	full []domain.Recommendation,
	useRL bool,
) error {
	simJSON, err := json.Marshal(candidates)
	if err != nil {
		return err
	}

	entry := &domain.RecommendationCache{
		UserID:         userID,
		ProfileHash:    profileHash,
		SimilarityJSON: simJSON,
		UpdatedAt:      time.Now(),
	}

	if useRL {
		banditJSON, err := json.Marshal(full)
		if err != nil {
			return err
		}
		entry.BanditJSON = banditJSON
	} else if previous != nil && previous.ProfileHash == profileHash {
		// Similarity-only serve: keep a still-valid bandit list around.
		entry.BanditJSON = previous.BanditJSON
	}

	return s.cacheRepo.Save(ctx, entry)
}

func (s *Service) recordImpressions(ctx context.Context, userID uint, full []domain.Recommendation, offset, served int) error {
	sessionID := uuid.NewString()

	for i := offset; i < offset+served && i < len(full); i++ {
		pos := i + 1
		event := domain.InteractionEvent{
			UserID:          userID,
			ProjectID:       full[i].ProjectID,
			InteractionType: domain.InteractionImpression,
			RankPosition:    &pos,
			SessionID:       sessionID,
			CreatedAt:       time.Now(),
		}
		if err := s.interactionRepo.Save(ctx, &event); err != nil {
			return fmt.Errorf("record impression: %w", err)
		}
	}

	return nil
}

// enrich fills catalog fields for the served page only.
func (s *Service) enrich(ctx context.Context, page []domain.Recommendation) error {
	if len(page) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(page))
	for _, rec := range page {
		ids = append(ids, rec.ProjectID)
	}

	projects, err := s.projectRepo.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}

	byID := make(map[uint64]domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	for i := range page {
		if p, ok := byID[page[i].ProjectID]; ok {
			page[i].Title = p.Title
			page[i].Domain = p.Domain
			page[i].Complexity = p.Complexity
		}
	}

	return nil
}

func paginate(full []domain.Recommendation, offset, count int) []domain.Recommendation {
	if offset >= len(full) {
		return []domain.Recommendation{}
	}

	end := offset + count
	if end > len(full) {
		end = len(full)
	}

	page := make([]domain.Recommendation, end-offset)
	copy(page, full[offset:end])

	return page
}

func fromScored(scored []domain.ScoredProject) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(scored))
	for _, sp := range scored {
		score := sp.BanditScore
		out = append(out, domain.Recommendation{
			ProjectID:       sp.ProjectID,
			SimilarityScore: sp.SimilarityScore,
			RLScore:         &score,
			Strategy:        sp.Strategy,
		})
	}

	return out
}

func fromCandidates(candidates []domain.Candidate) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, domain.Recommendation{
			ProjectID:       cand.ProjectID,
			SimilarityScore: cand.Similarity,
		})
	}

	return out
}
