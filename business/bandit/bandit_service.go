package bandit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"cochain/business/reward"
	"cochain/domain"
	"cochain/pkg/logger"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// ---- Repository interfaces ----

type StateRepository interface {
	GetState(ctx context.Context, projectID uint64) (*domain.BanditState, error)
	SaveState(ctx context.Context, state *domain.BanditState) error
	DeleteState(ctx context.Context, projectID uint64) error
	ListStates(ctx context.Context) ([]domain.BanditState, error)
}

type InteractionRepository interface {
	ListSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error)
}

type ProjectRepository interface {
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Project, error)
}

// ---- Usecase / Service ----

// Service maintains a Beta(alpha, beta) belief per project and balances
// exploring uncertain projects against exploiting known-good ones via
// Thompson sampling. The random source is injected so tests can force
// deterministic explore/exploit paths.
type Service struct {
	stateRepo       StateRepository
	interactionRepo InteractionRepository
	projectRepo     ProjectRepository
	calculator      *reward.Calculator
	cache           ParameterCache
	cfg             Config

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(
	stateRepo StateRepository,
	interactionRepo InteractionRepository,
	projectRepo ProjectRepository,
	calculator *reward.Calculator,
	cache ParameterCache,
	cfg Config,
	rng *rand.Rand,
) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	return &Service{
		stateRepo:       stateRepo,
		interactionRepo: interactionRepo,
		projectRepo:     projectRepo,
		calculator:      calculator,
		cache:           cache,
		cfg:             cfg,
		rng:             rng,
	}
}

// GetParameters returns the stored (alpha, beta) pair, or the configured
// prior for projects that never earned a reward. Reads go through the
// parameter cache to avoid store round-trips within one ranking call.
func (s *Service) GetParameters(ctx context.Context, projectID uint64) (float64, float64, error) {
	if alpha, beta, ok := s.cache.Get(ctx, projectID); ok {
		return alpha, beta, nil
	}

	state, err := s.stateRepo.GetState(ctx, projectID)
	if err != nil {
		return 0, 0, fmt.Errorf("load bandit state: %w", err)
	}

	alpha, beta := s.cfg.AlphaPrior, s.cfg.BetaPrior
	if state != nil {
		alpha, beta = state.Alpha, state.Beta
	}

	s.cache.Set(ctx, projectID, alpha, beta)

	return alpha, beta, nil
}

// SampleScore blends the content similarity with one Thompson draw from the
// project's Beta belief.
func (s *Service) SampleScore(ctx context.Context, projectID uint64, similarity float64) (float64, error) {
	alpha, beta, err := s.GetParameters(ctx, projectID)
	if err != nil {
		return 0, err
	}

	sample := s.sampleBeta(alpha, beta)

	return s.cfg.SimilarityWeight*similarity + s.cfg.BanditWeight*sample, nil
}

// Rank re-orders similarity-ranked candidates. Each candidate independently
// flips an exploration coin: with probability ExplorationRate its score is a
// pure Thompson sample ignoring similarity, otherwise the blended exploit
// score. The sort is stable, so ties keep input order; repeat calls
// re-randomize by design.
func (s *Service) Rank(ctx context.Context, candidates []domain.Candidate) ([]domain.ScoredProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	scored := make([]domain.ScoredProject, 0, len(candidates))
	for _, cand := range candidates {
		alpha, beta, err := s.GetParameters(ctx, cand.ProjectID)
		if err != nil {
			return nil, err
		}

		var score float64
		strategy := domain.StrategyExploit

		if s.uniform() < s.cfg.ExplorationRate {
			score = s.sampleBeta(alpha, beta)
			strategy = domain.StrategyExplore
		} else {
			sample := s.sampleBeta(alpha, beta)
			score = s.cfg.SimilarityWeight*cand.Similarity + s.cfg.BanditWeight*sample
		}

		scored = append(scored, domain.ScoredProject{
			ProjectID:       cand.ProjectID,
			SimilarityScore: cand.Similarity,
			BanditScore:     score,
			Strategy:        strategy,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].BanditScore > scored[j].BanditScore
	})

	return scored, nil
}

// Update applies one observed reward. Positive rewards grow alpha, negative
// rewards grow beta by the absolute value; a zero reward is a no-op. Updates
// are additive only, so alpha and beta can never reach zero.
func (s *Service) Update(ctx context.Context, projectID uint64, rewardValue, learningRate float64) error {
	if rewardValue == 0 {
		return nil
	}
	if learningRate <= 0 {
		learningRate = 1.0
	}

	alpha, beta, err := s.GetParameters(ctx, projectID)
	if err != nil {
		return err
	}

	direction := "positive"
	if rewardValue > 0 {
		alpha += rewardValue * learningRate
	} else {
		beta += -rewardValue * learningRate
		direction = "negative"
	}

	state := &domain.BanditState{
		ProjectID: projectID,
		Alpha:     alpha,
		Beta:      beta,
		UpdatedAt: time.Now(),
	}
	if err := s.stateRepo.SaveState(ctx, state); err != nil {
		return fmt.Errorf("save bandit state: %w", err)
	}

	s.cache.Set(ctx, projectID, alpha, beta)

	logger.Debug("bandit_update",
		"project_id", projectID,
		"reward", rewardValue,
		"learning_rate", learningRate,
		"alpha", alpha,
		"beta", beta,
	)

	BanditUpdatesTotal.WithLabelValues(direction).Inc()

	return nil
}

// BatchResult summarizes one batch replay.
type BatchResult struct {
	EventsProcessed int     `json:"events_processed"`
	ProjectsUpdated int     `json:"projects_updated"`
	AvgReward       float64 `json:"avg_reward"`
}

// BatchUpdateFromInteractions replays the trailing interaction window as a
// smoothed update: per-event rewards are averaged per project and applied
// once with learning rate 0.5, not replayed event by event. Deterministic
// given a fixed window of events.
func (s *Service) BatchUpdateFromInteractions(ctx context.Context, days int) (BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return BatchResult{}, fmt.Errorf("context error: %w", err)
	}
	if days <= 0 {
		days = 7
	}

	since := time.Now().AddDate(0, 0, -days)
	events, err := s.interactionRepo.ListSince(ctx, since)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load interaction window: %w", err)
	}

	sums := make(map[uint64]float64)
	counts := make(map[uint64]int)
	total := 0.0

	for _, ev := range events {
		r := s.calculator.ForEvent(ev)
		sums[ev.ProjectID] += r
		counts[ev.ProjectID]++
		total += r
	}

	ids := make([]uint64, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	updated := 0
	for _, id := range ids {
		avg := sums[id] / float64(counts[id])
		if avg == 0 {
			continue
		}
		if err := s.Update(ctx, id, avg, 0.5); err != nil {
			return BatchResult{}, fmt.Errorf("batch update project %d: %w", id, err)
		}
		updated++
	}

	result := BatchResult{
		EventsProcessed: len(events),
		ProjectsUpdated: updated,
	}
	if len(events) > 0 {
		result.AvgReward = total / float64(len(events))
	}

	logger.Info("bandit_batch_update",
		"window_days", days,
		"events", result.EventsProcessed,
		"projects_updated", result.ProjectsUpdated,
		"avg_reward", result.AvgReward,
	)

	return result, nil
}

// Statistics reports the learned state for one project, with a 95% interval
// from the Beta variance approximation.
func (s *Service) Statistics(ctx context.Context, projectID uint64) (domain.BanditStatistics, error) {
	alpha, beta, err := s.GetParameters(ctx, projectID)
	if err != nil {
		return domain.BanditStatistics{}, err
	}

	n := alpha + beta
	quality := alpha / n
	variance := alpha * beta / (n * n * (n + 1))
	margin := distuv.UnitNormal.Quantile(0.975) * math.Sqrt(variance)

	return domain.BanditStatistics{
		ProjectID:        projectID,
		Alpha:            alpha,
		Beta:             beta,
		TotalSamples:     n - s.cfg.AlphaPrior - s.cfg.BetaPrior,
		EstimatedQuality: quality,
		ConfidenceLow:    math.Max(0, quality-margin),
		ConfidenceHigh:   math.Min(1, quality+margin),
	}, nil
}

// TopProjects lists projects by estimated quality, enriched from the catalog.
func (s *Service) TopProjects(ctx context.Context, limit int) ([]domain.TopProject, error) {
	if limit <= 0 {
		limit = 10
	}

	states, err := s.stateRepo.ListStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bandit states: %w", err)
	}

	sort.SliceStable(states, func(i, j int) bool {
		return states[i].EstimatedQuality() > states[j].EstimatedQuality()
	})
	if len(states) > limit {
		states = states[:limit]
	}

	ids := make([]uint64, 0, len(states))
	for _, st := range states {
		ids = append(ids, st.ProjectID)
	}

	projects, err := s.projectRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	byID := make(map[uint64]domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	out := make([]domain.TopProject, 0, len(states))
	for _, st := range states {
		top := domain.TopProject{
			ProjectID:        st.ProjectID,
			EstimatedQuality: st.EstimatedQuality(),
			TotalSamples:     st.Alpha + st.Beta - s.cfg.AlphaPrior - s.cfg.BetaPrior,
		}
		if p, ok := byID[st.ProjectID]; ok {
			top.Title = p.Title
			top.Domain = p.Domain
		}
		out = append(out, top)
	}

	return out, nil
}

// Reset clears the stored and cached state for one project.
func (s *Service) Reset(ctx context.Context, projectID uint64) error {
	if err := s.stateRepo.DeleteState(ctx, projectID); err != nil {
		return fmt.Errorf("delete bandit state: %w", err)
	}

	s.cache.Delete(ctx, projectID)

	logger.Info("bandit_reset", "project_id", projectID)

	return nil
}

// sampleBeta draws one Thompson sample. The shared rng is not safe for
// concurrent use, so draws are serialized.
func (s *Service) sampleBeta(alpha, beta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return distuv.Beta{Alpha: alpha, Beta: beta, Src: s.rng}.Rand()
}

func (s *Service) uniform() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rng.Float64()
}
