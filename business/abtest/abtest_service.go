package abtest

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"cochain/business/reward"
	"cochain/domain"
	"cochain/pkg/logger"

	"github.com/google/uuid"
)

// ---- Repository interfaces ----

type TestRepository interface {
	GetActive(ctx context.Context) (*domain.ABTest, error)
	GetByID(ctx context.Context, id string) (*domain.ABTest, error)
	Save(ctx context.Context, test *domain.ABTest) error
}

type AssignmentRepository interface {
	Get(ctx context.Context, userID uint) (*domain.ABAssignment, error)
	Upsert(ctx context.Context, assignment *domain.ABAssignment) error
	DeleteForUser(ctx context.Context, userID uint) error
	ListByTest(ctx context.Context, testID string) ([]domain.ABAssignment, error)
}

type ResultRepository interface {
	Save(ctx context.Context, result *domain.ABTestResult) error
}

type InteractionRepository interface {
	ListSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error)
}

type Config struct {
	MinSampleSize     int
	ConfidenceLevel   float64
	MinimumEffectSize float64
}

func DefaultConfig() Config {
	return Config{
		MinSampleSize:     100,
		ConfidenceLevel:   0.95,
		MinimumEffectSize: 0.05,
	}
}

// ---- Usecase / Service ----

// Service runs controlled experiments deciding whether the learned ranking
// should replace the similarity baseline. Bucketing is a pure function of
// (user_id, test_id), so a lost assignment row never changes a user's group.
type Service struct {
	testRepo        TestRepository
	assignRepo      AssignmentRepository
	resultRepo      ResultRepository
	interactionRepo InteractionRepository
	calculator      *reward.Calculator
	cfg             Config
}

func NewService(
	testRepo TestRepository,
	assignRepo AssignmentRepository,
	resultRepo ResultRepository,
	interactionRepo InteractionRepository,
	calculator *reward.Calculator,
	cfg Config,
) *Service {
	return &Service{
		testRepo:        testRepo,
		assignRepo:      assignRepo,
		resultRepo:      resultRepo,
		interactionRepo: interactionRepo,
		calculator:      calculator,
		cfg:             cfg,
	}
}

func (s *Service) ActiveTest(ctx context.Context) (*domain.ABTest, error) {
	test, err := s.testRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active test: %w", err)
	}

	return test, nil
}

// UserGroup buckets the user for the currently active test. Without an
// active test every user is treatment (learned ranking). An assignment
// stored for an older test is stale: it gets dropped and recomputed.
func (s *Service) UserGroup(ctx context.Context, userID uint) (string, error) {
	test, err := s.testRepo.GetActive(ctx)
	if err != nil {
		return "", fmt.Errorf("load active test: %w", err)
	}
	if test == nil {
		return domain.GroupTreatment, nil
	}

	existing, err := s.assignRepo.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load assignment: %w", err)
	}
	if existing != nil {
		if existing.TestID == test.ID {
			return existing.Group, nil
		}
		if err := s.assignRepo.DeleteForUser(ctx, userID); err != nil {
			return "", fmt.Errorf("drop stale assignment: %w", err)
		}
	}

	group := BucketUser(userID, test.ID, test.ControlPercentage)

	assignment := &domain.ABAssignment{
		UserID:     userID,
		TestID:     test.ID,
		Group:      group,
		AssignedAt: time.Now(),
	}
	if err := s.assignRepo.Upsert(ctx, assignment); err != nil {
		return "", fmt.Errorf("persist assignment: %w", err)
	}

	return group, nil
}

// BucketUser hashes (user, test) into [0, 100); below the control percentage
// is control. Deterministic and recomputable without storage.
func BucketUser(userID uint, testID string, controlPercentage int) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", userID, testID)))

	if int(h.Sum32()%100) < controlPercentage {
		return domain.GroupControl
	}

	return domain.GroupTreatment
}

// ShouldUseRL gates the engine's policy choice. Bucketing is advisory:
// a lookup failure must never take serving down, so it defaults to the
// learned ranking.
func (s *Service) ShouldUseRL(ctx context.Context, userID uint) bool {
	group, err := s.UserGroup(ctx, userID)
	if err != nil {
		logger.Warn("ab_group_lookup_failed", "user_id", userID, "error", err)
		return true
	}

	return group == domain.GroupTreatment
}

// StartTest activates a new experiment, ending any currently active one
// first so at most one test is ever active.
func (s *Service) StartTest(ctx context.Context, name string, controlPercentage, durationDays int, description string) (*domain.ABTest, error) {
	if name == "" {
		return nil, fmt.Errorf("test name is required")
	}
	if controlPercentage < 0 || controlPercentage > 100 {
		return nil, fmt.Errorf("control percentage must be within [0, 100]")
	}
	if durationDays <= 0 {
		durationDays = 14
	}

	current, err := s.testRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active test: %w", err)
	}
	if current != nil {
		now := time.Now()
		current.Status = domain.TestStatusEnded
		current.EndedAt = &now
		if err := s.testRepo.Save(ctx, current); err != nil {
			return nil, fmt.Errorf("end previous test: %w", err)
		}
		logger.Info("abtest_ended_for_replacement", "test_id", current.ID)
	}

	now := time.Now()
	test := &domain.ABTest{
		ID:                uuid.NewString(),
		Name:              name,
		Description:       description,
		ControlPercentage: controlPercentage,
		Status:            domain.TestStatusActive,
		StartedAt:         now,
		EndsAt:            now.AddDate(0, 0, durationDays),
	}
	if err := s.testRepo.Save(ctx, test); err != nil {
		return nil, fmt.Errorf("save test: %w", err)
	}

	logger.Info("abtest_started",
		"test_id", test.ID,
		"name", name,
		"control_percentage", controlPercentage,
		"duration_days", durationDays,
	)

	return test, nil
}

// TestMetrics partitions the test's users by group and aggregates their
// interactions over the trailing window, then runs the significance test
// on CTR.
func (s *Service) TestMetrics(ctx context.Context, testID string, days int) (*domain.TestMetrics, error) {
	if days <= 0 {
		days = 7
	}

	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	if test == nil {
		return nil, fmt.Errorf("test %s not found", testID)
	}

	assignments, err := s.assignRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}

	groupOf := make(map[uint]string, len(assignments))
	var control, treatment domain.GroupMetrics
	for _, a := range assignments {
		groupOf[a.UserID] = a.Group
		if a.Group == domain.GroupControl {
			control.UserCount++
		} else {
			treatment.UserCount++
		}
	}

	events, err := s.interactionRepo.ListSince(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("load interaction window: %w", err)
	}

	controlRewards := rewardAccumulator{}
	treatmentRewards := rewardAccumulator{}

	for _, ev := range events {
		group, ok := groupOf[ev.UserID]
		if !ok {
			continue
		}

		m := &treatment
		acc := &treatmentRewards
		if group == domain.GroupControl {
			m = &control
			acc = &controlRewards
		}

		switch ev.InteractionType {
		case domain.InteractionImpression:
			m.Impressions++
		case domain.InteractionClick:
			m.Clicks++
		case domain.InteractionBookmark:
			m.Bookmarks++
		}

		acc.add(s.calculator.ForEvent(ev))
	}

	finalizeGroup(&control, controlRewards)
	finalizeGroup(&treatment, treatmentRewards)

	significance := safeSignificance(
		control.Clicks, control.Impressions,
		treatment.Clicks, treatment.Impressions,
		s.cfg.MinSampleSize, s.cfg.ConfidenceLevel,
	)

	metrics := &domain.TestMetrics{
		TestID:       testID,
		WindowDays:   days,
		Control:      control,
		Treatment:    treatment,
		Significance: significance,
		Winner:       s.determineWinner(control, treatment, significance),
	}

	logger.Debug("abtest_metrics",
		"test_id", testID,
		"window_days", days,
		"control_impressions", control.Impressions,
		"treatment_impressions", treatment.Impressions,
		"significant", significance.Significant,
		"winner", metrics.Winner,
	)

	return metrics, nil
}

// determineWinner requires statistical significance and a material effect;
// CTR decides, engagement rate breaks ties. Anything else is inconclusive.
func (s *Service) determineWinner(control, treatment domain.GroupMetrics, sig domain.SignificanceResult) string {
	if !sig.Significant || sig.EffectSize < s.cfg.MinimumEffectSize {
		return ""
	}

	switch {
	case treatment.CTR > control.CTR:
		return domain.GroupTreatment
	case control.CTR > treatment.CTR:
		return domain.GroupControl
	case treatment.EngagementRate > control.EngagementRate:
		return domain.GroupTreatment
	case control.EngagementRate > treatment.EngagementRate:
		return domain.GroupControl
	default:
		return ""
	}
}

// EndTestAndRollout closes the test with metrics recomputed over 30 days,
// stamps the winner, writes the permanent result record, and returns the
// rollout recommendation.
func (s *Service) EndTestAndRollout(ctx context.Context, testID string) (*domain.RolloutDecision, error) {
	metrics, err := s.TestMetrics(ctx, testID, 30)
	if err != nil {
		return nil, err
	}

	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	if test == nil {
		return nil, fmt.Errorf("test %s not found", testID)
	}

	now := time.Now()
	test.Status = domain.TestStatusEnded
	test.EndedAt = &now
	if metrics.Winner != "" {
		winner := metrics.Winner
		test.Winner = &winner
	}
	if err := s.testRepo.Save(ctx, test); err != nil {
		return nil, fmt.Errorf("end test: %w", err)
	}

	recommendation := rolloutRecommendation(metrics.Winner)

	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	result := &domain.ABTestResult{
		TestID:         testID,
		Winner:         metrics.Winner,
		MetricsJSON:    metricsJSON,
		Recommendation: recommendation,
		CreatedAt:      now,
	}
	if err := s.resultRepo.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("save test result: %w", err)
	}

	logger.Info("abtest_rollout",
		"test_id", testID,
		"winner", metrics.Winner,
		"recommendation", recommendation,
	)

	return &domain.RolloutDecision{
		Test:           *test,
		Metrics:        metrics,
		Recommendation: recommendation,
	}, nil
}

func rolloutRecommendation(winner string) string {
	switch winner {
	case domain.GroupTreatment:
		return "roll out the learned ranking policy"
	case domain.GroupControl:
		return "roll out the baseline similarity ranking"
	default:
		return "maintain status quo; test inconclusive"
	}
}

// ---- helpers ----

type rewardAccumulator struct {
	sum   float64
	count int
}

func (a *rewardAccumulator) add(r float64) {
	a.sum += r
	a.count++
}

func finalizeGroup(m *domain.GroupMetrics, rewards rewardAccumulator) {
	if m.Impressions > 0 {
		interactions := rewards.count - m.Impressions
		m.CTR = float64(m.Clicks) / float64(m.Impressions) * 100
		m.EngagementRate = float64(interactions) / float64(m.Impressions) * 100
	}
	if rewards.count > 0 {
		m.AvgReward = rewards.sum / float64(rewards.count)
	}
}
