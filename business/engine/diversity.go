package engine

import (
	"context"
	"fmt"
	"time"

	"cochain/domain"
)

// diversityFloor is the minimum diversity score a candidate needs before the
// greedy pass will pick it over plain relevance.
const diversityFloor = 0.3

type diverseCandidate struct {
	rec        domain.Recommendation
	domainName string
	complexity string
}

// GetDiverseRecommendations re-ranks bandit-scored candidates for topical
// spread: the top item is always kept, then items are added greedily by
// (1-factor)*rl_score + factor*diversity_score while their diversity score
// clears the floor. If too few candidates pass the bar, the remainder is
// backfilled by descending rl_score, so the list always reaches count when
// enough candidates exist.
func (s *Service) GetDiverseRecommendations(ctx context.Context, userID uint, count int, diversityFactor float64) (*domain.RecommendationResult, error) {
	start := time.Now()

	if count <= 0 {
		count = 10
	}
	if diversityFactor < 0 {
		diversityFactor = 0
	}
	if diversityFactor > 1 {
		diversityFactor = 1
	}

	candidates, err := s.ranker.Rank(ctx, userID, count*candidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return &domain.RecommendationResult{
			UserID:          userID,
			Recommendations: []domain.Recommendation{},
			Method:          domain.MethodNoResults,
			DurationMS:      time.Since(start).Milliseconds(),
			GeneratedAt:     time.Now(),
		}, nil
	}

	scored, err := s.bandit.Rank(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("bandit rank: %w", err)
	}

	pool, err := s.diversePool(ctx, scored)
	if err != nil {
		return nil, err
	}

	selected := selectDiverse(pool, count, diversityFactor)

	recs := make([]domain.Recommendation, 0, len(selected))
	for _, dc := range selected {
		rec := dc.rec
		rec.Domain = dc.domainName
		rec.Complexity = dc.complexity
		recs = append(recs, rec)
	}

	if err := s.enrich(ctx, recs); err != nil {
		return nil, err
	}
	if err := s.recordImpressions(ctx, userID, recs, 0, len(recs)); err != nil {
		return nil, err
	}

	return &domain.RecommendationResult{
		UserID:          userID,
		Recommendations: recs,
		TotalCount:      len(recs),
		Method:          domain.MethodRLEnhanced,
		DurationMS:      time.Since(start).Milliseconds(),
		GeneratedAt:     time.Now(),
	}, nil
}

// diversePool attaches catalog attributes the diversity score needs.
func (s *Service) diversePool(ctx context.Context, scored []domain.ScoredProject) ([]diverseCandidate, error) {
	ids := make([]uint64, 0, len(scored))
	for _, sp := range scored {
		ids = append(ids, sp.ProjectID)
	}

	projects, err := s.projectRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	byID := make(map[uint64]domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	pool := make([]diverseCandidate, 0, len(scored))
	for _, sp := range scored {
		score := sp.BanditScore
		dc := diverseCandidate{
			rec: domain.Recommendation{
				ProjectID:       sp.ProjectID,
				SimilarityScore: sp.SimilarityScore,
				RLScore:         &score,
				Strategy:        sp.Strategy,
			},
		}
		if p, ok := byID[sp.ProjectID]; ok {
			dc.domainName = p.Domain
			dc.complexity = p.Complexity
		}
		pool = append(pool, dc)
	}

	return pool, nil
}

// selectDiverse expects pool ordered by descending rl_score.
func selectDiverse(pool []diverseCandidate, count int, factor float64) []diverseCandidate {
	if len(pool) == 0 || count <= 0 {
		return nil
	}

	selected := make([]diverseCandidate, 0, count)
	used := make(map[int]bool, count)

	// The most relevant item always leads the list.
	selected = append(selected, pool[0])
	used[0] = true

	for len(selected) < count {
		bestIdx := -1
		bestScore := 0.0

		for i, cand := range pool {
			if used[i] {
				continue
			}

			div := diversityScore(cand, selected)
			if div <= diversityFloor {
				continue
			}

			blended := (1-factor)*rlScore(cand) + factor*div
			if bestIdx == -1 || blended > bestScore {
				bestIdx = i
				bestScore = blended
			}
		}

		if bestIdx == -1 {
			break
		}
		selected = append(selected, pool[bestIdx])
		used[bestIdx] = true
	}

	// Backfill with the remaining best items, keeping rl_score order.
	for i := 0; len(selected) < count && i < len(pool); i++ {
		if used[i] {
			continue
		}
		selected = append(selected, pool[i])
		used[i] = true
	}

	return selected
}

// diversityScore is 1.0 when both domain and complexity differ from every
// already-selected item, 0.5 when exactly one dimension collides, 0 when
// both do.
func diversityScore(cand diverseCandidate, selected []diverseCandidate) float64 {
	domainMatch := false
	complexityMatch := false

	for _, sel := range selected {
		if cand.domainName == sel.domainName {
			domainMatch = true
		}
		if cand.complexity == sel.complexity {
			complexityMatch = true
		}
	}

	switch {
	case !domainMatch && !complexityMatch:
		return 1.0
	case domainMatch && complexityMatch:
		return 0.0
	default:
		return 0.5
	}
}

func rlScore(dc diverseCandidate) float64 {
	if dc.rec.RLScore == nil {
		return dc.rec.SimilarityScore
	}

	return *dc.rec.RLScore
}
