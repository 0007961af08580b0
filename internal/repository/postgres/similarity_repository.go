package postgres

import (
	"context"
	"crypto/md5"
	"fmt"

	"cochain/domain"

	"gorm.io/gorm"
)

// SimilarityRepository serves precomputed content-similarity scores. It is
// the engine's candidate source; the embedding pipeline filling the
// project_similarities and user_features tables runs elsewhere.
type SimilarityRepository struct {
	DB *gorm.DB
}

func NewSimilarityRepository(db *gorm.DB) *SimilarityRepository {
	return &SimilarityRepository{DB: db}
}

func (r *SimilarityRepository) Rank(ctx context.Context, userID uint, limit int) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.ProjectSimilarity
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("score desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query project_similarities: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, domain.Candidate{
			ProjectID:  row.ProjectID,
			Similarity: row.Score,
		})
	}

	return candidates, nil
}

// ProfileHash digests the user's feature rows in a fixed order. Any feature
// added, removed or reweighted changes the hash and invalidates cached lists.
func (r *SimilarityRepository) ProfileHash(ctx context.Context, userID uint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	var features []domain.UserFeature
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("feature asc").
		Find(&features).Error; err != nil {
		return "", fmt.Errorf("failed to query user_features: %w", err)
	}

	h := md5.New()
	for _, f := range features {
		fmt.Fprintf(h, "%s=%.6f;", f.Feature, f.Weight)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
