package postgres

import (
	"context"
	"fmt"
	"time"

	"cochain/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecommendationCacheRepository struct {
	DB *gorm.DB
}

func NewRecommendationCacheRepository(db *gorm.DB) *RecommendationCacheRepository {
	return &RecommendationCacheRepository{DB: db}
}

func (r *RecommendationCacheRepository) Get(ctx context.Context, userID uint) (*domain.RecommendationCache, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var entry domain.RecommendationCache
	err := r.DB.WithContext(ctx).First(&entry, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation_caches: %w", err)
	}

	return &entry, nil
}

func (r *RecommendationCacheRepository) Save(ctx context.Context, entry *domain.RecommendationCache) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		},
	).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to upsert recommendation_caches: %w", err)
	}

	return nil
}

// ClearBandit nulls only the bandit-ranked list; the similarity list stays
// valid until the profile signature changes.
func (r *RecommendationCacheRepository) ClearBandit(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).
		Model(&domain.RecommendationCache{}).
		Where("user_id = ?", userID).
		Update("bandit_json", nil).Error; err != nil {
		return fmt.Errorf("failed to clear bandit cache: %w", err)
	}

	return nil
}

func (r *RecommendationCacheRepository) DeleteUntouchedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	res := r.DB.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&domain.RecommendationCache{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep recommendation_caches: %w", res.Error)
	}

	return res.RowsAffected, nil
}
