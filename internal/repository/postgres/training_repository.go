package postgres

import (
	"context"
	"fmt"

	"cochain/domain"

	"gorm.io/gorm"
)

type TrainingRepository struct {
	DB *gorm.DB
}

func NewTrainingRepository(db *gorm.DB) *TrainingRepository {
	return &TrainingRepository{DB: db}
}

func (r *TrainingRepository) Save(ctx context.Context, run *domain.TrainingRun) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}

	return nil
}

func (r *TrainingRepository) ListRecent(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var runs []domain.TrainingRun
	if err := r.DB.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}

	return runs, nil
}
