package postgres

import (
	"context"
	"fmt"

	"cochain/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BanditStateRepository struct {
	DB *gorm.DB
}

func NewBanditStateRepository(db *gorm.DB) *BanditStateRepository {
	return &BanditStateRepository{DB: db}
}

func (r *BanditStateRepository) GetState(ctx context.Context, projectID uint64) (*domain.BanditState, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var state domain.BanditState
	err := r.DB.WithContext(ctx).First(&state, "project_id = ?", projectID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bandit_states: %w", err)
	}

	return &state, nil
}

func (r *BanditStateRepository) SaveState(ctx context.Context, state *domain.BanditState) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			UpdateAll: true,
		},
	).Create(state).Error; err != nil {
		return fmt.Errorf("failed to upsert bandit_states: %w", err)
	}

	return nil
}

func (r *BanditStateRepository) DeleteState(ctx context.Context, projectID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Delete(&domain.BanditState{}, "project_id = ?", projectID).Error; err != nil {
		return fmt.Errorf("failed to delete bandit_states: %w", err)
	}

	return nil
}

func (r *BanditStateRepository) ListStates(ctx context.Context) ([]domain.BanditState, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var states []domain.BanditState
	if err := r.DB.WithContext(ctx).Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to list bandit_states: %w", err)
	}

	return states, nil
}
