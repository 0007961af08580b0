package postgres

import (
	"context"
	"fmt"
	"time"

	"cochain/domain"

	"gorm.io/gorm"
)

type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

func (r *InteractionRepository) Save(ctx context.Context, event *domain.InteractionEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to save interaction event: %w", err)
	}

	return nil
}

func (r *InteractionRepository) ListSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var events []domain.InteractionEvent
	if err := r.DB.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at asc").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list interaction events: %w", err)
	}

	return events, nil
}
