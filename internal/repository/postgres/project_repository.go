package postgres

import (
	"context"
	"fmt"

	"cochain/domain"

	"gorm.io/gorm"
)

type ProjectRepository struct {
	DB *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

func (r *ProjectRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var projects []domain.Project
	if err := r.DB.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	return projects, nil
}
