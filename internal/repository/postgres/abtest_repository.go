package postgres

import (
	"context"
	"fmt"

	"cochain/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ABTestRepository struct {
	DB *gorm.DB
}

func NewABTestRepository(db *gorm.DB) *ABTestRepository {
	return &ABTestRepository{DB: db}
}

func (r *ABTestRepository) GetActive(ctx context.Context) (*domain.ABTest, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var test domain.ABTest
	err := r.DB.WithContext(ctx).
		Where("status = ?", domain.TestStatusActive).
		Order("started_at desc").
		First(&test).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active ab_test: %w", err)
	}

	return &test, nil
}

func (r *ABTestRepository) GetByID(ctx context.Context, id string) (*domain.ABTest, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var test domain.ABTest
	err := r.DB.WithContext(ctx).First(&test, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ab_test: %w", err)
	}

	return &test, nil
}

func (r *ABTestRepository) Save(ctx context.Context, test *domain.ABTest) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		},
	).Create(test).Error; err != nil {
		return fmt.Errorf("failed to upsert ab_test: %w", err)
	}

	return nil
}

type ABAssignmentRepository struct {
	DB *gorm.DB
}

func NewABAssignmentRepository(db *gorm.DB) *ABAssignmentRepository {
	return &ABAssignmentRepository{DB: db}
}

// Get returns the user's most recent assignment across tests, so callers can
// detect rows left over from an earlier test.
func (r *ABAssignmentRepository) Get(ctx context.Context, userID uint) (*domain.ABAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var assignment domain.ABAssignment
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("assigned_at desc").
		First(&assignment).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ab_assignment: %w", err)
	}

	return &assignment, nil
}

func (r *ABAssignmentRepository) Upsert(ctx context.Context, assignment *domain.ABAssignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "test_id"}},
			UpdateAll: true,
		},
	).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to upsert ab_assignment: %w", err)
	}

	return nil
}

func (r *ABAssignmentRepository) DeleteForUser(ctx context.Context, userID uint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).
		Delete(&domain.ABAssignment{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to delete ab_assignments: %w", err)
	}

	return nil
}

func (r *ABAssignmentRepository) ListByTest(ctx context.Context, testID string) ([]domain.ABAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var assignments []domain.ABAssignment
	if err := r.DB.WithContext(ctx).
		Where("test_id = ?", testID).
		Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to list ab_assignments: %w", err)
	}

	return assignments, nil
}

type ABTestResultRepository struct {
	DB *gorm.DB
}

func NewABTestResultRepository(db *gorm.DB) *ABTestResultRepository {
	return &ABTestResultRepository{DB: db}
}

func (r *ABTestResultRepository) Save(ctx context.Context, result *domain.ABTestResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to save ab_test_result: %w", err)
	}

	return nil
}
