package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/skillbase/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProjectRepository implements answering.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*answering.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save saves a project (create or update)
func (r *GormProjectRepository) Save(ctx context.Context, project *answering.Project) error {
	model := models.ProjectModelFromDomain(project)
	return r.db.WithContext(ctx).Save(model).Error
}

// TransitionStatus performs an atomic check-and-set on the project status.
// The WHERE clause on the current status makes concurrent dispatches race
// safely: exactly one update wins, the rest see zero affected rows.
func (r *GormProjectRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to answering.ProjectStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProjectModel{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing project from a lost race.
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ProjectModel{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Compile-time interface compliance check
var _ answering.ProjectRepository = (*GormProjectRepository)(nil)
