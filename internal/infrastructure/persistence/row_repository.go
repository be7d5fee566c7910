package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/skillbase/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRowRepository implements answering.RowRepository using GORM
type GormRowRepository struct {
	db *gorm.DB
}

// NewGormRowRepository creates a new GormRowRepository
func NewGormRowRepository(db *gorm.DB) *GormRowRepository {
	return &GormRowRepository{db: db}
}

// FindByID finds a row by ID
func (r *GormRowRepository) FindByID(ctx context.Context, id uuid.UUID) (*answering.Row, error) {
	var model models.RowModel
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

// FindByProject returns a project's rows with pagination and sorting
func (r *GormRowRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) (*shared.Paginated[*answering.Row], error) {
	query := r.db.WithContext(ctx).Model(&models.RowModel{}).
		Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	orderBy := ValidateSortField(filter.OrderBy, RowSortFields, "row_number")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rowModels []models.RowModel
	if err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rowModels).Error; err != nil {
		return nil, err
	}

	rows := make([]*answering.Row, len(rowModels))
	for i := range rowModels {
		rows[i] = rowModels[i].ToDomain()
	}

	result := shared.NewPaginated(rows, total, page, pageSize)
	return &result, nil
}

// FindPendingByProject returns the project's PENDING rows in row-number order,
// the order a run claims and processes them in.
func (r *GormRowRepository) FindPendingByProject(ctx context.Context, projectID uuid.UUID) ([]*answering.Row, error) {
	var rowModels []models.RowModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, answering.RowStatusPending).
		Order("row_number ASC").
		Find(&rowModels).Error; err != nil {
		return nil, err
	}

	rows := make([]*answering.Row, len(rowModels))
	for i := range rowModels {
		rows[i] = rowModels[i].ToDomain()
	}
	return rows, nil
}

// ClaimPending conditionally transitions the given rows PENDING -> PROCESSING
// in a single guarded update. The status guard in the WHERE clause is what
// keeps two concurrent runs from processing the same row: rows already taken
// simply do not match, and the caller compares the affected count.
func (r *GormRowRepository) ClaimPending(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.RowModel{}).
		Where("id IN ? AND status = ?", ids, answering.RowStatusPending).
		Updates(map[string]any{
			"status":  answering.RowStatusProcessing,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RevertToPending undoes a run's claims: every given row still PROCESSING, or
// COMPLETED within the same run, goes back to PENDING with its output cleared.
func (r *GormRowRepository) RevertToPending(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.RowModel{}).
		Where("id IN ? AND status IN ?", ids,
			[]answering.RowStatus{answering.RowStatusProcessing, answering.RowStatusCompleted}).
		Updates(map[string]any{
			"status":  answering.RowStatusPending,
			"output":  nil,
			"version": gorm.Expr("version + 1"),
		}).Error
}

// Save saves a row (create or update)
func (r *GormRowRepository) Save(ctx context.Context, row *answering.Row) error {
	model := models.RowModelFromDomain(row)
	return r.db.WithContext(ctx).Save(model).Error
}

// StatsByProject aggregates row statuses for the polling surface
func (r *GormRowRepository) StatsByProject(ctx context.Context, projectID uuid.UUID) (answering.RowStats, error) {
	var counts []struct {
		Status answering.RowStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.RowModel{}).
		Select("status, count(*) as count").
		Where("project_id = ?", projectID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return answering.RowStats{}, err
	}

	var stats answering.RowStats
	for _, c := range counts {
		switch c.Status {
		case answering.RowStatusPending:
			stats.Pending = c.Count
		case answering.RowStatusProcessing:
			stats.Processing = c.Count
		case answering.RowStatusCompleted:
			stats.Completed = c.Count
		case answering.RowStatusError:
			stats.Error = c.Count
		}
	}
	return stats, nil
}

// Compile-time interface compliance check
var _ answering.RowRepository = (*GormRowRepository)(nil)
