package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/skillbase/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAnswerHistoryRepository implements answering.AnswerHistoryRepository using GORM
type GormAnswerHistoryRepository struct {
	db *gorm.DB
}

// NewGormAnswerHistoryRepository creates a new GormAnswerHistoryRepository
func NewGormAnswerHistoryRepository(db *gorm.DB) *GormAnswerHistoryRepository {
	return &GormAnswerHistoryRepository{db: db}
}

// Append writes a run's audit records in a single insert. The log is
// append-only; there is no update path.
func (r *GormAnswerHistoryRepository) Append(ctx context.Context, records []*answering.AnswerHistory) error {
	if len(records) == 0 {
		return nil
	}
	historyModels := make([]*models.AnswerHistoryModel, len(records))
	for i, record := range records {
		historyModels[i] = models.AnswerHistoryModelFromDomain(record)
	}
	return r.db.WithContext(ctx).Create(&historyModels).Error
}

// FindByProject returns a project's audit records with pagination
func (r *GormAnswerHistoryRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) (*shared.Paginated[*answering.AnswerHistory], error) {
	query := r.db.WithContext(ctx).Model(&models.AnswerHistoryModel{}).
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

	orderBy := ValidateSortField(filter.OrderBy, AnswerHistorySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var historyModels []models.AnswerHistoryModel
	if err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&historyModels).Error; err != nil {
		return nil, err
	}

	records := make([]*answering.AnswerHistory, len(historyModels))
	for i := range historyModels {
		records[i] = historyModels[i].ToDomain()
	}

	result := shared.NewPaginated(records, total, page, pageSize)
	return &result, nil
}

// Compile-time interface compliance check
var _ answering.AnswerHistoryRepository = (*GormAnswerHistoryRepository)(nil)
