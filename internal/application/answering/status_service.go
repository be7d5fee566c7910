package answering

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
)

// ProjectStatusResult is the polling payload for a project
type ProjectStatusResult struct {
	ProjectID uuid.UUID               `json:"project_id"`
	Status    answering.ProjectStatus `json:"status"`
	RowStats  answering.RowStats      `json:"row_stats"`
}

// StatusService serves the read surface: status polling, row listing, and
// the answer history log. Every read is owner-scoped; a project belonging
// to someone else reads as NOT_FOUND.
type StatusService struct {
	projects answering.ProjectRepository
	rows     answering.RowRepository
	history  answering.AnswerHistoryRepository
	auth     answering.Authorizer
}

// NewStatusService creates a new status service
func NewStatusService(
	projects answering.ProjectRepository,
	rows answering.RowRepository,
	history answering.AnswerHistoryRepository,
	auth answering.Authorizer,
) *StatusService {
	return &StatusService{
		projects: projects,
		rows:     rows,
		history:  history,
		auth:     auth,
	}
}

// GetStatus returns the project status together with aggregated row counts.
// Rows stuck in PROCESSING after a crashed run show up here, which is how
// operators notice a run that needs manual recovery.
func (s *StatusService) GetStatus(ctx context.Context, actorID, projectID uuid.UUID) (*ProjectStatusResult, error) {
	project, err := s.loadOwnedProject(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	stats, err := s.rows.StatsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &ProjectStatusResult{
		ProjectID: project.ID,
		Status:    project.Status,
		RowStats:  stats,
	}, nil
}

// GetProject returns the project aggregate
func (s *StatusService) GetProject(ctx context.Context, actorID, projectID uuid.UUID) (*answering.Project, error) {
	return s.loadOwnedProject(ctx, actorID, projectID)
}

// ListRows returns a page of the project's rows
func (s *StatusService) ListRows(ctx context.Context, actorID, projectID uuid.UUID, filter shared.Filter) (*shared.Paginated[*answering.Row], error) {
	if _, err := s.loadOwnedProject(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	return s.rows.FindByProject(ctx, projectID, filter)
}

// ListHistory returns a page of the project's answer history log
func (s *StatusService) ListHistory(ctx context.Context, actorID, projectID uuid.UUID, filter shared.Filter) (*shared.Paginated[*answering.AnswerHistory], error) {
	if _, err := s.loadOwnedProject(ctx, actorID, projectID); err != nil {
		return nil, err
	}
	return s.history.FindByProject(ctx, projectID, filter)
}

// loadOwnedProject loads the project and hides it behind NOT_FOUND when the
// actor does not own it, so reads cannot probe for other users' projects.
func (s *StatusService) loadOwnedProject(ctx context.Context, actorID, projectID uuid.UUID) (*answering.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	ok, err := s.auth.CanManage(ctx, actorID, project)
	if err != nil {
		return nil, fmt.Errorf("authorization check failed: %w", err)
	}
	if !ok {
		return nil, shared.ErrNotFound
	}
	return project, nil
}
