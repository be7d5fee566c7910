package answering

import (
	"context"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/shared"
)

// RowStats aggregates row statuses for the polling surface
type RowStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Error      int64 `json:"error"`
}

// Total returns the total number of rows counted
func (s RowStats) Total() int64 {
	return s.Pending + s.Processing + s.Completed + s.Error
}

// AllTerminal reports whether every row is COMPLETED or ERROR
func (s RowStats) AllTerminal() bool {
	return s.Pending == 0 && s.Processing == 0
}

// ProjectRepository defines persistence for projects
type ProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Save(ctx context.Context, project *Project) error

	// TransitionStatus performs an atomic check-and-set on the project
	// status. It returns shared.ErrConcurrencyConflict when the project is
	// no longer in the expected status, which is how a concurrent dispatch
	// against an already-PROCESSING project is rejected.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to ProjectStatus) error
}

// RowRepository defines persistence for rows
type RowRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Row, error)
	FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Row], error)

	// FindPendingByProject returns the project's PENDING rows in row-number
	// order, the order a run claims and processes them in.
	FindPendingByProject(ctx context.Context, projectID uuid.UUID) ([]*Row, error)

	// ClaimPending conditionally transitions the given rows from PENDING to
	// PROCESSING in a single guarded update and returns how many rows were
	// actually claimed. A count short of len(ids) means another dispatch got
	// there first; callers must treat that as a conflict, not claim the rest.
	ClaimPending(ctx context.Context, ids []uuid.UUID) (int64, error)

	// RevertToPending undoes a run's claims: every given row in PROCESSING
	// or COMPLETED goes back to PENDING with its output cleared.
	RevertToPending(ctx context.Context, ids []uuid.UUID) error

	Save(ctx context.Context, row *Row) error
	StatsByProject(ctx context.Context, projectID uuid.UUID) (RowStats, error)
}

// AnswerHistoryRepository defines persistence for the audit history log
type AnswerHistoryRepository interface {
	Append(ctx context.Context, records []*AnswerHistory) error
	FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) (*shared.Paginated[*AnswerHistory], error)
}
