package answering

import (
	"context"

	"github.com/google/uuid"
)

// DispatchJob is the unit of work enqueued for the worker process. It
// describes the full request; the worker re-resolves rows and skills so a
// stale job cannot clobber state that moved on.
type DispatchJob struct {
	JobID      string      `json:"job_id"`
	ProjectID  uuid.UUID   `json:"project_id"`
	SkillIDs   []uuid.UUID `json:"skill_ids"`
	BatchSize  int         `json:"batch_size"`
	ModelSpeed ModelSpeed  `json:"model_speed"`
	// PrevStatus is the project status before dispatch, the revert target
	// on run-fatal failure.
	PrevStatus ProjectStatus `json:"prev_status"`
	// RequestedBy is the dispatching user, kept for the audit trail.
	RequestedBy uuid.UUID `json:"requested_by"`
}

// JobQueue abstracts the queue backend. The broker's own delivery and retry
// guarantees are external infrastructure; the pipeline only relies on this
// narrow surface.
type JobQueue interface {
	// Enqueue submits a single job describing the full request and returns
	// a job identifier.
	Enqueue(ctx context.Context, job DispatchJob) (string, error)

	// IsConfigured reports whether a queue backend is configured and
	// reachable. When false, dispatch falls back to sync-background mode.
	IsConfigured() bool
}

// Authorizer answers project-level permission checks. User management and
// session handling live outside this service.
type Authorizer interface {
	CanManage(ctx context.Context, userID uuid.UUID, project *Project) (bool, error)
}
