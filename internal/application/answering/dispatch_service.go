package answering

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/skillbase/backend/internal/infrastructure/config"
)

// Dispatch modes reported back to the caller
const (
	DispatchModeQueued     = "queued"
	DispatchModeBackground = "background"
)

// DispatchInput carries a dispatch request
type DispatchInput struct {
	ProjectID   uuid.UUID
	RequestedBy uuid.UUID
	// Mode defaults to manual when SkillIDs are given, auto otherwise.
	Mode     SelectionMode
	SkillIDs []uuid.UUID
	// BatchSize 0 falls back to the project config, then the service default.
	BatchSize int
	// ModelSpeed "" falls back to the project config.
	ModelSpeed answering.ModelSpeed
}

// DispatchResult describes an accepted dispatch
type DispatchResult struct {
	Mode           string      `json:"mode"`
	JobID          string      `json:"job_id,omitempty"`
	TotalQuestions int         `json:"total_questions"`
	BatchSize      int         `json:"batch_size"`
	SkillCount     int         `json:"skill_count"`
	SkillIDs       []uuid.UUID `json:"skill_ids"`
}

// DispatchService validates and launches processing runs. The project is
// atomically moved to PROCESSING before any work is enqueued or spawned, so
// two concurrent dispatches can never both win.
type DispatchService struct {
	projects  answering.ProjectRepository
	rows      answering.RowRepository
	selector  *SkillSelector
	processor *BatchProcessor
	queue     answering.JobQueue
	auth      answering.Authorizer
	runner    *TaskRunner
	cfg       config.AnsweringConfig
	logger    *zap.Logger
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(
	projects answering.ProjectRepository,
	rows answering.RowRepository,
	selector *SkillSelector,
	processor *BatchProcessor,
	queue answering.JobQueue,
	auth answering.Authorizer,
	runner *TaskRunner,
	cfg config.AnsweringConfig,
	logger *zap.Logger,
) *DispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{
		projects:  projects,
		rows:      rows,
		selector:  selector,
		processor: processor,
		queue:     queue,
		auth:      auth,
		runner:    runner,
		cfg:       cfg,
		logger:    logger,
	}
}

// Dispatch validates the request, claims the project, and hands the run to
// the queue or a background task.
func (s *DispatchService) Dispatch(ctx context.Context, input DispatchInput) (*DispatchResult, error) {
	project, err := s.projects.FindByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	ok, err := s.auth.CanManage(ctx, input.RequestedBy, project)
	if err != nil {
		return nil, fmt.Errorf("authorization check failed: %w", err)
	}
	if !ok {
		return nil, shared.ErrForbidden
	}

	if project.Status == answering.ProjectStatusProcessing {
		return nil, shared.ErrAlreadyProcessing
	}

	batchSize, err := s.resolveBatchSize(input, project)
	if err != nil {
		return nil, err
	}
	speed, err := resolveModelSpeed(input, project)
	if err != nil {
		return nil, err
	}
	mode := input.Mode
	if mode == "" {
		mode = SelectionModeAuto
		if len(input.SkillIDs) > 0 {
			mode = SelectionModeManual
		}
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_SELECTION_MODE",
			fmt.Sprintf("Invalid selection mode: %s", mode))
	}

	pending, err := s.rows.FindPendingByProject(ctx, input.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending rows: %w", err)
	}
	if len(pending) == 0 {
		return nil, shared.NewDomainError("NO_PENDING_ROWS", "Project has no pending questions to process")
	}

	selection, err := s.selector.Select(ctx, project, pending, mode, input.SkillIDs)
	if err != nil {
		return nil, err
	}
	if selection.IsEmpty() {
		return nil, shared.ErrNoValidSkills
	}

	// Only DRAFT projects are dispatchable; a completed or errored project
	// needs a fresh draft. BeginProcessing enforces that on the aggregate,
	// then the conditional update claims it against concurrent dispatches.
	if err := project.BeginProcessing(); err != nil {
		return nil, err
	}
	prevStatus := answering.ProjectStatusDraft
	if err := s.projects.TransitionStatus(ctx, project.ID, prevStatus, answering.ProjectStatusProcessing); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, shared.ErrAlreadyProcessing
		}
		return nil, err
	}

	job := answering.DispatchJob{
		ProjectID:   project.ID,
		SkillIDs:    selection.SkillIDs(),
		BatchSize:   batchSize,
		ModelSpeed:  speed,
		PrevStatus:  prevStatus,
		RequestedBy: input.RequestedBy,
	}

	result := &DispatchResult{
		TotalQuestions: len(pending),
		BatchSize:      batchSize,
		SkillCount:     len(selection.Candidates),
		SkillIDs:       job.SkillIDs,
	}

	if s.queue != nil && s.queue.IsConfigured() {
		jobID, err := s.queue.Enqueue(ctx, job)
		if err != nil {
			// Undo the claim so the project is dispatchable again.
			s.rollbackClaim(ctx, project.ID, prevStatus)
			return nil, fmt.Errorf("failed to enqueue dispatch job: %w", err)
		}
		result.Mode = DispatchModeQueued
		result.JobID = jobID
		s.logger.Info("dispatch queued",
			zap.String("project_id", project.ID.String()),
			zap.String("job_id", jobID),
			zap.Int("rows", len(pending)),
			zap.Int("skills", result.SkillCount),
		)
		return result, nil
	}

	job.JobID = uuid.New().String()
	result.Mode = DispatchModeBackground
	result.JobID = job.JobID
	s.runner.Go("answering-run-"+job.JobID,
		func(taskCtx context.Context) {
			if err := s.processor.Run(taskCtx, job); err != nil {
				s.logger.Error("background run failed",
					zap.String("project_id", project.ID.String()),
					zap.String("job_id", job.JobID),
					zap.Error(err))
			}
		},
		func(taskCtx context.Context) {
			s.settleAfterPanic(taskCtx, project.ID)
		},
	)
	s.logger.Info("dispatch running in background",
		zap.String("project_id", project.ID.String()),
		zap.String("job_id", job.JobID),
		zap.Int("rows", len(pending)),
		zap.Int("skills", result.SkillCount),
	)
	return result, nil
}

// ProcessJob runs a dequeued dispatch job. It is the worker-side entry point
// sharing the processor with the background path: a panicking run settles
// the project as ERROR here, the same way the background hook does, so the
// project never stays PROCESSING after a definitive failure.
func (s *DispatchService) ProcessJob(ctx context.Context, job answering.DispatchJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during queued run",
				zap.String("project_id", job.ProjectID.String()),
				zap.String("job_id", job.JobID),
				zap.Any("panic", r),
				zap.Stack("stacktrace"))
			s.settleAfterPanic(ctx, job.ProjectID)
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return s.processor.Run(ctx, job)
}

// settleAfterPanic marks a project ERROR after a run that never reached the
// processor's own settlement.
func (s *DispatchService) settleAfterPanic(ctx context.Context, projectID uuid.UUID) {
	if err := s.projects.TransitionStatus(ctx, projectID,
		answering.ProjectStatusProcessing, answering.ProjectStatusError); err != nil {
		s.logger.Error("failed to mark project as errored after panic",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}
}

func (s *DispatchService) resolveBatchSize(input DispatchInput, project *answering.Project) (int, error) {
	size := input.BatchSize
	if size == 0 {
		size = project.Config.BatchSize
	}
	if size == 0 {
		size = s.cfg.DefaultBatchSize
	}
	if size < answering.MinBatchSize || size > answering.MaxBatchSize {
		return 0, shared.NewDomainError("INVALID_BATCH_SIZE",
			fmt.Sprintf("Batch size must be between %d and %d", answering.MinBatchSize, answering.MaxBatchSize))
	}
	return size, nil
}

func resolveModelSpeed(input DispatchInput, project *answering.Project) (answering.ModelSpeed, error) {
	speed := input.ModelSpeed
	if speed == "" {
		speed = project.Config.ModelSpeed
	}
	if speed == "" {
		speed = answering.ModelSpeedBalanced
	}
	if !speed.IsValid() {
		return "", shared.NewDomainError("INVALID_MODEL_SPEED",
			fmt.Sprintf("Invalid model speed: %s", speed))
	}
	return speed, nil
}

func (s *DispatchService) rollbackClaim(ctx context.Context, projectID uuid.UUID, prev answering.ProjectStatus) {
	if err := s.projects.TransitionStatus(ctx, projectID, answering.ProjectStatusProcessing, prev); err != nil {
		s.logger.Error("failed to roll back project claim",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}
}
