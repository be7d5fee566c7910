package answering

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/skillbase/backend/internal/domain/skill"
	"github.com/skillbase/backend/internal/infrastructure/config"
)

// BatchProcessor executes a dispatched run: claim the pending rows, generate
// answers chunk by chunk, and settle the project. Any chunk failure reverts
// the whole run so the project returns to a cleanly re-dispatchable state.
type BatchProcessor struct {
	projects  answering.ProjectRepository
	rows      answering.RowRepository
	history   answering.AnswerHistoryRepository
	skills    skill.Repository
	cache     skill.ContentCache
	generator answering.Generator
	cfg       config.AnsweringConfig
	logger    *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(
	projects answering.ProjectRepository,
	rows answering.RowRepository,
	history answering.AnswerHistoryRepository,
	skills skill.Repository,
	cache skill.ContentCache,
	generator answering.Generator,
	cfg config.AnsweringConfig,
	logger *zap.Logger,
) *BatchProcessor {
	if cache == nil {
		cache = &noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkParallelism < 1 {
		cfg.ChunkParallelism = 1
	}
	return &BatchProcessor{
		projects:  projects,
		rows:      rows,
		history:   history,
		skills:    skills,
		cache:     cache,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run processes a dispatched job. The project must already be in PROCESSING;
// dispatch performs that transition before the job reaches the processor.
func (p *BatchProcessor) Run(ctx context.Context, job answering.DispatchJob) error {
	log := p.logger.With(
		zap.String("job_id", job.JobID),
		zap.String("project_id", job.ProjectID.String()),
	)

	project, err := p.projects.FindByID(ctx, job.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	if project.Status != answering.ProjectStatusProcessing {
		// A stale job for a project that moved on. Nothing to do.
		log.Warn("skipping job for project not in processing",
			zap.String("status", string(project.Status)))
		return nil
	}

	pending, err := p.rows.FindPendingByProject(ctx, job.ProjectID)
	if err != nil {
		p.failProject(ctx, job.ProjectID, log, "failed to list pending rows", err)
		return err
	}
	if len(pending) == 0 {
		log.Warn("no pending rows for dispatched job")
		p.settleProject(ctx, job.ProjectID, log)
		return nil
	}

	ids := make([]uuid.UUID, len(pending))
	for i, row := range pending {
		ids[i] = row.ID
	}

	claimed, err := p.rows.ClaimPending(ctx, ids)
	if err != nil {
		p.failProject(ctx, job.ProjectID, log, "failed to claim rows", err)
		return err
	}
	if claimed != int64(len(ids)) {
		// Another run got some of these rows first. Undo whatever this
		// claim grabbed and hand the project back.
		log.Warn("claimed fewer rows than requested",
			zap.Int64("claimed", claimed),
			zap.Int("requested", len(ids)))
		p.revertRun(ctx, job, ids, log)
		return shared.ErrConcurrencyConflict
	}

	// The guarded claim moved the rows in the database; mirror the
	// transition on the loaded aggregates so Complete sees PROCESSING.
	for _, row := range pending {
		if err := row.MarkProcessing(); err != nil {
			p.revertRun(ctx, job, ids, log)
			return err
		}
	}

	contents, err := p.resolveSkillContents(ctx, project, job.SkillIDs)
	if err != nil {
		p.revertRun(ctx, job, ids, log)
		return err
	}
	if len(contents) == 0 {
		p.revertRun(ctx, job, ids, log)
		return shared.ErrNoValidSkills
	}

	runID := uuid.New()
	chunks := partitionRows(pending, job.BatchSize)
	log.Info("processing run started",
		zap.String("run_id", runID.String()),
		zap.Int("rows", len(pending)),
		zap.Int("chunks", len(chunks)),
		zap.Int("batch_size", job.BatchSize),
		zap.Int("skills", len(contents)),
	)

	var (
		mu      sync.Mutex
		records []*answering.AnswerHistory
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ChunkParallelism)
	for i, chunk := range chunks {
		g.Go(func() error {
			done, err := p.processChunk(gctx, runID, job, chunk, contents)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			mu.Lock()
			records = append(records, done...)
			mu.Unlock()
			return nil
		})
	}

	// All in-flight chunks settle before any revert decision.
	if err := g.Wait(); err != nil {
		log.Warn("run failed, reverting all claimed rows",
			zap.String("run_id", runID.String()),
			zap.Error(err))
		p.revertRun(ctx, job, ids, log)
		return err
	}

	// History is written only once the whole run has succeeded, so a
	// reverted run leaves no audit trace.
	if err := p.history.Append(ctx, records); err != nil {
		log.Error("failed to append answer history", zap.Error(err))
	}

	p.settleProject(ctx, job.ProjectID, log)
	log.Info("processing run completed",
		zap.String("run_id", runID.String()),
		zap.Int("rows", len(pending)))
	return nil
}

// processChunk generates and applies answers for one chunk. It returns the
// audit records for the completed rows; they are persisted by the caller
// only after every chunk has succeeded.
func (p *BatchProcessor) processChunk(
	ctx context.Context,
	runID uuid.UUID,
	job answering.DispatchJob,
	chunk []*answering.Row,
	contents []skill.Content,
) ([]*answering.AnswerHistory, error) {
	batch := make([]answering.GenerationInput, len(chunk))
	for i, row := range chunk {
		batch[i] = answering.GenerationInput{
			RowID:    row.ID,
			Question: row.Question,
			Context:  row.Context,
		}
	}

	results, err := p.generator.Generate(ctx, batch, contents, job.ModelSpeed)
	if err != nil {
		return nil, err
	}
	if len(results) != len(chunk) {
		return nil, fmt.Errorf("generator returned %d results for %d questions", len(results), len(chunk))
	}

	byRow := make(map[uuid.UUID]answering.GenerationResult, len(results))
	for _, res := range results {
		byRow[res.RowID] = res
	}

	records := make([]*answering.AnswerHistory, 0, len(chunk))
	for _, row := range chunk {
		res, ok := byRow[row.ID]
		if !ok {
			// The generator answered the batch but skipped this row.
			// Leave it claimed so the stuck-row stats surface it
			// instead of discarding the rest of the run.
			p.logger.Warn("generator returned no result for row",
				zap.String("row_id", row.ID.String()))
			continue
		}

		output := answering.RowOutput{
			Answer:     res.Answer,
			Confidence: res.Confidence,
			Sources:    res.Sources,
			Reasoning:  res.Reasoning,
			Inference:  res.Inference,
			Remarks:    res.Remarks,
			TokensUsed: res.TokensUsed,
			SkillIDs:   job.SkillIDs,
			ModelSpeed: job.ModelSpeed,
		}
		if err := row.Complete(output); err != nil {
			return nil, err
		}
		if err := p.rows.Save(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to save row %s: %w", row.ID, err)
		}
		records = append(records, answering.NewAnswerHistory(runID, row, output))
	}

	return records, nil
}

// resolveSkillContents loads the skill contents for a run through the
// read-through cache. Misses fall back to the repository and refresh the
// cache; inactive or deleted skills are dropped.
func (p *BatchProcessor) resolveSkillContents(ctx context.Context, project *answering.Project, skillIDs []uuid.UUID) ([]skill.Content, error) {
	libraryID := project.Config.LibraryID

	cached := make(map[uuid.UUID]skill.Content, len(skillIDs))
	var missing []uuid.UUID
	for _, id := range skillIDs {
		if content, ok := p.cache.Get(ctx, libraryID, id); ok {
			cached[id] = *content
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		resolved, err := p.skills.FindActiveByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve skills: %w", err)
		}
		for _, sk := range resolved {
			content := sk.AsContent()
			cached[sk.ID] = content
			p.cache.Set(ctx, libraryID, content, p.cfg.SkillCacheTTL)
		}
	}

	contents := make([]skill.Content, 0, len(skillIDs))
	for _, id := range skillIDs {
		if content, ok := cached[id]; ok {
			contents = append(contents, content)
		}
	}
	return contents, nil
}

// revertRun undoes a failed run: every claimed row back to PENDING with its
// output cleared, the project back to its pre-dispatch status.
func (p *BatchProcessor) revertRun(ctx context.Context, job answering.DispatchJob, ids []uuid.UUID, log *zap.Logger) {
	if err := p.rows.RevertToPending(ctx, ids); err != nil {
		log.Error("failed to revert rows", zap.Error(err))
	}

	prev := job.PrevStatus
	if prev == "" {
		prev = answering.ProjectStatusDraft
	}
	if err := p.projects.TransitionStatus(ctx, job.ProjectID, answering.ProjectStatusProcessing, prev); err != nil {
		log.Error("failed to revert project status", zap.Error(err))
	}
}

// settleProject moves a PROCESSING project to COMPLETED once its rows are
// all terminal. Rows added mid-run keep the project re-dispatchable only
// through a fresh draft, so a non-terminal tail is logged, not fixed here.
func (p *BatchProcessor) settleProject(ctx context.Context, projectID uuid.UUID, log *zap.Logger) {
	stats, err := p.rows.StatsByProject(ctx, projectID)
	if err != nil {
		log.Error("failed to read row stats", zap.Error(err))
	} else if !stats.AllTerminal() {
		log.Warn("completing run with non-terminal rows remaining",
			zap.Int64("pending", stats.Pending),
			zap.Int64("processing", stats.Processing))
	}

	if err := p.projects.TransitionStatus(ctx, projectID, answering.ProjectStatusProcessing, answering.ProjectStatusCompleted); err != nil {
		log.Error("failed to complete project", zap.Error(err))
	}
}

// failProject marks the project ERROR after an internal failure that cannot
// be reverted cleanly.
func (p *BatchProcessor) failProject(ctx context.Context, projectID uuid.UUID, log *zap.Logger, msg string, cause error) {
	log.Error(msg, zap.Error(cause))
	if err := p.projects.TransitionStatus(ctx, projectID, answering.ProjectStatusProcessing, answering.ProjectStatusError); err != nil {
		log.Error("failed to mark project as errored", zap.Error(err))
	}
}

// partitionRows splits rows into order-preserving chunks of at most size
func partitionRows(rows []*answering.Row, size int) [][]*answering.Row {
	if size < 1 {
		size = 1
	}
	var chunks [][]*answering.Row
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}
