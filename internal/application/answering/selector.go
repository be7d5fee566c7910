package answering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/skill"
	"github.com/skillbase/backend/internal/infrastructure/config"
)

// SelectionMode chooses how skills are resolved for a dispatch
type SelectionMode string

const (
	// SelectionModeAuto scores the project library against the questions.
	SelectionModeAuto SelectionMode = "auto"
	// SelectionModeManual validates and filters caller-provided skill ids.
	SelectionModeManual SelectionMode = "manual"
)

// IsValid checks if the selection mode is valid
func (m SelectionMode) IsValid() bool {
	return m == SelectionModeAuto || m == SelectionModeManual
}

// SkillSelector resolves the skill set used for a processing run. An empty
// selection is a business outcome, not an error; callers decide what it means.
type SkillSelector struct {
	skills skill.Repository
	cache  skill.ContentCache
	cfg    config.AnsweringConfig
	logger *zap.Logger
}

// NewSkillSelector creates a new skill selector
func NewSkillSelector(skills skill.Repository, cache skill.ContentCache, cfg config.AnsweringConfig, logger *zap.Logger) *SkillSelector {
	if cache == nil {
		cache = &noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SkillSelector{
		skills: skills,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Select resolves the skill set for the given project and question rows.
// Manual mode silently drops unknown or inactive ids; automatic mode scores
// the project's library against the questions.
func (s *SkillSelector) Select(
	ctx context.Context,
	project *answering.Project,
	rows []*answering.Row,
	mode SelectionMode,
	skillIDs []uuid.UUID,
) (skill.Selection, error) {
	switch mode {
	case SelectionModeManual:
		return s.selectManual(ctx, project, skillIDs)
	case SelectionModeAuto:
		return s.selectAuto(ctx, project, rows)
	default:
		return skill.Selection{}, fmt.Errorf("unsupported selection mode: %s", mode)
	}
}

func (s *SkillSelector) selectManual(ctx context.Context, project *answering.Project, ids []uuid.UUID) (skill.Selection, error) {
	if len(ids) == 0 {
		return skill.Selection{}, nil
	}

	resolved, err := s.skills.FindActiveByIDs(ctx, ids)
	if err != nil {
		return skill.Selection{}, fmt.Errorf("failed to resolve skills: %w", err)
	}

	if dropped := len(ids) - len(resolved); dropped > 0 {
		s.logger.Info("dropped invalid skill ids from manual selection",
			zap.String("project_id", project.ID.String()),
			zap.Int("requested", len(ids)),
			zap.Int("dropped", dropped),
		)
	}

	// Manual picks are user-ranked; they enter the prompt in the order given.
	candidates := make([]skill.Candidate, len(resolved))
	for i, sk := range resolved {
		candidates[i] = skill.Candidate{
			Skill:            sk,
			Score:            1.0,
			Confidence:       skill.ConfidenceHigh,
			IsCustomerScoped: sk.IsCustomerScoped(),
			EstimatedTokens:  sk.EstimatedTokens(),
		}
		s.cache.Set(ctx, project.Config.LibraryID, sk.AsContent(), s.cfg.SkillCacheTTL)
	}

	return skill.Selection{Candidates: candidates}, nil
}

func (s *SkillSelector) selectAuto(ctx context.Context, project *answering.Project, rows []*answering.Row) (skill.Selection, error) {
	questions := make([]string, len(rows))
	for i, row := range rows {
		questions[i] = row.Question
	}

	scored, err := s.skills.FindRelevant(
		ctx,
		project.Config.LibraryID,
		project.CustomerID,
		questions,
		s.cfg.SelectorMinScore,
		s.cfg.SelectorMaxCount,
	)
	if err != nil {
		return skill.Selection{}, fmt.Errorf("failed to score skills: %w", err)
	}

	candidates := make([]skill.Candidate, len(scored))
	for i, sc := range scored {
		candidates[i] = skill.Candidate{
			Skill:            sc.Skill,
			Score:            sc.Score,
			Confidence:       skill.TierForScore(sc.Score),
			IsCustomerScoped: sc.Skill.IsCustomerScoped(),
			EstimatedTokens:  sc.Skill.EstimatedTokens(),
		}
		s.cache.Set(ctx, project.Config.LibraryID, sc.Skill.AsContent(), s.cfg.SkillCacheTTL)
	}

	return skill.Selection{Candidates: candidates}, nil
}

// noopCache keeps the selector's cache path optional
type noopCache struct{}

func (noopCache) Get(ctx context.Context, libraryID, skillID uuid.UUID) (*skill.Content, bool) {
	return nil, false
}
func (noopCache) Set(ctx context.Context, libraryID uuid.UUID, content skill.Content, ttl time.Duration) {
}
func (noopCache) InvalidateLibrary(ctx context.Context, libraryID uuid.UUID) error { return nil }
