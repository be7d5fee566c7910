package persistence

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/skill"
	"github.com/skillbase/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSkillRepository implements skill.Repository using GORM.
// Relevance scoring is a term-overlap heuristic computed in process; libraries
// are small enough that loading a library's active skills per dispatch is fine.
type GormSkillRepository struct {
	db *gorm.DB
}

// NewGormSkillRepository creates a new GormSkillRepository
func NewGormSkillRepository(db *gorm.DB) *GormSkillRepository {
	return &GormSkillRepository{db: db}
}

// FindActiveByIDs returns the subset of the given ids that resolve to ACTIVE
// skills. Unknown or inactive ids are omitted, not errors.
func (r *GormSkillRepository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*skill.Skill, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var skillModels []models.SkillModel
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, skill.StatusActive).
		Find(&skillModels).Error; err != nil {
		return nil, err
	}

	// Preserve the caller's id order; manual selections are ranked by the user.
	byID := make(map[uuid.UUID]*skill.Skill, len(skillModels))
	for i := range skillModels {
		s := skillModels[i].ToDomain()
		byID[s.ID] = s
	}
	skills := make([]*skill.Skill, 0, len(byID))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			skills = append(skills, s)
		}
	}
	return skills, nil
}

// FindRelevant returns active skills in the library scored against the given
// questions, best first, limited to skills scoring at or above minScore.
func (r *GormSkillRepository) FindRelevant(ctx context.Context, libraryID uuid.UUID, customerID *uuid.UUID, questions []string, minScore float64, limit int) ([]skill.Scored, error) {
	query := r.db.WithContext(ctx).
		Where("library_id = ? AND status = ?", libraryID, skill.StatusActive)
	if customerID != nil {
		query = query.Where("customer_id IS NULL OR customer_id = ?", *customerID)
	} else {
		query = query.Where("customer_id IS NULL")
	}

	var skillModels []models.SkillModel
	if err := query.Find(&skillModels).Error; err != nil {
		return nil, err
	}

	queryTerms := termSet(questions)
	scored := make([]skill.Scored, 0, len(skillModels))
	for i := range skillModels {
		s := skillModels[i].ToDomain()
		score := overlapScore(queryTerms, termSet([]string{s.Name, s.Content}))
		if score >= minScore {
			scored = append(scored, skill.Scored{Skill: s, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// termSet tokenizes texts into a lowercase term set, skipping short tokens.
func termSet(texts []string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, text := range texts {
		for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		}) {
			if len(tok) < 3 {
				continue
			}
			terms[tok] = struct{}{}
		}
	}
	return terms
}

// overlapScore is the fraction of query terms present in the candidate set.
func overlapScore(query, candidate map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var hits int
	for term := range query {
		if _, ok := candidate[term]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

// Compile-time interface compliance check
var _ skill.Repository = (*GormSkillRepository)(nil)
