package answering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillbase/backend/internal/domain/skill"
	"github.com/skillbase/backend/internal/infrastructure/config"
)

func testAnsweringConfig() config.AnsweringConfig {
	return config.AnsweringConfig{
		DefaultBatchSize: 10,
		ChunkParallelism: 2,
		SelectorMinScore: 0.35,
		SelectorMaxCount: 5,
		SkillCacheTTL:    15 * time.Minute,
	}
}

func TestSelectManual(t *testing.T) {
	skills := new(MockSkillRepository)
	cache := newFakeCache()
	selector := NewSkillSelector(skills, cache, testAnsweringConfig(), nil)

	project := newTestProject(uuid.New())
	libraryID := project.Config.LibraryID
	valid := newTestSkill(libraryID, "Security policy")
	invalid := uuid.New()
	ids := []uuid.UUID{valid.ID, invalid}

	// The invalid id is dropped by the repo, not reported as an error.
	skills.On("FindActiveByIDs", mock.Anything, ids).Return([]*skill.Skill{valid}, nil)

	sel, err := selector.Select(context.Background(), project, nil, SelectionModeManual, ids)
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 1)
	assert.Equal(t, valid.ID, sel.Candidates[0].Skill.ID)
	assert.Equal(t, skill.ConfidenceHigh, sel.Candidates[0].Confidence)
	assert.Equal(t, 1, cache.sets)
	skills.AssertExpectations(t)
}

func TestSelectManualEmptyIDs(t *testing.T) {
	skills := new(MockSkillRepository)
	selector := NewSkillSelector(skills, nil, testAnsweringConfig(), nil)

	sel, err := selector.Select(context.Background(), newTestProject(uuid.New()), nil, SelectionModeManual, nil)
	require.NoError(t, err)
	assert.True(t, sel.IsEmpty())
	skills.AssertNotCalled(t, "FindActiveByIDs")
}

func TestSelectManualAllInvalid(t *testing.T) {
	skills := new(MockSkillRepository)
	selector := NewSkillSelector(skills, nil, testAnsweringConfig(), nil)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	skills.On("FindActiveByIDs", mock.Anything, ids).Return([]*skill.Skill{}, nil)

	sel, err := selector.Select(context.Background(), newTestProject(uuid.New()), nil, SelectionModeManual, ids)
	require.NoError(t, err)
	assert.True(t, sel.IsEmpty())
}

func TestSelectAuto(t *testing.T) {
	skills := new(MockSkillRepository)
	cache := newFakeCache()
	cfg := testAnsweringConfig()
	selector := NewSkillSelector(skills, cache, cfg, nil)

	project := newTestProject(uuid.New())
	rows := newTestRows(project.ID, 3)
	high := newTestSkill(project.Config.LibraryID, "Data retention")
	low := newTestSkill(project.Config.LibraryID, "Onboarding")

	skills.On("FindRelevant", mock.Anything, project.Config.LibraryID, project.CustomerID,
		mock.MatchedBy(func(questions []string) bool { return len(questions) == 3 }),
		cfg.SelectorMinScore, cfg.SelectorMaxCount,
	).Return([]skill.Scored{
		{Skill: high, Score: 0.8},
		{Skill: low, Score: 0.5},
	}, nil)

	sel, err := selector.Select(context.Background(), project, rows, SelectionModeAuto, nil)
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 2)
	assert.Equal(t, skill.ConfidenceHigh, sel.Candidates[0].Confidence)
	assert.Equal(t, skill.ConfidenceMedium, sel.Candidates[1].Confidence)
	assert.Equal(t, []uuid.UUID{high.ID, low.ID}, sel.SkillIDs())
	assert.Equal(t, 2, cache.sets)
	skills.AssertExpectations(t)
}

func TestSelectAutoRepositoryError(t *testing.T) {
	skills := new(MockSkillRepository)
	selector := NewSkillSelector(skills, nil, testAnsweringConfig(), nil)

	project := newTestProject(uuid.New())
	skills.On("FindRelevant", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))

	_, err := selector.Select(context.Background(), project, newTestRows(project.ID, 1), SelectionModeAuto, nil)
	assert.Error(t, err)
}

func TestSelectUnsupportedMode(t *testing.T) {
	selector := NewSkillSelector(new(MockSkillRepository), nil, testAnsweringConfig(), nil)

	_, err := selector.Select(context.Background(), newTestProject(uuid.New()), nil, SelectionMode("hybrid"), nil)
	assert.Error(t, err)
}

func TestSelectionModeIsValid(t *testing.T) {
	assert.True(t, SelectionModeAuto.IsValid())
	assert.True(t, SelectionModeManual.IsValid())
	assert.False(t, SelectionMode("hybrid").IsValid())
	assert.False(t, SelectionMode("").IsValid())
}
