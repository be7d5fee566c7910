package skill

import (
	"testing"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestTierForScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  ConfidenceTier
	}{
		{"high", 0.9, ConfidenceHigh},
		{"high boundary", 0.75, ConfidenceHigh},
		{"medium", 0.6, ConfidenceMedium},
		{"medium boundary", 0.45, ConfidenceMedium},
		{"low", 0.2, ConfidenceLow},
		{"zero", 0, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierForScore(tt.score))
		})
	}
}

func TestSkill_EstimatedTokens(t *testing.T) {
	s := &Skill{Content: "0123456789abcdef"}
	assert.Equal(t, 5, s.EstimatedTokens())

	empty := &Skill{}
	assert.Equal(t, 1, empty.EstimatedTokens())
}

func TestSelection(t *testing.T) {
	a := &Skill{OwnedAggregateRoot: shared.NewOwnedAggregateRoot(uuid.New()), Name: "SLA", Content: "uptime"}
	b := &Skill{OwnedAggregateRoot: shared.NewOwnedAggregateRoot(uuid.New()), Name: "Security", Content: "encryption"}

	sel := Selection{Candidates: []Candidate{
		{Skill: a, Score: 0.8, Confidence: ConfidenceHigh},
		{Skill: b, Score: 0.5, Confidence: ConfidenceMedium},
	}}

	assert.False(t, sel.IsEmpty())
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, sel.SkillIDs())

	contents := sel.Contents()
	assert.Len(t, contents, 2)
	assert.Equal(t, "SLA", contents[0].Name)
	assert.Equal(t, "encryption", contents[1].Body)

	assert.True(t, Selection{}.IsEmpty())
}
