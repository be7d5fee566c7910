package skill

import (
	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/shared"
)

// Status represents the lifecycle status of a skill
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	}
	return false
}

// ConfidenceTier buckets a relevance score into a coarse confidence signal
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// TierForScore maps a relevance score to a confidence tier
func TierForScore(score float64) ConfidenceTier {
	switch {
	case score >= 0.75:
		return ConfidenceHigh
	case score >= 0.45:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Skill is a curated knowledge artifact usable as generation context.
// Skill CRUD lives outside this service; the answering pipeline only reads.
type Skill struct {
	shared.OwnedAggregateRoot
	LibraryID  uuid.UUID  `json:"library_id"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Name       string     `json:"name"`
	Content    string     `json:"content"`
	Status     Status     `json:"status"`
}

// IsActive reports whether the skill may be used for generation
func (s *Skill) IsActive() bool {
	return s.Status == StatusActive
}

// IsCustomerScoped reports whether the skill is bound to a specific customer
func (s *Skill) IsCustomerScoped() bool {
	return s.CustomerID != nil
}

// EstimatedTokens returns a rough token cost for including this skill as context.
// Four characters per token is close enough for budgeting purposes.
func (s *Skill) EstimatedTokens() int {
	return len(s.Content)/4 + 1
}

// Content usable by the answer generator.
type Content struct {
	SkillID uuid.UUID `json:"skill_id"`
	Name    string    `json:"name"`
	Body    string    `json:"body"`
}

// AsContent projects the skill into generator input form
func (s *Skill) AsContent() Content {
	return Content{
		SkillID: s.ID,
		Name:    s.Name,
		Body:    s.Content,
	}
}

// Candidate is one entry of a ranked skill selection.
type Candidate struct {
	Skill            *Skill
	Score            float64
	Confidence       ConfidenceTier
	IsCustomerScoped bool
	EstimatedTokens  int
}

// Selection is the transient, ranked outcome of skill selection for a question
// set. It is consumed immediately by the batch processor and never persisted;
// only the ids of the skills actually applied end up on row outputs.
type Selection struct {
	Candidates []Candidate
}

// IsEmpty reports whether selection produced no usable skills
func (sel Selection) IsEmpty() bool {
	return len(sel.Candidates) == 0
}

// SkillIDs returns the selected skill ids in rank order
func (sel Selection) SkillIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(sel.Candidates))
	for i, c := range sel.Candidates {
		ids[i] = c.Skill.ID
	}
	return ids
}

// Contents returns the generator inputs for the selected skills in rank order
func (sel Selection) Contents() []Content {
	contents := make([]Content, len(sel.Candidates))
	for i, c := range sel.Candidates {
		contents[i] = c.Skill.AsContent()
	}
	return contents
}
