package answering

import (
	"time"

	"github.com/google/uuid"
)

// AnswerHistory is the append-only audit record written for each completed
// row, independent of the row itself, for downstream reporting.
type AnswerHistory struct {
	ID         uuid.UUID   `json:"id"`
	RunID      uuid.UUID   `json:"run_id"`
	ProjectID  uuid.UUID   `json:"project_id"`
	RowID      uuid.UUID   `json:"row_id"`
	Question   string      `json:"question"`
	Answer     string      `json:"answer"`
	Confidence float64     `json:"confidence"`
	SkillIDs   []uuid.UUID `json:"skill_ids,omitempty"`
	ModelSpeed ModelSpeed  `json:"model_speed"`
	TokensUsed int         `json:"tokens_used"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewAnswerHistory creates an audit record for a completed row
func NewAnswerHistory(runID uuid.UUID, row *Row, output RowOutput) *AnswerHistory {
	return &AnswerHistory{
		ID:         uuid.New(),
		RunID:      runID,
		ProjectID:  row.ProjectID,
		RowID:      row.ID,
		Question:   row.Question,
		Answer:     output.Answer,
		Confidence: output.Confidence,
		SkillIDs:   output.SkillIDs,
		ModelSpeed: output.ModelSpeed,
		TokensUsed: output.TokensUsed,
		CreatedAt:  time.Now(),
	}
}
