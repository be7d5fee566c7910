package answering

import (
	"context"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/skill"
)

// GenerationInput is one question submitted to the answer generator
type GenerationInput struct {
	RowID    uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Context  string    `json:"context,omitempty"`
}

// GenerationResult is the structured output for one question. Results carry
// the id of the input they answer; the batch processor matches on it.
type GenerationResult struct {
	RowID      uuid.UUID `json:"id"`
	Answer     string    `json:"response"`
	Confidence float64   `json:"confidence"`
	Sources    []string  `json:"sources,omitempty"`
	Reasoning  string    `json:"reasoning,omitempty"`
	Inference  string    `json:"inference,omitempty"`
	Remarks    string    `json:"remarks,omitempty"`
	TokensUsed int       `json:"tokens_used"`
}

// Generator produces answers for a batch of questions using the supplied
// skill content. It is consumed as an opaque capability: implementations
// return a result per input, or an error on infrastructure failure. Length
// or id mismatches are the caller's problem to detect and reject.
type Generator interface {
	Generate(ctx context.Context, batch []GenerationInput, skills []skill.Content, speed ModelSpeed) ([]GenerationResult, error)
}
