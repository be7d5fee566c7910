package skill

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Scored pairs a skill with the relevance score assigned by the matching
// heuristic. Scoring itself is outside this service's scope; implementations
// may delegate to an external matcher.
type Scored struct {
	Skill *Skill
	Score float64
}

// Repository is the read-only lookup surface the answering pipeline needs.
type Repository interface {
	// FindActiveByIDs returns the subset of the given ids that resolve to
	// ACTIVE skills. Unknown or inactive ids are omitted, not errors.
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*Skill, error)

	// FindRelevant returns active skills in the library scored against the
	// given questions, best first, limited to skills scoring at or above
	// minScore. customerID optionally widens the search to customer-scoped
	// skills.
	FindRelevant(ctx context.Context, libraryID uuid.UUID, customerID *uuid.UUID, questions []string, minScore float64, limit int) ([]Scored, error)
}

// ContentCache is a best-effort read-through cache for skill content. The
// pipeline's correctness never depends on it; the default implementation is
// a no-op.
type ContentCache interface {
	Get(ctx context.Context, libraryID, skillID uuid.UUID) (*Content, bool)
	Set(ctx context.Context, libraryID uuid.UUID, content Content, ttl time.Duration)
	// InvalidateLibrary drops all cached content for a library.
	InvalidateLibrary(ctx context.Context, libraryID uuid.UUID) error
}
