package answering

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
)

// ReviewAction is one of the review/flag transitions a row accepts
type ReviewAction string

const (
	ReviewActionRequest     ReviewAction = "request_review"
	ReviewActionApprove     ReviewAction = "approve"
	ReviewActionCorrect     ReviewAction = "correct"
	ReviewActionFlag        ReviewAction = "flag"
	ReviewActionResolveFlag ReviewAction = "resolve_flag"
)

// IsValid checks if the review action is valid
func (a ReviewAction) IsValid() bool {
	switch a {
	case ReviewActionRequest, ReviewActionApprove, ReviewActionCorrect, ReviewActionFlag, ReviewActionResolveFlag:
		return true
	}
	return false
}

// ReviewInput carries a review or flag transition request
type ReviewInput struct {
	RowID   uuid.UUID
	ActorID uuid.UUID
	Action  ReviewAction
	Note    string
	// CorrectedAnswer is required for the correct action.
	CorrectedAnswer string
}

// ReviewService applies review and flag transitions to completed rows. The
// two tracks are independent; a row can be approved and flagged at once.
type ReviewService struct {
	projects answering.ProjectRepository
	rows     answering.RowRepository
	auth     answering.Authorizer
}

// NewReviewService creates a new review service
func NewReviewService(
	projects answering.ProjectRepository,
	rows answering.RowRepository,
	auth answering.Authorizer,
) *ReviewService {
	return &ReviewService{
		projects: projects,
		rows:     rows,
		auth:     auth,
	}
}

// Apply performs the requested transition and returns the updated row.
// Repeating an already-applied transition is idempotent; the row's domain
// methods refresh the actor and timestamp.
func (s *ReviewService) Apply(ctx context.Context, input ReviewInput) (*answering.Row, error) {
	if !input.Action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION",
			fmt.Sprintf("Invalid review action: %s", input.Action))
	}

	row, err := s.rows.FindByID(ctx, input.RowID)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, row.ProjectID)
	if err != nil {
		return nil, err
	}
	ok, err := s.auth.CanManage(ctx, input.ActorID, project)
	if err != nil {
		return nil, fmt.Errorf("authorization check failed: %w", err)
	}
	if !ok {
		// An ownership mismatch reads the same as a missing row, so
		// callers cannot probe for other users' rows.
		return nil, shared.ErrNotFound
	}

	switch input.Action {
	case ReviewActionRequest:
		err = row.RequestReview(input.ActorID)
	case ReviewActionApprove:
		err = row.ApproveReview(input.ActorID, input.Note)
	case ReviewActionCorrect:
		err = row.CorrectReview(input.ActorID, input.CorrectedAnswer, input.Note)
	case ReviewActionFlag:
		err = row.Flag(input.ActorID, input.Note)
	case ReviewActionResolveFlag:
		err = row.ResolveFlag(input.ActorID, input.Note)
	}
	if err != nil {
		return nil, err
	}

	if err := s.rows.Save(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to save row: %w", err)
	}
	return row, nil
}
