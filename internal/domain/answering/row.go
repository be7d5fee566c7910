package answering

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/shared"
)

// RowStatus represents the processing status of a single row
type RowStatus string

const (
	RowStatusPending    RowStatus = "pending"
	RowStatusProcessing RowStatus = "processing"
	RowStatusCompleted  RowStatus = "completed"
	RowStatusError      RowStatus = "error"
)

// IsValid checks if the status is valid
func (s RowStatus) IsValid() bool {
	switch s {
	case RowStatusPending, RowStatusProcessing, RowStatusCompleted, RowStatusError:
		return true
	}
	return false
}

// IsTerminal returns true if the processing pipeline is done with this row
func (s RowStatus) IsTerminal() bool {
	return s == RowStatusCompleted || s == RowStatusError
}

// ReviewStatus represents the review track of a completed row
type ReviewStatus string

const (
	ReviewStatusNone      ReviewStatus = "none"
	ReviewStatusRequested ReviewStatus = "requested"
	ReviewStatusApproved  ReviewStatus = "approved"
	ReviewStatusCorrected ReviewStatus = "corrected"
)

// IsValid checks if the review status is valid
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusNone, ReviewStatusRequested, ReviewStatusApproved, ReviewStatusCorrected:
		return true
	}
	return false
}

// RowOutput is the typed output payload written when a row completes.
// Present if and only if the row status is COMPLETED.
type RowOutput struct {
	Answer     string      `json:"answer"`
	Confidence float64     `json:"confidence"`
	Sources    []string    `json:"sources,omitempty"`
	Reasoning  string      `json:"reasoning,omitempty"`
	Inference  string      `json:"inference,omitempty"`
	Remarks    string      `json:"remarks,omitempty"`
	TokensUsed int         `json:"tokens_used"`
	SkillIDs   []uuid.UUID `json:"skill_ids,omitempty"`
	ModelSpeed ModelSpeed  `json:"model_speed,omitempty"`
}

// Row is one question/answer unit within a project.
type Row struct {
	shared.BaseAggregateRoot
	ProjectID uuid.UUID `json:"project_id"`
	RowNumber int       `json:"row_number"`

	Question string `json:"question"`
	Context  string `json:"context,omitempty"`

	Status RowStatus  `json:"status"`
	Output *RowOutput `json:"output,omitempty"`

	// Review track, independent of the flag track below.
	ReviewStatus ReviewStatus `json:"review_status"`
	ReviewerID   *uuid.UUID   `json:"reviewer_id,omitempty"`
	ReviewNote   string       `json:"review_note,omitempty"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty"`

	// Flag track.
	Flagged            bool       `json:"flagged"`
	FlagNote           string     `json:"flag_note,omitempty"`
	FlaggedBy          *uuid.UUID `json:"flagged_by,omitempty"`
	FlaggedAt          *time.Time `json:"flagged_at,omitempty"`
	FlagResolved       bool       `json:"flag_resolved"`
	FlagResolutionNote string     `json:"flag_resolution_note,omitempty"`
	FlagResolvedBy     *uuid.UUID `json:"flag_resolved_by,omitempty"`
	FlagResolvedAt     *time.Time `json:"flag_resolved_at,omitempty"`

	// Free-form user-edited answer override; required when CORRECTED.
	EditedAnswer *string `json:"edited_answer,omitempty"`
}

// NewRow creates a pending row for a project
func NewRow(projectID uuid.UUID, rowNumber int, question, context string) (*Row, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Row requires a project")
	}
	if question == "" {
		return nil, shared.NewDomainError("INVALID_QUESTION", "Question cannot be empty")
	}
	if rowNumber < 1 {
		return nil, shared.NewDomainError("INVALID_ROW_NUMBER", "Row number must be positive")
	}
	return &Row{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		RowNumber:         rowNumber,
		Question:          question,
		Context:           context,
		Status:            RowStatusPending,
		ReviewStatus:      ReviewStatusNone,
	}, nil
}

// MarkProcessing claims the row for an in-flight run: PENDING -> PROCESSING.
// Bulk claims go through the repository's conditional update; this method
// keeps the same invariant for single-row paths and tests.
func (r *Row) MarkProcessing() error {
	if r.Status != RowStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot claim row in state: %s", r.Status))
	}
	r.Status = RowStatusProcessing
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Complete writes the output payload and transitions PROCESSING -> COMPLETED
func (r *Row) Complete(output RowOutput) error {
	if r.Status != RowStatusProcessing {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot complete row in state: %s", r.Status))
	}
	r.Status = RowStatusCompleted
	r.Output = &output
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Fail transitions PROCESSING -> ERROR with a remark describing the failure
func (r *Row) Fail(remark string) error {
	if r.Status != RowStatusProcessing {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot fail row in state: %s", r.Status))
	}
	r.Status = RowStatusError
	r.Output = nil
	if remark != "" {
		r.Output = &RowOutput{Remarks: remark}
	}
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Revert undoes a claim after a run-fatal failure: PROCESSING|COMPLETED ->
// PENDING with the output cleared. Whole-run reverts include rows that
// already completed in earlier chunks of the same run.
func (r *Row) Revert() error {
	if r.Status != RowStatusProcessing && r.Status != RowStatusCompleted {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot revert row in state: %s", r.Status))
	}
	r.Status = RowStatusPending
	r.Output = nil
	r.Touch()
	r.IncrementVersion()
	return nil
}

// HasOutput reports whether the output payload is present
func (r *Row) HasOutput() bool {
	return r.Output != nil
}

// RequestReview moves the review track NONE -> REQUESTED. Re-requesting is
// idempotent and refreshes the timestamp.
func (r *Row) RequestReview(actor uuid.UUID) error {
	if r.Status != RowStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed rows can be reviewed")
	}
	if r.ReviewStatus != ReviewStatusNone && r.ReviewStatus != ReviewStatusRequested {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot request review from state: %s", r.ReviewStatus))
	}
	now := time.Now()
	r.ReviewStatus = ReviewStatusRequested
	r.ReviewerID = &actor
	r.ReviewedAt = &now
	r.Touch()
	r.IncrementVersion()
	return nil
}

// ApproveReview moves REQUESTED -> APPROVED. Re-approving is idempotent.
func (r *Row) ApproveReview(reviewer uuid.UUID, note string) error {
	if r.ReviewStatus != ReviewStatusRequested && r.ReviewStatus != ReviewStatusApproved {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot approve from review state: %s", r.ReviewStatus))
	}
	now := time.Now()
	r.ReviewStatus = ReviewStatusApproved
	r.ReviewerID = &reviewer
	r.ReviewNote = note
	r.ReviewedAt = &now
	r.Touch()
	r.IncrementVersion()
	return nil
}

// CorrectReview moves REQUESTED -> CORRECTED and records the corrected
// answer. Re-correcting is idempotent and replaces the override.
func (r *Row) CorrectReview(reviewer uuid.UUID, correctedAnswer, note string) error {
	if r.ReviewStatus != ReviewStatusRequested && r.ReviewStatus != ReviewStatusCorrected {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot correct from review state: %s", r.ReviewStatus))
	}
	if correctedAnswer == "" {
		return shared.NewDomainError("INVALID_INPUT", "Corrected answer cannot be empty")
	}
	now := time.Now()
	r.ReviewStatus = ReviewStatusCorrected
	r.ReviewerID = &reviewer
	r.ReviewNote = note
	r.ReviewedAt = &now
	r.EditedAnswer = &correctedAnswer
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Flag marks the row for attention. Flagging an already-flagged row is
// idempotent: the note and timestamp are refreshed, the resolution resets.
func (r *Row) Flag(actor uuid.UUID, note string) error {
	if r.Status != RowStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed rows can be flagged")
	}
	now := time.Now()
	r.Flagged = true
	r.FlagNote = note
	r.FlaggedBy = &actor
	r.FlaggedAt = &now
	r.FlagResolved = false
	r.FlagResolutionNote = ""
	r.FlagResolvedBy = nil
	r.FlagResolvedAt = nil
	r.Touch()
	r.IncrementVersion()
	return nil
}

// ResolveFlag resolves an open flag. Resolving an already-resolved flag is
// idempotent. The review track is untouched.
func (r *Row) ResolveFlag(actor uuid.UUID, note string) error {
	if !r.Flagged {
		return shared.NewDomainError("INVALID_STATE", "Row is not flagged")
	}
	now := time.Now()
	r.FlagResolved = true
	r.FlagResolutionNote = note
	r.FlagResolvedBy = &actor
	r.FlagResolvedAt = &now
	r.Touch()
	r.IncrementVersion()
	return nil
}
