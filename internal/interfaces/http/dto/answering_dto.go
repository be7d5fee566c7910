package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillbase/backend/internal/domain/answering"
)

// DispatchRequest is the body for POST /projects/:id/dispatch
type DispatchRequest struct {
	SkillIDs  []string `json:"skill_ids" binding:"omitempty,dive,uuid"`
	Mode      string   `json:"mode" binding:"omitempty,oneof=auto manual"`
	BatchSize int      `json:"batch_size" binding:"omitempty,min=5,max=50"`
	// ModelSpeed uses the custom modelspeed validation rule.
	ModelSpeed string `json:"model_speed" binding:"omitempty,modelspeed"`
}

// SkillUUIDs parses the request skill ids
func (r DispatchRequest) SkillUUIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(r.SkillIDs))
	for i, s := range r.SkillIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// DispatchResponse is the payload for an accepted dispatch
type DispatchResponse struct {
	Mode           string   `json:"mode"`
	JobID          string   `json:"job_id,omitempty"`
	TotalQuestions int      `json:"total_questions"`
	BatchSize      int      `json:"batch_size"`
	SkillCount     int      `json:"skill_count"`
	SkillIDs       []string `json:"skill_ids"`
}

// RowStatsResponse aggregates row statuses
type RowStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Error      int64 `json:"error"`
	Total      int64 `json:"total"`
}

// ProjectStatusResponse is the polling payload
type ProjectStatusResponse struct {
	ProjectID string           `json:"project_id"`
	Status    string           `json:"status"`
	RowStats  RowStatsResponse `json:"row_stats"`
}

// RowOutputResponse is the generated output payload of a completed row
type RowOutputResponse struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Inference  string   `json:"inference,omitempty"`
	Remarks    string   `json:"remarks,omitempty"`
	TokensUsed int      `json:"tokens_used"`
	SkillIDs   []string `json:"skill_ids,omitempty"`
	ModelSpeed string   `json:"model_speed,omitempty"`
}

// RowResponse is the wire form of a question row
type RowResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	RowNumber int    `json:"row_number"`
	Question  string `json:"question"`
	Context   string `json:"context,omitempty"`
	Status    string `json:"status"`

	Output *RowOutputResponse `json:"output,omitempty"`

	ReviewStatus string     `json:"review_status"`
	ReviewerID   *string    `json:"reviewer_id,omitempty"`
	ReviewNote   string     `json:"review_note,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`

	Flagged            bool       `json:"flagged"`
	FlagNote           string     `json:"flag_note,omitempty"`
	FlagResolved       bool       `json:"flag_resolved"`
	FlagResolutionNote string     `json:"flag_resolution_note,omitempty"`
	FlaggedAt          *time.Time `json:"flagged_at,omitempty"`
	FlagResolvedAt     *time.Time `json:"flag_resolved_at,omitempty"`

	EditedAnswer *string `json:"edited_answer,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RowFromDomain converts a domain row to its wire form
func RowFromDomain(row *answering.Row) RowResponse {
	resp := RowResponse{
		ID:                 row.ID.String(),
		ProjectID:          row.ProjectID.String(),
		RowNumber:          row.RowNumber,
		Question:           row.Question,
		Context:            row.Context,
		Status:             string(row.Status),
		ReviewStatus:       string(row.ReviewStatus),
		ReviewNote:         row.ReviewNote,
		ReviewedAt:         row.ReviewedAt,
		Flagged:            row.Flagged,
		FlagNote:           row.FlagNote,
		FlagResolved:       row.FlagResolved,
		FlagResolutionNote: row.FlagResolutionNote,
		FlaggedAt:          row.FlaggedAt,
		FlagResolvedAt:     row.FlagResolvedAt,
		EditedAnswer:       row.EditedAnswer,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	if row.ReviewerID != nil {
		s := row.ReviewerID.String()
		resp.ReviewerID = &s
	}
	if row.Output != nil {
		resp.Output = &RowOutputResponse{
			Answer:     row.Output.Answer,
			Confidence: row.Output.Confidence,
			Sources:    row.Output.Sources,
			Reasoning:  row.Output.Reasoning,
			Inference:  row.Output.Inference,
			Remarks:    row.Output.Remarks,
			TokensUsed: row.Output.TokensUsed,
			SkillIDs:   uuidStrings(row.Output.SkillIDs),
			ModelSpeed: string(row.Output.ModelSpeed),
		}
	}
	return resp
}

// ReviewRequest is the body for PATCH /rows/:id/review
type ReviewRequest struct {
	Action          string `json:"action" binding:"required,oneof=request_review approve correct flag resolve_flag"`
	Note            string `json:"note" binding:"omitempty,max=2000"`
	CorrectedAnswer string `json:"corrected_answer" binding:"omitempty,max=20000"`
}

// AnswerHistoryResponse is the wire form of an audit record
type AnswerHistoryResponse struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	ProjectID  string    `json:"project_id"`
	RowID      string    `json:"row_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Confidence float64   `json:"confidence"`
	SkillIDs   []string  `json:"skill_ids,omitempty"`
	ModelSpeed string    `json:"model_speed"`
	TokensUsed int       `json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnswerHistoryFromDomain converts an audit record to its wire form
func AnswerHistoryFromDomain(record *answering.AnswerHistory) AnswerHistoryResponse {
	return AnswerHistoryResponse{
		ID:         record.ID.String(),
		RunID:      record.RunID.String(),
		ProjectID:  record.ProjectID.String(),
		RowID:      record.RowID.String(),
		Question:   record.Question,
		Answer:     record.Answer,
		Confidence: record.Confidence,
		SkillIDs:   uuidStrings(record.SkillIDs),
		ModelSpeed: string(record.ModelSpeed),
		TokensUsed: record.TokensUsed,
		CreatedAt:  record.CreatedAt,
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
