package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
)

// ProjectModel is the persistence model for the Project aggregate.
type ProjectModel struct {
	OwnedAggregateModel
	Name       string                  `gorm:"type:varchar(255);not null"`
	CustomerID *uuid.UUID              `gorm:"type:uuid;index"`
	Status     answering.ProjectStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Config     string                  `gorm:"type:jsonb;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "answer_projects"
}

// ToDomain converts the persistence model to a domain Project.
func (m *ProjectModel) ToDomain() *answering.Project {
	p := &answering.Project{
		Name:       m.Name,
		CustomerID: m.CustomerID,
		Status:     m.Status,
	}
	m.PopulateOwnedAggregateRoot(&p.OwnedAggregateRoot)
	if m.Config != "" {
		_ = json.Unmarshal([]byte(m.Config), &p.Config)
	}
	return p
}

// FromDomain populates the persistence model from a domain Project.
func (m *ProjectModel) FromDomain(p *answering.Project) {
	m.FromDomainOwnedAggregateRoot(p.OwnedAggregateRoot)
	m.Name = p.Name
	m.CustomerID = p.CustomerID
	m.Status = p.Status
	if raw, err := json.Marshal(p.Config); err == nil {
		m.Config = string(raw)
	} else {
		m.Config = "{}"
	}
}

// ProjectModelFromDomain creates a new persistence model from a domain Project.
func ProjectModelFromDomain(p *answering.Project) *ProjectModel {
	m := &ProjectModel{}
	m.FromDomain(p)
	return m
}

// RowModel is the persistence model for the Row aggregate.
type RowModel struct {
	AggregateModel
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_rows_project;index:idx_rows_project_status"`
	RowNumber int       `gorm:"not null"`

	Question string `gorm:"type:text;not null"`
	Context  string `gorm:"type:text"`

	Status answering.RowStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_rows_project_status"`
	Output *string             `gorm:"type:jsonb"`

	ReviewStatus answering.ReviewStatus `gorm:"type:varchar(20);not null;default:'none'"`
	ReviewerID   *uuid.UUID             `gorm:"type:uuid"`
	ReviewNote   string                 `gorm:"type:text"`
	ReviewedAt   *time.Time             `gorm:"type:timestamptz"`

	Flagged            bool       `gorm:"not null;default:false"`
	FlagNote           string     `gorm:"type:text"`
	FlaggedBy          *uuid.UUID `gorm:"type:uuid"`
	FlaggedAt          *time.Time `gorm:"type:timestamptz"`
	FlagResolved       bool       `gorm:"not null;default:false"`
	FlagResolutionNote string     `gorm:"type:text"`
	FlagResolvedBy     *uuid.UUID `gorm:"type:uuid"`
	FlagResolvedAt     *time.Time `gorm:"type:timestamptz"`

	EditedAnswer *string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RowModel) TableName() string {
	return "answer_rows"
}

// ToDomain converts the persistence model to a domain Row.
func (m *RowModel) ToDomain() *answering.Row {
	r := &answering.Row{
		ProjectID:          m.ProjectID,
		RowNumber:          m.RowNumber,
		Question:           m.Question,
		Context:            m.Context,
		Status:             m.Status,
		ReviewStatus:       m.ReviewStatus,
		ReviewerID:         m.ReviewerID,
		ReviewNote:         m.ReviewNote,
		ReviewedAt:         m.ReviewedAt,
		Flagged:            m.Flagged,
		FlagNote:           m.FlagNote,
		FlaggedBy:          m.FlaggedBy,
		FlaggedAt:          m.FlaggedAt,
		FlagResolved:       m.FlagResolved,
		FlagResolutionNote: m.FlagResolutionNote,
		FlagResolvedBy:     m.FlagResolvedBy,
		FlagResolvedAt:     m.FlagResolvedAt,
		EditedAnswer:       m.EditedAnswer,
	}
	m.PopulateAggregateRoot(&r.BaseAggregateRoot)
	if m.Output != nil && *m.Output != "" {
		var output answering.RowOutput
		if err := json.Unmarshal([]byte(*m.Output), &output); err == nil {
			r.Output = &output
		}
	}
	return r
}

// FromDomain populates the persistence model from a domain Row.
func (m *RowModel) FromDomain(r *answering.Row) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ProjectID = r.ProjectID
	m.RowNumber = r.RowNumber
	m.Question = r.Question
	m.Context = r.Context
	m.Status = r.Status
	m.ReviewStatus = r.ReviewStatus
	m.ReviewerID = r.ReviewerID
	m.ReviewNote = r.ReviewNote
	m.ReviewedAt = r.ReviewedAt
	m.Flagged = r.Flagged
	m.FlagNote = r.FlagNote
	m.FlaggedBy = r.FlaggedBy
	m.FlaggedAt = r.FlaggedAt
	m.FlagResolved = r.FlagResolved
	m.FlagResolutionNote = r.FlagResolutionNote
	m.FlagResolvedBy = r.FlagResolvedBy
	m.FlagResolvedAt = r.FlagResolvedAt
	m.EditedAnswer = r.EditedAnswer

	m.Output = nil
	if r.Output != nil {
		if raw, err := json.Marshal(r.Output); err == nil {
			s := string(raw)
			m.Output = &s
		}
	}
}

// RowModelFromDomain creates a new persistence model from a domain Row.
func RowModelFromDomain(r *answering.Row) *RowModel {
	m := &RowModel{}
	m.FromDomain(r)
	return m
}

// AnswerHistoryModel is the persistence model for the append-only answer log.
type AnswerHistoryModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	RunID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProjectID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	RowID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	Question   string               `gorm:"type:text;not null"`
	Answer     string               `gorm:"type:text;not null"`
	Confidence float64              `gorm:"not null;default:0"`
	SkillIDs   string               `gorm:"type:jsonb;not null;default:'[]'"`
	ModelSpeed answering.ModelSpeed `gorm:"type:varchar(20);not null"`
	TokensUsed int                  `gorm:"not null;default:0"`
	CreatedAt  time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AnswerHistoryModel) TableName() string {
	return "answer_history"
}

// ToDomain converts the persistence model to a domain AnswerHistory.
func (m *AnswerHistoryModel) ToDomain() *answering.AnswerHistory {
	h := &answering.AnswerHistory{
		ID:         m.ID,
		RunID:      m.RunID,
		ProjectID:  m.ProjectID,
		RowID:      m.RowID,
		Question:   m.Question,
		Answer:     m.Answer,
		Confidence: m.Confidence,
		ModelSpeed: m.ModelSpeed,
		TokensUsed: m.TokensUsed,
		CreatedAt:  m.CreatedAt,
	}
	if m.SkillIDs != "" {
		_ = json.Unmarshal([]byte(m.SkillIDs), &h.SkillIDs)
	}
	return h
}

// AnswerHistoryModelFromDomain creates a new persistence model from a domain AnswerHistory.
func AnswerHistoryModelFromDomain(h *answering.AnswerHistory) *AnswerHistoryModel {
	m := &AnswerHistoryModel{
		ID:         h.ID,
		RunID:      h.RunID,
		ProjectID:  h.ProjectID,
		RowID:      h.RowID,
		Question:   h.Question,
		Answer:     h.Answer,
		Confidence: h.Confidence,
		SkillIDs:   "[]",
		ModelSpeed: h.ModelSpeed,
		TokensUsed: h.TokensUsed,
		CreatedAt:  h.CreatedAt,
	}
	if raw, err := json.Marshal(h.SkillIDs); err == nil && h.SkillIDs != nil {
		m.SkillIDs = string(raw)
	}
	return m
}

// Guard against a domain type drifting away from its model.
var _ shared.AggregateRoot = (*answering.Project)(nil)
var _ shared.AggregateRoot = (*answering.Row)(nil)
