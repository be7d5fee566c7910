package models

import (
	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/skill"
)

// SkillModel is the persistence model for the Skill aggregate. The answering
// service only reads skills; writes happen in the authoring service that
// shares this table.
type SkillModel struct {
	OwnedAggregateModel
	LibraryID  uuid.UUID    `gorm:"type:uuid;not null;index:idx_skills_library"`
	CustomerID *uuid.UUID   `gorm:"type:uuid;index"`
	Name       string       `gorm:"type:varchar(255);not null"`
	Content    string       `gorm:"type:text;not null"`
	Status     skill.Status `gorm:"type:varchar(20);not null;default:'draft';index:idx_skills_library"`
}

// TableName returns the table name for GORM
func (SkillModel) TableName() string {
	return "skills"
}

// ToDomain converts the persistence model to a domain Skill.
func (m *SkillModel) ToDomain() *skill.Skill {
	s := &skill.Skill{
		LibraryID:  m.LibraryID,
		CustomerID: m.CustomerID,
		Name:       m.Name,
		Content:    m.Content,
		Status:     m.Status,
	}
	m.PopulateOwnedAggregateRoot(&s.OwnedAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain Skill.
func (m *SkillModel) FromDomain(s *skill.Skill) {
	m.FromDomainOwnedAggregateRoot(s.OwnedAggregateRoot)
	m.LibraryID = s.LibraryID
	m.CustomerID = s.CustomerID
	m.Name = s.Name
	m.Content = s.Content
	m.Status = s.Status
}

// SkillModelFromDomain creates a new persistence model from a domain Skill.
func SkillModelFromDomain(s *skill.Skill) *SkillModel {
	m := &SkillModel{}
	m.FromDomain(s)
	return m
}
