package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/skillbase/backend/internal/domain/skill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SkillModelSQLite is a SQLite-compatible version of SkillModel for testing
type SkillModelSQLite struct {
	ID         string `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int     `gorm:"not null;default:1"`
	OwnerID    string  `gorm:"not null;index"`
	LibraryID  string  `gorm:"not null;index"`
	CustomerID *string `gorm:"index"`
	Name       string  `gorm:"not null"`
	Content    string  `gorm:"not null"`
	Status     string  `gorm:"not null;default:'draft'"`
}

func (SkillModelSQLite) TableName() string {
	return "skills"
}

func setupSkillTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&SkillModelSQLite{})
	require.NoError(t, err)

	return db
}

func seedSkill(t *testing.T, db *gorm.DB, libraryID uuid.UUID, customerID *uuid.UUID, name, content string, status skill.Status) *skill.Skill {
	t.Helper()
	s := &skill.Skill{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(uuid.New()),
		LibraryID:          libraryID,
		CustomerID:         customerID,
		Name:               name,
		Content:            content,
		Status:             status,
	}
	var model SkillModelSQLite
	model.ID = s.ID.String()
	model.CreatedAt = s.CreatedAt
	model.UpdatedAt = s.UpdatedAt
	model.Version = s.Version
	model.OwnerID = s.OwnerID.String()
	model.LibraryID = libraryID.String()
	if customerID != nil {
		cid := customerID.String()
		model.CustomerID = &cid
	}
	model.Name = name
	model.Content = content
	model.Status = string(status)
	require.NoError(t, db.Create(&model).Error)
	return s
}

func TestSkillRepository_FindActiveByIDs(t *testing.T) {
	db := setupSkillTestDB(t)
	repo := NewGormSkillRepository(db)
	ctx := context.Background()

	libraryID := uuid.New()
	active1 := seedSkill(t, db, libraryID, nil, "Refund policy", "Refunds within thirty days.", skill.StatusActive)
	active2 := seedSkill(t, db, libraryID, nil, "Shipping", "Shipping takes five days.", skill.StatusActive)
	archived := seedSkill(t, db, libraryID, nil, "Old pricing", "Obsolete.", skill.StatusArchived)

	t.Run("omits unknown and inactive ids", func(t *testing.T) {
		skills, err := repo.FindActiveByIDs(ctx, []uuid.UUID{active1.ID, archived.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, skills, 1)
		assert.Equal(t, active1.ID, skills[0].ID)
	})

	t.Run("preserves the caller's id order", func(t *testing.T) {
		skills, err := repo.FindActiveByIDs(ctx, []uuid.UUID{active2.ID, active1.ID})
		require.NoError(t, err)
		require.Len(t, skills, 2)
		assert.Equal(t, active2.ID, skills[0].ID)
		assert.Equal(t, active1.ID, skills[1].ID)
	})

	t.Run("empty input returns nothing", func(t *testing.T) {
		skills, err := repo.FindActiveByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, skills)
	})
}

func TestSkillRepository_FindRelevant(t *testing.T) {
	db := setupSkillTestDB(t)
	repo := NewGormSkillRepository(db)
	ctx := context.Background()

	libraryID := uuid.New()
	customerID := uuid.New()

	refund := seedSkill(t, db, libraryID, nil, "Refund policy",
		"Customers may request a refund within thirty days of purchase.", skill.StatusActive)
	seedSkill(t, db, libraryID, nil, "Warehouse operations",
		"Forklift maintenance schedule and aisle safety.", skill.StatusActive)
	seedSkill(t, db, libraryID, nil, "Refund policy draft",
		"Refund window under discussion.", skill.StatusDraft)
	scoped := seedSkill(t, db, libraryID, &customerID, "Customer refund exceptions",
		"This customer negotiated a sixty day refund window.", skill.StatusActive)

	questions := []string{"What is the refund window for a purchase?"}

	t.Run("scores and ranks library skills", func(t *testing.T) {
		scored, err := repo.FindRelevant(ctx, libraryID, nil, questions, 0.2, 5)
		require.NoError(t, err)
		require.NotEmpty(t, scored)
		assert.Equal(t, refund.ID, scored[0].Skill.ID)
		for i := 1; i < len(scored); i++ {
			assert.LessOrEqual(t, scored[i].Score, scored[i-1].Score)
		}
	})

	t.Run("excludes customer-scoped skills without a customer", func(t *testing.T) {
		scored, err := repo.FindRelevant(ctx, libraryID, nil, questions, 0, 10)
		require.NoError(t, err)
		for _, s := range scored {
			assert.Nil(t, s.Skill.CustomerID)
		}
	})

	t.Run("includes customer-scoped skills for that customer", func(t *testing.T) {
		scored, err := repo.FindRelevant(ctx, libraryID, &customerID, questions, 0.2, 10)
		require.NoError(t, err)
		var found bool
		for _, s := range scored {
			if s.Skill.ID == scoped.ID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		scored, err := repo.FindRelevant(ctx, libraryID, &customerID, questions, 0, 1)
		require.NoError(t, err)
		assert.Len(t, scored, 1)
	})

	t.Run("min score filters weak matches", func(t *testing.T) {
		scored, err := repo.FindRelevant(ctx, libraryID, nil, questions, 0.99, 10)
		require.NoError(t, err)
		assert.Empty(t, scored)
	})
}

func TestOverlapScore(t *testing.T) {
	query := termSet([]string{"What is the refund window"})

	t.Run("full overlap scores one", func(t *testing.T) {
		assert.Equal(t, 1.0, overlapScore(query, termSet([]string{"refund window what the"})))
	})

	t.Run("no overlap scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, overlapScore(query, termSet([]string{"forklift maintenance"})))
	})

	t.Run("empty query scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, overlapScore(termSet(nil), termSet([]string{"anything"})))
	})

	t.Run("short tokens are ignored", func(t *testing.T) {
		terms := termSet([]string{"is at refund"})
		_, hasIs := terms["is"]
		assert.False(t, hasIs)
		_, hasRefund := terms["refund"]
		assert.True(t, hasRefund)
	})
}
