package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RowModelSQLite is a SQLite-compatible version of RowModel for testing
type RowModelSQLite struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int    `gorm:"not null;default:1"`
	ProjectID string `gorm:"not null;index"`
	RowNumber int    `gorm:"not null"`

	Question string `gorm:"not null"`
	Context  string

	Status string `gorm:"not null;default:'pending'"`
	Output *string

	ReviewStatus string `gorm:"not null;default:'none'"`
	ReviewerID   *string
	ReviewNote   string
	ReviewedAt   *time.Time

	Flagged            bool `gorm:"not null;default:false"`
	FlagNote           string
	FlaggedBy          *string
	FlaggedAt          *time.Time
	FlagResolved       bool `gorm:"not null;default:false"`
	FlagResolutionNote string
	FlagResolvedBy     *string
	FlagResolvedAt     *time.Time

	EditedAnswer *string
}

func (RowModelSQLite) TableName() string {
	return "answer_rows"
}

func setupRowTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&RowModelSQLite{})
	require.NoError(t, err)

	return db
}

func seedRows(t *testing.T, repo *GormRowRepository, projectID uuid.UUID, n int) []*answering.Row {
	t.Helper()
	ctx := context.Background()
	rows := make([]*answering.Row, n)
	for i := range rows {
		row, err := answering.NewRow(projectID, i+1, "What is the refund window?", "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, row))
		rows[i] = row
	}
	return rows
}

func TestRowRepository_SaveAndFind(t *testing.T) {
	db := setupRowTestDB(t)
	repo := NewGormRowRepository(db)
	ctx := context.Background()

	t.Run("round trips a completed row including output", func(t *testing.T) {
		projectID := uuid.New()
		row, err := answering.NewRow(projectID, 1, "What is the refund window?", "EU customer")
		require.NoError(t, err)
		require.NoError(t, row.MarkProcessing())
		skillID := uuid.New()
		require.NoError(t, row.Complete(answering.RowOutput{
			Answer:     "Thirty days.",
			Confidence: 0.82,
			Sources:    []string{"refund-policy"},
			TokensUsed: 120,
			SkillIDs:   []uuid.UUID{skillID},
			ModelSpeed: answering.ModelSpeedBalanced,
		}))

		require.NoError(t, repo.Save(ctx, row))

		found, err := repo.FindByID(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, answering.RowStatusCompleted, found.Status)
		require.NotNil(t, found.Output)
		assert.Equal(t, "Thirty days.", found.Output.Answer)
		assert.Equal(t, 0.82, found.Output.Confidence)
		assert.Equal(t, []uuid.UUID{skillID}, found.Output.SkillIDs)
		assert.Equal(t, "EU customer", found.Context)
	})

	t.Run("pending row has no output", func(t *testing.T) {
		projectID := uuid.New()
		row, err := answering.NewRow(projectID, 1, "What is the refund window?", "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, row))

		found, err := repo.FindByID(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, answering.RowStatusPending, found.Status)
		assert.Nil(t, found.Output)
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestRowRepository_FindPendingByProject(t *testing.T) {
	db := setupRowTestDB(t)
	repo := NewGormRowRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	rows := seedRows(t, repo, projectID, 3)

	// Complete the middle row; it should drop out of the pending set.
	require.NoError(t, rows[1].MarkProcessing())
	require.NoError(t, rows[1].Complete(answering.RowOutput{Answer: "Yes."}))
	require.NoError(t, repo.Save(ctx, rows[1]))

	// A row from another project must not leak in.
	other, err := answering.NewRow(uuid.New(), 1, "Other project question?", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	pending, err := repo.FindPendingByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[0].RowNumber)
	assert.Equal(t, 3, pending[1].RowNumber)
}

func TestRowRepository_ClaimPending(t *testing.T) {
	db := setupRowTestDB(t)
	repo := NewGormRowRepository(db)
	ctx := context.Background()

	t.Run("claims all pending rows", func(t *testing.T) {
		projectID := uuid.New()
		rows := seedRows(t, repo, projectID, 3)
		ids := []uuid.UUID{rows[0].ID, rows[1].ID, rows[2].ID}

		claimed, err := repo.ClaimPending(ctx, ids)
		require.NoError(t, err)
		assert.Equal(t, int64(3), claimed)

		for _, id := range ids {
			found, err := repo.FindByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, answering.RowStatusProcessing, found.Status)
		}
	})

	t.Run("short count when a row was already taken", func(t *testing.T) {
		projectID := uuid.New()
		rows := seedRows(t, repo, projectID, 2)

		claimed, err := repo.ClaimPending(ctx, []uuid.UUID{rows[0].ID})
		require.NoError(t, err)
		require.Equal(t, int64(1), claimed)

		// A second claim over both rows only gets the one still pending.
		claimed, err = repo.ClaimPending(ctx, []uuid.UUID{rows[0].ID, rows[1].ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), claimed)
	})

	t.Run("empty id list claims nothing", func(t *testing.T) {
		claimed, err := repo.ClaimPending(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, claimed)
	})
}

func TestRowRepository_RevertToPending(t *testing.T) {
	db := setupRowTestDB(t)
	repo := NewGormRowRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	rows := seedRows(t, repo, projectID, 3)
	ids := []uuid.UUID{rows[0].ID, rows[1].ID, rows[2].ID}

	claimed, err := repo.ClaimPending(ctx, ids)
	require.NoError(t, err)
	require.Equal(t, int64(3), claimed)

	// One row completed before the run failed; it reverts too.
	completed, err := repo.FindByID(ctx, rows[0].ID)
	require.NoError(t, err)
	require.NoError(t, completed.Complete(answering.RowOutput{Answer: "Yes.", Confidence: 0.9}))
	require.NoError(t, repo.Save(ctx, completed))

	require.NoError(t, repo.RevertToPending(ctx, ids))

	for _, id := range ids {
		found, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, answering.RowStatusPending, found.Status)
		assert.Nil(t, found.Output)
	}
}

func TestRowRepository_FindByProject(t *testing.T) {
	db := setupRowTestDB(t)
	repo := NewGormRowRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	seedRows(t, repo, projectID, 5)

	t.Run("paginates in row-number order", func(t *testing.T) {
		filter := shared.Filter{Page: 1, PageSize: 2, OrderBy: "row_number", OrderDir: "asc"}
		page, err := repo.FindByProject(ctx, projectID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Items, 2)
		assert.Equal(t, 1, page.Items[0].RowNumber)
		assert.Equal(t, 2, page.Items[1].RowNumber)

		filter.Page = 3
		page, err = repo.FindByProject(ctx, projectID, filter)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, 5, page.Items[0].RowNumber)
	})

	t.Run("unknown sort field falls back to row_number", func(t *testing.T) {
		filter := shared.Filter{Page: 1, PageSize: 10, OrderBy: "question; DROP TABLE answer_rows", OrderDir: "asc"}
		page, err := repo.FindByProject(ctx, projectID, filter)
		require.NoError(t, err)
		assert.Len(t, page.Items, 5)
	})
}

func TestRowRepository_StatsByProject(t *testing.T) {
	db := setupRowTestDB(t)
	repo := NewGormRowRepository(db)
	ctx := context.Background()

	projectID := uuid.New()
	rows := seedRows(t, repo, projectID, 4)

	require.NoError(t, rows[0].MarkProcessing())
	require.NoError(t, repo.Save(ctx, rows[0]))

	require.NoError(t, rows[1].MarkProcessing())
	require.NoError(t, rows[1].Complete(answering.RowOutput{Answer: "Yes."}))
	require.NoError(t, repo.Save(ctx, rows[1]))

	require.NoError(t, rows[2].MarkProcessing())
	require.NoError(t, rows[2].Fail("generator returned malformed payload"))
	require.NoError(t, repo.Save(ctx, rows[2]))

	stats, err := repo.StatsByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Error)
	assert.Equal(t, int64(4), stats.Total())
	assert.False(t, stats.AllTerminal())
}
