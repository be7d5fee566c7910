package answering

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/skillbase/backend/internal/domain/skill"
)

// MockProjectRepository is a mock implementation of answering.ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*answering.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*answering.Project), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, project *answering.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to answering.ProjectStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// MockRowRepository is a mock implementation of answering.RowRepository
type MockRowRepository struct {
	mock.Mock
}

func (m *MockRowRepository) FindByID(ctx context.Context, id uuid.UUID) (*answering.Row, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*answering.Row), args.Error(1)
}

func (m *MockRowRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) (*shared.Paginated[*answering.Row], error) {
	args := m.Called(ctx, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*answering.Row]), args.Error(1)
}

func (m *MockRowRepository) FindPendingByProject(ctx context.Context, projectID uuid.UUID) ([]*answering.Row, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*answering.Row), args.Error(1)
}

func (m *MockRowRepository) ClaimPending(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRowRepository) RevertToPending(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockRowRepository) Save(ctx context.Context, row *answering.Row) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockRowRepository) StatsByProject(ctx context.Context, projectID uuid.UUID) (answering.RowStats, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(answering.RowStats), args.Error(1)
}

// MockAnswerHistoryRepository is a mock implementation of answering.AnswerHistoryRepository
type MockAnswerHistoryRepository struct {
	mock.Mock
}

func (m *MockAnswerHistoryRepository) Append(ctx context.Context, records []*answering.AnswerHistory) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockAnswerHistoryRepository) FindByProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) (*shared.Paginated[*answering.AnswerHistory], error) {
	args := m.Called(ctx, projectID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*answering.AnswerHistory]), args.Error(1)
}

// MockSkillRepository is a mock implementation of skill.Repository
type MockSkillRepository struct {
	mock.Mock
}

func (m *MockSkillRepository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*skill.Skill, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*skill.Skill), args.Error(1)
}

func (m *MockSkillRepository) FindRelevant(ctx context.Context, libraryID uuid.UUID, customerID *uuid.UUID, questions []string, minScore float64, limit int) ([]skill.Scored, error) {
	args := m.Called(ctx, libraryID, customerID, questions, minScore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]skill.Scored), args.Error(1)
}

// MockJobQueue is a mock implementation of answering.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) Enqueue(ctx context.Context, job answering.DispatchJob) (string, error) {
	args := m.Called(ctx, job)
	return args.String(0), args.Error(1)
}

func (m *MockJobQueue) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockGenerator is a mock implementation of answering.Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, batch []answering.GenerationInput, skills []skill.Content, speed answering.ModelSpeed) ([]answering.GenerationResult, error) {
	args := m.Called(ctx, batch, skills, speed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]answering.GenerationResult), args.Error(1)
}

// fakeCache is a map-backed skill.ContentCache capturing Set calls
type fakeCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]skill.Content
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uuid.UUID]skill.Content)}
}

func (c *fakeCache) Get(ctx context.Context, libraryID, skillID uuid.UUID) (*skill.Content, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.entries[skillID]
	if !ok {
		return nil, false
	}
	return &content, true
}

func (c *fakeCache) Set(ctx context.Context, libraryID uuid.UUID, content skill.Content, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[content.SkillID] = content
	c.sets++
}

func (c *fakeCache) InvalidateLibrary(ctx context.Context, libraryID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID]skill.Content)
	return nil
}

// Test fixtures

func newTestProject(ownerID uuid.UUID) *answering.Project {
	project, err := answering.NewProject(ownerID, "Vendor questionnaire", answering.ProjectConfig{
		LibraryID:  uuid.New(),
		BatchSize:  10,
		ModelSpeed: answering.ModelSpeedBalanced,
	})
	if err != nil {
		panic(err)
	}
	return project
}

func newTestRows(projectID uuid.UUID, count int) []*answering.Row {
	rows := make([]*answering.Row, count)
	for i := range rows {
		row, err := answering.NewRow(projectID, i+1, "Question?", "")
		if err != nil {
			panic(err)
		}
		rows[i] = row
	}
	return rows
}

func newTestSkill(libraryID uuid.UUID, name string) *skill.Skill {
	return &skill.Skill{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(uuid.New()),
		LibraryID:          libraryID,
		Name:               name,
		Content:            "Reference content for " + name,
		Status:             skill.StatusActive,
	}
}

func rowIDs(rows []*answering.Row) []uuid.UUID {
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}

func resultsFor(rows []*answering.Row) []answering.GenerationResult {
	results := make([]answering.GenerationResult, len(rows))
	for i, row := range rows {
		results[i] = answering.GenerationResult{
			RowID:      row.ID,
			Answer:     "Answer " + row.ID.String()[:8],
			Confidence: 0.9,
			TokensUsed: 12,
		}
	}
	return results
}
