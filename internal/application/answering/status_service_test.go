package answering

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
)

func TestGetStatus(t *testing.T) {
	projects := new(MockProjectRepository)
	rows := new(MockRowRepository)
	service := NewStatusService(projects, rows, new(MockAnswerHistoryRepository), NewOwnershipAuthorizer())

	owner := uuid.New()
	project := newTestProject(owner)
	require.NoError(t, project.BeginProcessing())
	stats := answering.RowStats{Pending: 3, Processing: 5, Completed: 2}

	projects.On("FindByID", mock.Anything, project.ID).Return(project, nil)
	rows.On("StatsByProject", mock.Anything, project.ID).Return(stats, nil)

	result, err := service.GetStatus(context.Background(), owner, project.ID)
	require.NoError(t, err)
	assert.Equal(t, answering.ProjectStatusProcessing, result.Status)
	assert.Equal(t, stats, result.RowStats)
	assert.Equal(t, int64(10), result.RowStats.Total())
	assert.False(t, result.RowStats.AllTerminal())
}

func TestGetStatusProjectNotFound(t *testing.T) {
	projects := new(MockProjectRepository)
	service := NewStatusService(projects, new(MockRowRepository), new(MockAnswerHistoryRepository), NewOwnershipAuthorizer())

	projectID := uuid.New()
	projects.On("FindByID", mock.Anything, projectID).Return(nil, shared.ErrNotFound)

	_, err := service.GetStatus(context.Background(), uuid.New(), projectID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetStatusOtherOwnerReadsAsNotFound(t *testing.T) {
	projects := new(MockProjectRepository)
	rows := new(MockRowRepository)
	service := NewStatusService(projects, rows, new(MockAnswerHistoryRepository), NewOwnershipAuthorizer())

	project := newTestProject(uuid.New())
	projects.On("FindByID", mock.Anything, project.ID).Return(project, nil)

	_, err := service.GetStatus(context.Background(), uuid.New(), project.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	rows.AssertNotCalled(t, "StatsByProject", mock.Anything, mock.Anything)
}

func TestListRows(t *testing.T) {
	projects := new(MockProjectRepository)
	rows := new(MockRowRepository)
	service := NewStatusService(projects, rows, new(MockAnswerHistoryRepository), NewOwnershipAuthorizer())

	owner := uuid.New()
	project := newTestProject(owner)
	page := shared.NewPaginated(newTestRows(project.ID, 2), 2, 1, 20)

	projects.On("FindByID", mock.Anything, project.ID).Return(project, nil)
	rows.On("FindByProject", mock.Anything, project.ID, mock.Anything).Return(&page, nil)

	result, err := service.ListRows(context.Background(), owner, project.ID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(2), result.Total)
}

func TestListRowsProjectNotFound(t *testing.T) {
	projects := new(MockProjectRepository)
	rows := new(MockRowRepository)
	service := NewStatusService(projects, rows, new(MockAnswerHistoryRepository), NewOwnershipAuthorizer())

	projectID := uuid.New()
	projects.On("FindByID", mock.Anything, projectID).Return(nil, shared.ErrNotFound)

	_, err := service.ListRows(context.Background(), uuid.New(), projectID, shared.DefaultFilter())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	rows.AssertNotCalled(t, "FindByProject", mock.Anything, mock.Anything, mock.Anything)
}

func TestListRowsOtherOwnerReadsAsNotFound(t *testing.T) {
	projects := new(MockProjectRepository)
	rows := new(MockRowRepository)
	service := NewStatusService(projects, rows, new(MockAnswerHistoryRepository), NewOwnershipAuthorizer())

	project := newTestProject(uuid.New())
	projects.On("FindByID", mock.Anything, project.ID).Return(project, nil)

	_, err := service.ListRows(context.Background(), uuid.New(), project.ID, shared.DefaultFilter())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	rows.AssertNotCalled(t, "FindByProject", mock.Anything, mock.Anything, mock.Anything)
}

func TestListHistory(t *testing.T) {
	projects := new(MockProjectRepository)
	history := new(MockAnswerHistoryRepository)
	service := NewStatusService(projects, new(MockRowRepository), history, NewOwnershipAuthorizer())

	owner := uuid.New()
	project := newTestProject(owner)
	row := newTestRows(project.ID, 1)[0]
	record := answering.NewAnswerHistory(uuid.New(), row, answering.RowOutput{Answer: "42"})
	page := shared.NewPaginated([]*answering.AnswerHistory{record}, 1, 1, 20)

	projects.On("FindByID", mock.Anything, project.ID).Return(project, nil)
	history.On("FindByProject", mock.Anything, project.ID, mock.Anything).Return(&page, nil)

	result, err := service.ListHistory(context.Background(), owner, project.ID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "42", result.Items[0].Answer)
}
