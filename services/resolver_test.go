package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v71/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"asana-pr-sync/models"
)

func newTestResolver(client *MockClient) *Resolver {
	return &Resolver{
		Client: client,
		Config: testConfig(),
		Fields: testFields(),
		Retry:  noSleepRetry(5),
	}
}

func TestFindOrCreateOpenedAlwaysCreates(t *testing.T) {
	client := new(MockClient)
	resolver := newTestResolver(client)
	pr := testPR(42, "Fix bug", "open")
	content := BuildContent(pr, "widgets", PlainRenderer{})

	client.On("CreateTask", mock.Anything, mock.MatchedBy(func(req models.TaskRequest) bool {
		return req.Name == "widgets PR #42: Fix bug" &&
			req.CustomFields["field-url"] == pr.GetHTMLURL() &&
			req.CustomFields["field-status"] == "opt-open"
	})).Return(&models.Task{GID: "task-1"}, nil).Once()

	resolution, err := resolver.FindOrCreate(context.Background(), pr, "opened", content)
	require.NoError(t, err)
	assert.True(t, resolution.Created)
	assert.Equal(t, "task-1", resolution.Task.GID)
	client.AssertNotCalled(t, "SearchTasksByCustomField", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	client.AssertExpectations(t)
}

func TestFindOrCreateSearchHit(t *testing.T) {
	client := new(MockClient)
	resolver := newTestResolver(client)
	pr := testPR(42, "Fix bug", "open")

	client.On("SearchTasksByCustomField", mock.Anything, "ws-1", "field-url", pr.GetHTMLURL()).
		Return([]models.Task{{GID: "task-1"}}, nil).Once()

	resolution, err := resolver.FindOrCreate(context.Background(), pr, "edited", BuildContent(pr, "widgets", PlainRenderer{}))
	require.NoError(t, err)
	assert.False(t, resolution.Created)
	assert.Equal(t, "task-1", resolution.Task.GID)
	client.AssertExpectations(t)
}

func TestFindOrCreateFallbackScanHit(t *testing.T) {
	client := new(MockClient)
	resolver := newTestResolver(client)
	pr := testPR(42, "Fix bug", "open")

	client.On("SearchTasksByCustomField", mock.Anything, "ws-1", "field-url", pr.GetHTMLURL()).
		Return([]models.Task{}, nil).Once()
	client.On("ListProjectTasks", mock.Anything, "proj-1", fallbackScanLimit).Return([]models.Task{
		{GID: "other", CustomFields: []models.CustomFieldValue{{GID: "field-url", DisplayValue: "https://github.com/acme/widgets/pull/7"}}},
		{GID: "task-1", CustomFields: []models.CustomFieldValue{{GID: "field-url", DisplayValue: pr.GetHTMLURL()}}},
	}, nil).Once()

	resolution, err := resolver.FindOrCreate(context.Background(), pr, "edited", BuildContent(pr, "widgets", PlainRenderer{}))
	require.NoError(t, err)
	assert.Equal(t, "task-1", resolution.Task.GID)
	client.AssertExpectations(t)
}

func TestFindOrCreateRetriesThenCreates(t *testing.T) {
	client := new(MockClient)
	resolver := newTestResolver(client)
	slept := 0
	resolver.Retry.Sleep = func(time.Duration) { slept++ }
	pr := testPR(42, "Fix bug", "open")

	client.On("SearchTasksByCustomField", mock.Anything, "ws-1", "field-url", pr.GetHTMLURL()).
		Return([]models.Task{}, nil).Times(5)
	client.On("ListProjectTasks", mock.Anything, "proj-1", fallbackScanLimit).
		Return([]models.Task{}, nil).Times(5)
	client.On("CreateTask", mock.Anything, mock.Anything).Return(&models.Task{GID: "task-new"}, nil).Once()

	resolution, err := resolver.FindOrCreate(context.Background(), pr, "edited", BuildContent(pr, "widgets", PlainRenderer{}))
	require.NoError(t, err)
	assert.True(t, resolution.Created)
	assert.Equal(t, "task-new", resolution.Task.GID)
	assert.Equal(t, 4, slept, "sleeps between attempts, not after the last")
	client.AssertExpectations(t)
}

func TestCreateDropsInaccessibleParent(t *testing.T) {
	client := new(MockClient)
	resolver := newTestResolver(client)
	pr := testPR(42, "Fix bug", "open")
	pr.Body = github.Ptr("Part of a larger effort.\n\nAsana: https://app.asana.com/0/123/456")
	content := BuildContent(pr, "widgets", PlainRenderer{})

	client.On("CreateTask", mock.Anything, mock.Anything).Return(&models.Task{GID: "task-1"}, nil).Once()
	client.On("SetParent", mock.Anything, "task-1", "456").
		Return(&APIError{StatusCode: http.StatusForbidden, Message: "Not allowed"}).Once()

	resolution, err := resolver.FindOrCreate(context.Background(), pr, "opened", content)
	require.NoError(t, err)
	assert.True(t, resolution.Created)
	client.AssertExpectations(t)
}

func TestCreateSetsParentAndSection(t *testing.T) {
	client := new(MockClient)
	resolver := newTestResolver(client)
	resolver.Config.SectionID = "sect-1"
	pr := testPR(42, "Fix bug", "open")
	pr.Body = github.Ptr("Asana: https://app.asana.com/0/123/456")
	content := BuildContent(pr, "widgets", PlainRenderer{})

	client.On("CreateTask", mock.Anything, mock.Anything).Return(&models.Task{GID: "task-1"}, nil).Once()
	client.On("SetParent", mock.Anything, "task-1", "456").Return(nil).Once()
	client.On("AddTaskToSection", mock.Anything, "sect-1", "task-1").Return(nil).Once()

	_, err := resolver.FindOrCreate(context.Background(), pr, "opened", content)
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestFindOrCreatePropagatesSearchError(t *testing.T) {
	client := new(MockClient)
	resolver := newTestResolver(client)
	pr := testPR(42, "Fix bug", "open")

	client.On("SearchTasksByCustomField", mock.Anything, "ws-1", "field-url", pr.GetHTMLURL()).
		Return(nil, &APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}).Once()

	_, err := resolver.FindOrCreate(context.Background(), pr, "edited", BuildContent(pr, "widgets", PlainRenderer{}))
	assert.Error(t, err)
	client.AssertExpectations(t)
}
