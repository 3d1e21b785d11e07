package services

import (
	"context"
	"time"

	"github.com/google/go-github/v71/github"
	"github.com/stretchr/testify/mock"

	"asana-pr-sync/models"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) ListCustomFields(ctx context.Context, workspaceGID string) ([]models.CustomField, error) {
	args := m.Called(ctx, workspaceGID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CustomField), args.Error(1)
}

func (m *MockClient) SearchTasksByCustomField(ctx context.Context, workspaceGID, fieldGID, value string) ([]models.Task, error) {
	args := m.Called(ctx, workspaceGID, fieldGID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockClient) ListProjectTasks(ctx context.Context, projectGID string, limit int) ([]models.Task, error) {
	args := m.Called(ctx, projectGID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockClient) CreateTask(ctx context.Context, req models.TaskRequest) (*models.Task, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockClient) UpdateTask(ctx context.Context, taskGID string, req models.TaskRequest) (*models.Task, error) {
	args := m.Called(ctx, taskGID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockClient) GetTask(ctx context.Context, taskGID string) (*models.Task, error) {
	args := m.Called(ctx, taskGID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockClient) CreateSubtask(ctx context.Context, parentGID string, req models.TaskRequest) (*models.Task, error) {
	args := m.Called(ctx, parentGID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockClient) ListSubtasks(ctx context.Context, taskGID string) ([]models.Task, error) {
	args := m.Called(ctx, taskGID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockClient) GetUser(ctx context.Context, userGID string) (*models.User, error) {
	args := m.Called(ctx, userGID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockClient) AddTaskToSection(ctx context.Context, sectionGID, taskGID string) error {
	args := m.Called(ctx, sectionGID, taskGID)
	return args.Error(0)
}

func (m *MockClient) SetParent(ctx context.Context, taskGID, parentGID string) error {
	args := m.Called(ctx, taskGID, parentGID)
	return args.Error(0)
}

// Shared fixtures.

func testFields() *FieldDirectory {
	return &FieldDirectory{
		URLField: models.CustomField{GID: "field-url", Name: urlFieldName, Type: "text"},
		StatusField: models.CustomField{
			GID:  "field-status",
			Name: statusFieldName,
			Type: "enum",
			EnumOptions: []models.EnumOption{
				{GID: "opt-open", Name: StatusOpen},
				{GID: "opt-closed", Name: StatusClosed},
				{GID: "opt-merged", Name: StatusMerged},
				{GID: "opt-draft", Name: StatusDraft},
			},
		},
	}
}

func testConfig() *Config {
	return &Config{
		AsanaToken:  "test-token",
		WorkspaceID: "ws-1",
		ProjectID:   "proj-1",
		UserMap: map[string]string{
			"alice": "alice@example.com",
			"bob":   "bob@example.com",
		},
		SkipUsers:           map[string]bool{"release-bot": true},
		NoAutocloseProjects: map[string]bool{"proj-exempt": true},
	}
}

func testPR(number int, title, state string) *github.PullRequest {
	return &github.PullRequest{
		Number:  github.Ptr(number),
		Title:   github.Ptr(title),
		State:   github.Ptr(state),
		Body:    github.Ptr("Some description"),
		HTMLURL: github.Ptr("https://github.com/acme/widgets/pull/42"),
		User:    &github.User{Login: github.Ptr("bob")},
	}
}

func noSleepRetry(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Interval: 0, Sleep: func(d time.Duration) {}}
}
