package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"asana-pr-sync/models"
)

const asanaBaseURL = "https://app.asana.com/api/1.0"

// Client is the subset of the Asana API this service consumes.
type Client interface {
	ListCustomFields(ctx context.Context, workspaceGID string) ([]models.CustomField, error)
	SearchTasksByCustomField(ctx context.Context, workspaceGID, fieldGID, value string) ([]models.Task, error)
	ListProjectTasks(ctx context.Context, projectGID string, limit int) ([]models.Task, error)
	CreateTask(ctx context.Context, req models.TaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, taskGID string, req models.TaskRequest) (*models.Task, error)
	GetTask(ctx context.Context, taskGID string) (*models.Task, error)
	CreateSubtask(ctx context.Context, parentGID string, req models.TaskRequest) (*models.Task, error)
	ListSubtasks(ctx context.Context, taskGID string) ([]models.Task, error)
	GetUser(ctx context.Context, userGID string) (*models.User, error)
	AddTaskToSection(ctx context.Context, sectionGID, taskGID string) error
	SetParent(ctx context.Context, taskGID, parentGID string) error
}

// HTTPClient talks to the real Asana API.
type HTTPClient struct {
	baseURL string
	tokens  oauth2.TokenSource
	http    *http.Client
}

func NewHTTPClient(token string) *HTTPClient {
	return &HTTPClient{
		baseURL: asanaBaseURL,
		tokens:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		http:    http.DefaultClient,
	}
}

const taskOptFields = "name,notes,completed,permalink_url,assignee.email,parent.gid,custom_fields.(gid|name|text_value|display_value|enum_value.gid)"

type dataEnvelope struct {
	Data     json.RawMessage `json:"data"`
	NextPage *struct {
		Offset string `json:"offset"`
	} `json:"next_page"`
}

type errorEnvelope struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any) (*dataEnvelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(map[string]any{"data": body})
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErrorMessage(raw)}
	}

	var envelope dataEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("cannot decode asana response: %v", err)
		}
	}
	return &envelope, nil
}

func apiErrorMessage(raw []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Errors) > 0 {
		return envelope.Errors[0].Message
	}
	return string(raw)
}

// ListCustomFields drains the workspace's custom field pages into a slice.
func (c *HTTPClient) ListCustomFields(ctx context.Context, workspaceGID string) ([]models.CustomField, error) {
	var fields []models.CustomField
	offset := ""
	for {
		query := url.Values{}
		query.Set("limit", "100")
		query.Set("opt_fields", "name,resource_subtype,enum_options.name")
		if offset != "" {
			query.Set("offset", offset)
		}
		envelope, err := c.do(ctx, http.MethodGet, "/workspaces/"+workspaceGID+"/custom_fields", query, nil)
		if err != nil {
			return nil, err
		}
		var page []models.CustomField
		if err := json.Unmarshal(envelope.Data, &page); err != nil {
			return nil, err
		}
		fields = append(fields, page...)
		if envelope.NextPage == nil || envelope.NextPage.Offset == "" {
			return fields, nil
		}
		offset = envelope.NextPage.Offset
	}
}

func (c *HTTPClient) SearchTasksByCustomField(ctx context.Context, workspaceGID, fieldGID, value string) ([]models.Task, error) {
	query := url.Values{}
	query.Set(fmt.Sprintf("custom_fields.%s.value", fieldGID), value)
	query.Set("opt_fields", taskOptFields)
	envelope, err := c.do(ctx, http.MethodGet, "/workspaces/"+workspaceGID+"/tasks/search", query, nil)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := json.Unmarshal(envelope.Data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListProjectTasks returns up to limit of the project's newest tasks with
// custom field values projected in.
func (c *HTTPClient) ListProjectTasks(ctx context.Context, projectGID string, limit int) ([]models.Task, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("sort_by", "created_at")
	query.Set("sort_ascending", "false")
	query.Set("opt_fields", taskOptFields)
	envelope, err := c.do(ctx, http.MethodGet, "/projects/"+projectGID+"/tasks", query, nil)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := json.Unmarshal(envelope.Data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, req models.TaskRequest) (*models.Task, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/tasks", nil, req)
	if err != nil {
		return nil, err
	}
	return decodeTask(envelope)
}

func (c *HTTPClient) UpdateTask(ctx context.Context, taskGID string, req models.TaskRequest) (*models.Task, error) {
	envelope, err := c.do(ctx, http.MethodPut, "/tasks/"+taskGID, nil, req)
	if err != nil {
		return nil, err
	}
	return decodeTask(envelope)
}

func (c *HTTPClient) GetTask(ctx context.Context, taskGID string) (*models.Task, error) {
	query := url.Values{}
	query.Set("opt_fields", taskOptFields+",memberships.project.gid,memberships.project.name")
	envelope, err := c.do(ctx, http.MethodGet, "/tasks/"+taskGID, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeTask(envelope)
}

func (c *HTTPClient) CreateSubtask(ctx context.Context, parentGID string, req models.TaskRequest) (*models.Task, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/tasks/"+parentGID+"/subtasks", nil, req)
	if err != nil {
		return nil, err
	}
	return decodeTask(envelope)
}

func (c *HTTPClient) ListSubtasks(ctx context.Context, taskGID string) ([]models.Task, error) {
	query := url.Values{}
	query.Set("opt_fields", "name,completed,assignee.gid,assignee.email")
	envelope, err := c.do(ctx, http.MethodGet, "/tasks/"+taskGID+"/subtasks", query, nil)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := json.Unmarshal(envelope.Data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, userGID string) (*models.User, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/users/"+userGID, nil, nil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal(envelope.Data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) AddTaskToSection(ctx context.Context, sectionGID, taskGID string) error {
	_, err := c.do(ctx, http.MethodPost, "/sections/"+sectionGID+"/addTask", nil, map[string]string{"task": taskGID})
	return err
}

func (c *HTTPClient) SetParent(ctx context.Context, taskGID, parentGID string) error {
	_, err := c.do(ctx, http.MethodPost, "/tasks/"+taskGID+"/setParent", nil, map[string]string{"parent": parentGID})
	return err
}

func decodeTask(envelope *dataEnvelope) (*models.Task, error) {
	var task models.Task
	if err := json.Unmarshal(envelope.Data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
