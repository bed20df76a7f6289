// Package api wraps the Agent7 server's HTTP/JSON endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/agent7/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the Agent7 API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with the given request timeout.
// A zero timeout selects DefaultClientTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TaskFilter narrows GET /api/tasks.
type TaskFilter struct {
	ProjectID *int64
	Status    string
}

func (f TaskFilter) query() string {
	v := url.Values{}
	if f.ProjectID != nil {
		v.Set("project_id", strconv.FormatInt(*f.ProjectID, 10))
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// --- Reads ---

// Status fetches the system status snapshot.
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	var status models.Status
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListTasks fetches tasks, optionally filtered by project and status.
func (c *Client) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.get(ctx, "/api/tasks"+filter.query(), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches a task with its results and file modifications.
func (c *Client) GetTask(ctx context.Context, id int64) (*models.TaskDetail, error) {
	var detail models.TaskDetail
	if err := c.get(ctx, fmt.Sprintf("/api/tasks/%d", id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Stats fetches aggregate task counts.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.get(ctx, "/api/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Files lists the files of the selected project. The server returns an empty
// list when no project is selected.
func (c *Client) Files(ctx context.Context) ([]models.FileEntry, error) {
	var files []models.FileEntry
	if err := c.get(ctx, "/api/files", &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListProjects lists every project known to the server.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.get(ctx, "/api/projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CurrentProject fetches the selected project.
func (c *Client) CurrentProject(ctx context.Context) (*models.Project, error) {
	var project models.Project
	if err := c.get(ctx, "/api/project/current", &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// --- Writes ---

// SelectProjectResult is the payload of a successful project selection.
type SelectProjectResult struct {
	ProjectID  int64  `json:"project_id"`
	ProjectDir string `json:"project_dir"`
}

// SelectProject makes directory the server's current project.
func (c *Client) SelectProject(ctx context.Context, directory string) (*SelectProjectResult, error) {
	var result SelectProjectResult
	body := map[string]string{"directory": directory}
	if err := c.send(ctx, http.MethodPost, "/api/project/select", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateTask creates a new task in a project.
func (c *Client) CreateTask(ctx context.Context, task models.NewTask) (*models.Task, error) {
	var created models.Task
	if err := c.send(ctx, http.MethodPost, "/api/tasks", task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ExecuteTask starts a server-side execution. Completion arrives later on the
// push channel.
func (c *Client) ExecuteTask(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/api/execute/%d", id), nil, nil)
}

// ArchiveTask archives a task.
func (c *Client) ArchiveTask(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/api/task/%d/archive", id), nil, nil)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/task/%d", id), nil, nil)
}

// Chat sends a message to the chat agent.
func (c *Client) Chat(ctx context.Context, message string) (*models.ChatReply, error) {
	var reply models.ChatReply
	body := map[string]string{"message": message}
	if err := c.send(ctx, http.MethodPost, "/api/chat", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ResetChat clears the chat agent's conversation history.
func (c *Client) ResetChat(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/chat/reset", nil, nil)
}

// --- Transport ---

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// send issues a write request. A 2xx body carrying "success": false is
// reported as an APIError like a non-2xx status would be.
func (c *Client) send(ctx context.Context, method, path string, data, out interface{}) error {
	var reader io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if apiErr := checkSuccess(body); apiErr != nil {
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func checkSuccess(body []byte) error {
	var envelope struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	// Non-object bodies (lists, empty) carry no success flag.
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.Success != nil && !*envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = "request was not successful"
		}
		return &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return nil
}
