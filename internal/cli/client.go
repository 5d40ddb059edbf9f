package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из backend.
type WorkflowResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// EditorResponse — открытый workflow со списком задач.
type EditorResponse struct {
	Workflow WorkflowResponse `json:"workflow"`
	State    string           `json:"state"`
	Tasks    []TaskResponse   `json:"tasks"`
}

// TaskResponse — задача из списка.
type TaskResponse struct {
	LocalID  string         `json:"local_id"`
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	Position int            `json:"position"`
	Config   map[string]any `json:"config"`
}

// ReportResponse — результат валидации списка.
type ReportResponse struct {
	Valid                  bool                `json:"valid"`
	Violations             map[string][]string `json:"violations"`
	FirstOffending         string              `json:"first_offending,omitempty"`
	FirstOffendingPosition int                 `json:"first_offending_position"`
}

// CommitResponse — результат коммита.
type CommitResponse struct {
	TaskCount int     `json:"task_count"`
	TaskIDs   []int64 `json:"task_ids,omitempty"`
}

// ReferenceResponse — задача, на которую можно сослаться.
type ReferenceResponse struct {
	LocalID  string `json:"local_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// ReferencesResponse — допустимые и вставленные ссылки email задачи.
type ReferencesResponse struct {
	Eligible   []ReferenceResponse `json:"eligible"`
	Referenced []ReferenceResponse `json:"referenced"`
}

// UserResponse — пользователь сессии.
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// --- Request types ---

// AddTaskRequest — добавление задачи.
type AddTaskRequest struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config"`
}

// UpdateTaskRequest — изменение задачи.
type UpdateTaskRequest struct {
	Name   *string        `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API редактора.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для API редактора.
type Client struct {
	http *resty.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// --- Session ---

// GetUser возвращает пользователя сессии.
func (c *Client) GetUser() (*UserResponse, error) {
	var u UserResponse
	err := c.get("/api/v1/session/user", &u)
	return &u, err
}

// SetUser устанавливает пользователя сессии.
func (c *Client) SetUser(u UserResponse) (*UserResponse, error) {
	var out UserResponse
	err := c.doData(http.MethodPut, "/api/v1/session/user", u, &out)
	return &out, err
}

// ClearUser забывает пользователя сессии.
func (c *Client) ClearUser() error {
	return c.delete("/api/v1/session/user")
}

// SyncUser подтягивает пользователя из backend.
func (c *Client) SyncUser() (*UserResponse, error) {
	var u UserResponse
	err := c.post("/api/v1/session/sync", nil, &u)
	return &u, err
}

// --- Workflows ---

// ListWorkflows возвращает workflows пользователя.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", &workflows)
	return workflows, err
}

// CreateWorkflow создаёт workflow в backend.
func (c *Client) CreateWorkflow(name, description string) (*WorkflowResponse, error) {
	body := map[string]string{"name": name, "description": description}
	var wf WorkflowResponse
	err := c.post("/api/v1/workflows", body, &wf)
	return &wf, err
}

// OpenWorkflow открывает workflow в редакторе.
func (c *Client) OpenWorkflow(id int64) (*EditorResponse, error) {
	var e EditorResponse
	err := c.get(workflowPath(id), &e)
	return &e, err
}

// CloseWorkflow закрывает редактор.
func (c *Client) CloseWorkflow(id int64) error {
	return c.delete(workflowPath(id))
}

// Validate проверяет весь список.
func (c *Client) Validate(id int64) (*ReportResponse, error) {
	var r ReportResponse
	err := c.get(workflowPath(id)+"/validation", &r)
	return &r, err
}

// Commit отправляет список в backend.
func (c *Client) Commit(id int64) (*CommitResponse, error) {
	var r CommitResponse
	err := c.post(workflowPath(id)+"/commit", nil, &r)
	return &r, err
}

// Reopen снова разрешает редактирование.
func (c *Client) Reopen(id int64) (*EditorResponse, error) {
	var e EditorResponse
	err := c.post(workflowPath(id)+"/reopen", nil, &e)
	return &e, err
}

// --- Tasks ---

// ListTasks возвращает список задач.
func (c *Client) ListTasks(id int64) ([]TaskResponse, error) {
	var tasks []TaskResponse
	err := c.list(workflowPath(id)+"/tasks", &tasks)
	return tasks, err
}

// AddTask добавляет задачу в конец списка.
func (c *Client) AddTask(id int64, req AddTaskRequest) (*TaskResponse, error) {
	var t TaskResponse
	err := c.post(workflowPath(id)+"/tasks", req, &t)
	return &t, err
}

// UpdateTask меняет задачу.
func (c *Client) UpdateTask(id int64, localID string, req UpdateTaskRequest) (*TaskResponse, error) {
	var t TaskResponse
	err := c.doData(http.MethodPatch, taskPath(id, localID), req, &t)
	return &t, err
}

// RemoveTask удаляет задачу.
func (c *Client) RemoveTask(id int64, localID string) error {
	return c.delete(taskPath(id, localID))
}

// MoveTask сдвигает задачу: direction "up" или "down".
func (c *Client) MoveTask(id int64, localID, direction string) (*EditorResponse, error) {
	var e EditorResponse
	err := c.post(taskPath(id, localID)+"/move", map[string]string{"direction": direction}, &e)
	return &e, err
}

// ListReferences возвращает ссылки email задачи.
func (c *Client) ListReferences(id int64, localID string) (*ReferencesResponse, error) {
	var r ReferencesResponse
	err := c.get(taskPath(id, localID)+"/references", &r)
	return &r, err
}

// InsertReference вставляет ссылку на задачу с позицией position.
func (c *Client) InsertReference(id int64, localID string, position int) (*TaskResponse, error) {
	var t TaskResponse
	err := c.post(taskPath(id, localID)+"/references", map[string]int{"position": position}, &t)
	return &t, err
}

// --- HTTP helpers ---

func workflowPath(id int64) string {
	return "/api/v1/workflows/" + strconv.FormatInt(id, 10)
}

func taskPath(id int64, localID string) string {
	return workflowPath(id) + "/tasks/" + localID
}

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	return c.doData(http.MethodDelete, path, nil, nil)
}

func (c *Client) list(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	var lr listResponse
	if err := json.Unmarshal(resp.Body(), &lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode() == http.StatusNoContent || result == nil {
		return nil
	}

	var dr dataResponse
	if err := json.Unmarshal(resp.Body(), &dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func (c *Client) do(method, path string, body any) (*resty.Response, error) {
	req := c.http.R()
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	if err := checkError(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func checkError(resp *resty.Response) error {
	if resp.StatusCode() < 400 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var er errorResponse
	if err := json.Unmarshal(resp.Body(), &er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
		apiErr.Details = er.Error.Details
	}
	return apiErr
}
