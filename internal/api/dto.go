package api

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/taskflow/internal/commit"
	"github.com/shaiso/taskflow/internal/domain"
	"github.com/shaiso/taskflow/internal/editor"
	"github.com/shaiso/taskflow/internal/store"
)

// Session DTOs

// SetUserRequest — запрос на установку пользователя сессии.
type SetUserRequest struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow в backend.
type CreateWorkflowRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// WorkflowResponse — открытый workflow вместе со списком задач.
type WorkflowResponse struct {
	Workflow domain.Workflow    `json:"workflow"`
	State    domain.EditorState `json:"state"`
	Tasks    []TaskResponse     `json:"tasks"`
}

// WorkflowFromEditor собирает WorkflowResponse из открытого редактора.
func WorkflowFromEditor(e *editor.Editor) WorkflowResponse {
	return WorkflowResponse{
		Workflow: e.Workflow(),
		State:    e.State(),
		Tasks:    TasksFromDomain(e.Tasks()),
	}
}

// CommitResponse — результат успешного коммита.
type CommitResponse struct {
	TaskCount int     `json:"task_count"`
	TaskIDs   []int64 `json:"task_ids,omitempty"`
}

// CommitFromResult конвертирует commit.Result в CommitResponse.
func CommitFromResult(r *commit.Result) CommitResponse {
	return CommitResponse{TaskCount: r.TaskCount, TaskIDs: r.TaskIDs}
}

// Task DTOs

// TaskResponse — задача с вычисленной позицией.
type TaskResponse struct {
	LocalID  string          `json:"local_id"`
	Type     domain.TaskType `json:"type"`
	Name     string          `json:"name"`
	Position int             `json:"position"`
	Config   any             `json:"config"`
}

// TaskFromDomain конвертирует domain.Task в TaskResponse.
func TaskFromDomain(t domain.Task, position int) TaskResponse {
	return TaskResponse{
		LocalID:  t.LocalID,
		Type:     t.Type,
		Name:     t.Name,
		Position: position,
		Config:   t.Config(),
	}
}

// TasksFromDomain конвертирует список задач, проставляя позиции.
func TasksFromDomain(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = TaskFromDomain(t, i)
	}
	return out
}

// AddTaskRequest — запрос на добавление задачи в конец списка.
type AddTaskRequest struct {
	Type   domain.TaskType `json:"type"`
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
}

// DecodeConfig разбирает config согласно типу задачи.
func (r AddTaskRequest) DecodeConfig() (domain.Config, error) {
	var cfg domain.Config
	switch r.Type {
	case domain.TaskTypeAPI:
		cfg = &domain.APIConfig{}
	case domain.TaskTypeEmail:
		cfg = &domain.EmailConfig{}
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownType, r.Type)
	}
	if len(r.Config) > 0 && string(r.Config) != "null" {
		if err := json.Unmarshal(r.Config, cfg); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

// UpdateTaskRequest — запрос на изменение задачи. Отсутствующие поля не меняются.
type UpdateTaskRequest struct {
	Name   *string         `json:"name,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Patches разбирает запрос в патчи хранилища. config читается по типу задачи.
func (r UpdateTaskRequest) Patches(taskType domain.TaskType) (store.FieldsPatch, store.ConfigPatch, error) {
	fields := store.FieldsPatch{Name: r.Name}
	if len(r.Config) == 0 || string(r.Config) == "null" {
		return fields, nil, nil
	}

	switch taskType {
	case domain.TaskTypeAPI:
		var p store.APIPatch
		if err := json.Unmarshal(r.Config, &p); err != nil {
			return fields, nil, fmt.Errorf("invalid config: %w", err)
		}
		return fields, p, nil
	case domain.TaskTypeEmail:
		var p store.EmailPatch
		if err := json.Unmarshal(r.Config, &p); err != nil {
			return fields, nil, fmt.Errorf("invalid config: %w", err)
		}
		return fields, p, nil
	default:
		return fields, nil, fmt.Errorf("%w: %q", store.ErrUnknownType, taskType)
	}
}

// MoveRequest — запрос на сдвиг задачи.
type MoveRequest struct {
	Direction string `json:"direction"`
}

// ParseDirection возвращает направление сдвига.
func (r MoveRequest) ParseDirection() (store.Direction, error) {
	switch r.Direction {
	case "up":
		return store.Up, nil
	case "down":
		return store.Down, nil
	default:
		return 0, fmt.Errorf("%w: %q", store.ErrInvalidDirection, r.Direction)
	}
}

// InsertReferenceRequest — запрос на вставку ссылки в тело email.
type InsertReferenceRequest struct {
	Position *int `json:"position"`
}

// ReferencesResponse — ссылки email задачи.
type ReferencesResponse struct {
	Eligible   any `json:"eligible"`
	Referenced any `json:"referenced"`
}
