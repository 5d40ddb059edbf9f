package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/taskflow/internal/editor"
)

// ListTasks возвращает список задач с позициями.
// GET /api/v1/workflows/{id}/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	tasks := TasksFromDomain(e.Tasks())
	List(w, tasks, len(tasks))
}

// AddTask добавляет задачу в конец списка.
// POST /api/v1/workflows/{id}/tasks
func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}

	var req AddTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	cfg, err := req.DecodeConfig()
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	task, err := e.Add(req.Type, req.Name, cfg)
	if HandleError(w, h.logger, err) {
		return
	}

	_, pos, _ := e.Task(task.LocalID)
	Created(w, TaskFromDomain(task, pos))
}

// UpdateTask меняет имя и конфигурацию задачи.
// PATCH /api/v1/workflows/{id}/tasks/{localId}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	localID := r.PathValue("localId")

	task, _, err := e.Task(localID)
	if HandleError(w, h.logger, err) {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	fields, cfg, err := req.Patches(task.Type)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	if HandleError(w, h.logger, e.Update(localID, fields, cfg)) {
		return
	}
	h.writeTask(w, e, localID)
}

// RemoveTask удаляет задачу.
// DELETE /api/v1/workflows/{id}/tasks/{localId}
func (h *Handler) RemoveTask(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	if HandleError(w, h.logger, e.Remove(r.PathValue("localId"))) {
		return
	}
	NoContent(w)
}

// MoveTask сдвигает задачу на одну позицию вверх или вниз.
// POST /api/v1/workflows/{id}/tasks/{localId}/move
func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	localID := r.PathValue("localId")

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	dir, err := req.ParseDirection()
	if HandleError(w, h.logger, err) {
		return
	}

	if HandleError(w, h.logger, e.Move(localID, dir)) {
		return
	}
	Success(w, WorkflowFromEditor(e))
}

// ListReferences возвращает допустимые и уже вставленные ссылки email задачи.
// GET /api/v1/workflows/{id}/tasks/{localId}/references
func (h *Handler) ListReferences(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	localID := r.PathValue("localId")

	eligible, err := e.EligibleReferences(localID)
	if HandleError(w, h.logger, err) {
		return
	}
	referenced, err := e.ReferencedTasks(localID)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, ReferencesResponse{Eligible: eligible, Referenced: referenced})
}

// InsertReference дописывает в тело email ссылку на вывод API задачи.
// POST /api/v1/workflows/{id}/tasks/{localId}/references
func (h *Handler) InsertReference(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	localID := r.PathValue("localId")

	var req InsertReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Position == nil {
		BadRequest(w, "position is required")
		return
	}

	if HandleError(w, h.logger, e.InsertReference(localID, *req.Position)) {
		return
	}
	h.writeTask(w, e, localID)
}

func (h *Handler) writeTask(w http.ResponseWriter, e *editor.Editor, localID string) {
	task, pos, err := e.Task(localID)
	if HandleError(w, h.logger, err) {
		return
	}
	Success(w, TaskFromDomain(task, pos))
}
