package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shaiso/taskflow/internal/commit"
	"github.com/shaiso/taskflow/internal/domain"
	"github.com/shaiso/taskflow/internal/editor"
	"github.com/shaiso/taskflow/internal/session"
)

// ListWorkflows возвращает workflows текущего пользователя из backend.
// GET /api/v1/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.backend.ListWorkflows(r.Context())
	if err != nil {
		h.logger.Warn("failed to list workflows", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeBackendUnavailable, err.Error())
		return
	}
	if workflows == nil {
		workflows = []domain.Workflow{}
	}
	List(w, workflows, len(workflows))
}

// CreateWorkflow создаёт workflow в backend.
// POST /api/v1/workflows
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		BadRequest(w, "name is required")
		return
	}

	var createdBy int64
	if u, ok := session.FromContext(r.Context()).User(); ok {
		createdBy = u.ID
	}

	wf, err := h.backend.CreateWorkflow(r.Context(), req.Name, req.Description, createdBy)
	if err != nil {
		h.logger.Warn("failed to create workflow", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeBackendUnavailable, err.Error())
		return
	}

	Created(w, wf)
}

// OpenWorkflow открывает workflow в редакторе и возвращает его со списком задач.
// GET /api/v1/workflows/{id}
func (h *Handler) OpenWorkflow(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	Success(w, WorkflowFromEditor(e))
}

// CloseWorkflow закрывает редактор. Черновик остаётся.
// DELETE /api/v1/workflows/{id}
func (h *Handler) CloseWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWorkflowID(w, r)
	if !ok {
		return
	}
	if !h.editors.Close(id) {
		NotFound(w, "workflow is not open")
		return
	}
	NoContent(w)
}

// ValidateWorkflow проверяет весь список задач.
// GET /api/v1/workflows/{id}/validation
func (h *Handler) ValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	Success(w, e.Validate())
}

// CommitWorkflow валидирует список и отправляет его в backend.
// POST /api/v1/workflows/{id}/commit
func (h *Handler) CommitWorkflow(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}

	res, err := e.Commit(r.Context(), session.FromContext(r.Context()))
	if errors.Is(err, commit.ErrInvalidTasks) {
		var details any
		if res != nil {
			details = res
		}
		ErrorWithDetails(w, http.StatusUnprocessableEntity, ErrCodeInvalidTask, err.Error(), details)
		return
	}
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, CommitFromResult(res))
}

// ReopenWorkflow снова разрешает редактирование после коммита.
// POST /api/v1/workflows/{id}/reopen
func (h *Handler) ReopenWorkflow(w http.ResponseWriter, r *http.Request) {
	e, ok := h.openEditor(w, r)
	if !ok {
		return
	}
	e.Reopen()
	Success(w, WorkflowFromEditor(e))
}

// ---- helpers ----

func parseWorkflowID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(w, "invalid workflow id")
		return 0, false
	}
	return id, true
}

// openEditor возвращает редактор workflow из пути, открывая его при необходимости.
func (h *Handler) openEditor(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	id, ok := parseWorkflowID(w, r)
	if !ok {
		return nil, false
	}
	e, err := h.editors.Open(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return nil, false
	}
	return e, true
}
