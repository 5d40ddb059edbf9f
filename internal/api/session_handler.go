package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shaiso/taskflow/internal/domain"
)

// GetUser возвращает пользователя сессии.
// GET /api/v1/session/user
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.session.User()
	if !ok {
		NotFound(w, "no user in session")
		return
	}
	Success(w, u)
}

// SetUser устанавливает пользователя сессии.
// PUT /api/v1/session/user
func (h *Handler) SetUser(w http.ResponseWriter, r *http.Request) {
	var req SetUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.ID <= 0 {
		BadRequest(w, "id is required")
		return
	}

	u := domain.User{ID: req.ID, Name: strings.TrimSpace(req.Name), Email: strings.TrimSpace(req.Email)}
	h.session.SetUser(u)
	h.logger.Info("session user set", "user_id", u.ID)

	Success(w, u)
}

// ClearUser забывает пользователя сессии.
// DELETE /api/v1/session/user
func (h *Handler) ClearUser(w http.ResponseWriter, r *http.Request) {
	h.session.ClearUser()
	NoContent(w)
}

// SyncUser читает текущего пользователя из backend и кладёт его в сессию.
// POST /api/v1/session/sync
func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.backend.Me(r.Context())
	if err != nil {
		h.logger.Warn("failed to sync session user", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeBackendUnavailable, err.Error())
		return
	}

	h.session.SetUser(*u)
	Success(w, u)
}
