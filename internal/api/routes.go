package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(h.metrics),
		WithSession(h.session),
	)

	// Session
	mux.Handle("GET /api/v1/session/user", chain(http.HandlerFunc(h.GetUser)))
	mux.Handle("PUT /api/v1/session/user", chain(http.HandlerFunc(h.SetUser)))
	mux.Handle("DELETE /api/v1/session/user", chain(http.HandlerFunc(h.ClearUser)))
	mux.Handle("POST /api/v1/session/sync", chain(http.HandlerFunc(h.SyncUser)))

	// Workflows
	mux.Handle("GET /api/v1/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("POST /api/v1/workflows", chain(http.HandlerFunc(h.CreateWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.OpenWorkflow)))
	mux.Handle("DELETE /api/v1/workflows/{id}", chain(http.HandlerFunc(h.CloseWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}/validation", chain(http.HandlerFunc(h.ValidateWorkflow)))
	mux.Handle("POST /api/v1/workflows/{id}/commit", chain(http.HandlerFunc(h.CommitWorkflow)))
	mux.Handle("POST /api/v1/workflows/{id}/reopen", chain(http.HandlerFunc(h.ReopenWorkflow)))

	// Tasks
	mux.Handle("GET /api/v1/workflows/{id}/tasks", chain(http.HandlerFunc(h.ListTasks)))
	mux.Handle("POST /api/v1/workflows/{id}/tasks", chain(http.HandlerFunc(h.AddTask)))
	mux.Handle("PATCH /api/v1/workflows/{id}/tasks/{localId}", chain(http.HandlerFunc(h.UpdateTask)))
	mux.Handle("DELETE /api/v1/workflows/{id}/tasks/{localId}", chain(http.HandlerFunc(h.RemoveTask)))
	mux.Handle("POST /api/v1/workflows/{id}/tasks/{localId}/move", chain(http.HandlerFunc(h.MoveTask)))
	mux.Handle("GET /api/v1/workflows/{id}/tasks/{localId}/references", chain(http.HandlerFunc(h.ListReferences)))
	mux.Handle("POST /api/v1/workflows/{id}/tasks/{localId}/references", chain(http.HandlerFunc(h.InsertReference)))
}
