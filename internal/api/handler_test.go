package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/taskflow/internal/backend"
	"github.com/shaiso/taskflow/internal/commit"
	"github.com/shaiso/taskflow/internal/domain"
	"github.com/shaiso/taskflow/internal/draft"
	"github.com/shaiso/taskflow/internal/editor"
	"github.com/shaiso/taskflow/internal/session"
	"github.com/shaiso/taskflow/internal/store"
	"github.com/shaiso/taskflow/internal/telemetry"
)

// ---- fakes ----

type fakeBackend struct {
	mu        sync.Mutex
	getErr    error
	bulkErr   error
	requests  []backend.TaskRequest
	createdBy int64
}

func (f *fakeBackend) GetWorkflow(_ context.Context, id int64) (*domain.Workflow, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.Workflow{ID: id, Name: fmt.Sprintf("wf-%d", id)}, nil
}

func (f *fakeBackend) AddTasksBulk(_ context.Context, reqs []backend.TaskRequest) (*backend.BulkResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	f.requests = reqs
	ids := make([]int64, len(reqs))
	for i := range reqs {
		ids[i] = int64(100 + i)
	}
	return &backend.BulkResult{IDs: ids}, nil
}

func (f *fakeBackend) ListWorkflows(context.Context) ([]domain.Workflow, error) {
	return []domain.Workflow{{ID: 1, Name: "wf-1"}}, nil
}

func (f *fakeBackend) CreateWorkflow(_ context.Context, name, description string, createdBy int64) (*domain.Workflow, error) {
	f.createdBy = createdBy
	return &domain.Workflow{ID: 9, Name: name, Description: description}, nil
}

func (f *fakeBackend) Me(context.Context) (*domain.User, error) {
	return &domain.User{ID: 7, Name: "Ann", Email: "ann@example.com"}, nil
}

type testServer struct {
	mux     *http.ServeMux
	backend *fakeBackend
	session *session.Session
	metrics *telemetry.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fb := &fakeBackend{}
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	sess := session.New()

	n := 0
	manager := editor.NewManager(editor.Deps{
		Workflows: fb,
		Drafts:    draft.NewPersistence(draft.NewMemoryStore(), logger),
		Committer: commit.New(commit.Config{Client: fb, Metrics: metrics, Logger: logger}),
		Metrics:   metrics,
		Logger:    logger,
		NewID: func() string {
			n++
			return fmt.Sprintf("t%d", n)
		},
	})

	h := NewHandler(Config{
		Editors: manager,
		Backend: fb,
		Session: sess,
		Metrics: metrics,
		Logger:  logger,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &testServer{mux: mux, backend: fb, session: sess, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    ErrorCode       `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func apiTask(name string) map[string]any {
	return map[string]any{
		"type": "api",
		"name": name,
		"config": map[string]any{
			"url":          "https://api.example.com/u",
			"method":       "GET",
			"outputSchema": `{"id":1}`,
		},
	}
}

func emailTask(body string) map[string]any {
	return map[string]any{
		"type": "email",
		"name": "Notify",
		"config": map[string]any{
			"recipientList": "a@b",
			"subject":       "hi",
			"body":          body,
		},
	}
}

// ---- Session ----

func TestSession_SetGetClear(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/session/user", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/v1/session/user", SetUserRequest{ID: 3, Name: "Bob"})
	require.Equal(t, http.StatusOK, rec.Code)

	u, ok := s.session.User()
	require.True(t, ok)
	assert.Equal(t, int64(3), u.ID)

	rec = s.do(t, http.MethodDelete, "/api/v1/session/user", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok = s.session.User()
	assert.False(t, ok)
}

func TestSession_Sync(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/session/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	u, ok := s.session.User()
	require.True(t, ok)
	assert.Equal(t, int64(7), u.ID)
}

// ---- Workflows ----

func TestCreateWorkflow_UsesSessionUser(t *testing.T) {
	s := newTestServer(t)
	s.session.SetUser(domain.User{ID: 42})

	rec := s.do(t, http.MethodPost, "/api/v1/workflows", CreateWorkflowRequest{Name: "Onboarding"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(42), s.backend.createdBy)

	rec = s.do(t, http.MethodPost, "/api/v1/workflows", CreateWorkflowRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenWorkflow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/workflows/5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var wf WorkflowResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &wf))
	assert.Equal(t, int64(5), wf.Workflow.ID)
	assert.Equal(t, domain.EditorStateEditing, wf.State)
	assert.Empty(t, wf.Tasks)

	rec = s.do(t, http.MethodGet, "/api/v1/workflows/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenWorkflow_BackendErrors(t *testing.T) {
	s := newTestServer(t)

	s.backend.getErr = backend.ErrWorkflowNotFound
	rec := s.do(t, http.MethodGet, "/api/v1/workflows/5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.backend.getErr = errors.New("connection refused")
	rec = s.do(t, http.MethodGet, "/api/v1/workflows/6", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ErrCodeBackendUnavailable, decode(t, rec).Error.Code)
}

// ---- Tasks ----

func TestAddTask_InvalidCandidate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/workflows/1/tasks", map[string]any{
		"type":   "api",
		"config": map[string]any{"method": "POST"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env := decode(t, rec)
	assert.Equal(t, ErrCodeInvalidTask, env.Error.Code)
	assert.Contains(t, string(env.Error.Details), "url")
	assert.Contains(t, string(env.Error.Details), "requestBody")

	rec = s.do(t, http.MethodPost, "/api/v1/workflows/1/tasks", map[string]any{"type": "sms"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/workflows/1/tasks", apiTask("Fetch user"))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/workflows/1/tasks", emailTask("Hello"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var mail TaskResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &mail))
	assert.Equal(t, 1, mail.Position)

	// ссылка на API задачу
	rec = s.do(t, http.MethodPost, "/api/v1/workflows/1/tasks/"+mail.LocalID+"/references", map[string]any{"position": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "{{0.output}}")

	// на саму себя ссылаться нельзя
	rec = s.do(t, http.MethodPost, "/api/v1/workflows/1/tasks/"+mail.LocalID+"/references", map[string]any{"position": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, ErrCodeInvalidReference, decode(t, rec).Error.Code)

	// переименование
	rec = s.do(t, http.MethodPatch, "/api/v1/workflows/1/tasks/"+mail.LocalID, map[string]any{
		"name":   "Welcome",
		"config": map[string]any{"subject": "Welcome!"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated TaskResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assert.Equal(t, "Welcome", updated.Name)

	// сдвиг вверх
	rec = s.do(t, http.MethodPost, "/api/v1/workflows/1/tasks/"+mail.LocalID+"/move", MoveRequest{Direction: "up"})
	require.Equal(t, http.StatusOK, rec.Code)
	var wf WorkflowResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &wf))
	require.Len(t, wf.Tasks, 2)
	assert.Equal(t, mail.LocalID, wf.Tasks[0].LocalID)

	rec = s.do(t, http.MethodPost, "/api/v1/workflows/1/tasks/"+mail.LocalID+"/move", MoveRequest{Direction: "left"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// email теперь выше API задачи: ссылка висит
	rec = s.do(t, http.MethodGet, "/api/v1/workflows/1/validation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report editor.Report
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &report))
	assert.False(t, report.Valid)
	assert.Equal(t, mail.LocalID, report.FirstOffending)

	rec = s.do(t, http.MethodDelete, "/api/v1/workflows/1/tasks/"+mail.LocalID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/workflows/1/tasks/"+mail.LocalID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- Commit ----

func TestCommit_SuccessThenReadOnly(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/workflows/2/tasks", apiTask("a")).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/workflows/2/tasks", emailTask("{{0.output}}")).Code)

	rec := s.do(t, http.MethodPost, "/api/v1/workflows/2/commit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res CommitResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, 2, res.TaskCount)
	require.Len(t, s.backend.requests, 2)
	assert.Equal(t, 1, s.backend.requests[1].Order)

	rec = s.do(t, http.MethodPost, "/api/v1/workflows/2/tasks", apiTask("b"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeReadOnly, decode(t, rec).Error.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/workflows/2/reopen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/workflows/2/tasks", apiTask("b"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCommit_InvalidList(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/workflows/3/tasks", emailTask("{{0.output}}")).Code)

	rec := s.do(t, http.MethodPost, "/api/v1/workflows/3/commit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env := decode(t, rec)
	assert.Equal(t, ErrCodeInvalidTask, env.Error.Code)
	assert.Contains(t, string(env.Error.Details), "first_offending")
	assert.Nil(t, s.backend.requests)
}

func TestCommit_BackendFailure(t *testing.T) {
	s := newTestServer(t)
	s.backend.bulkErr = &backend.APIError{StatusCode: http.StatusInternalServerError}

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/workflows/4/tasks", apiTask("a")).Code)

	rec := s.do(t, http.MethodPost, "/api/v1/workflows/4/commit", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ErrCodeCommitFailed, decode(t, rec).Error.Code)

	// список не тронут, редактирование продолжается
	rec = s.do(t, http.MethodGet, "/api/v1/workflows/4/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []TaskResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tasks))
	assert.Len(t, tasks, 1)
}

func TestHandleError_EditDuringCommitIsConflict(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	require.True(t, HandleError(rec, logger, fmt.Errorf("rename: %w", store.ErrCommitting)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeConflict, decode(t, rec).Error.Code)
}

// ---- Middleware ----

func TestMetricsMiddleware_CapturesStatus(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/api/v1/session/user", nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.HTTPRequests.WithLabelValues(http.MethodGet, "404")))
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
