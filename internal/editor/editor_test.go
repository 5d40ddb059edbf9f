package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/taskflow/internal/backend"
	"github.com/shaiso/taskflow/internal/commit"
	"github.com/shaiso/taskflow/internal/domain"
	"github.com/shaiso/taskflow/internal/draft"
	"github.com/shaiso/taskflow/internal/engine"
	"github.com/shaiso/taskflow/internal/store"
)

// ---- fakes ----

type fakeWorkflows struct {
	err   error
	calls int
}

func (f *fakeWorkflows) GetWorkflow(_ context.Context, id int64) (*domain.Workflow, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Workflow{ID: id, Name: fmt.Sprintf("wf-%d", id)}, nil
}

type fakeCreator struct {
	err   error
	calls int
}

func (f *fakeCreator) AddTasksBulk(context.Context, []backend.TaskRequest) (*backend.BulkResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &backend.BulkResult{}, nil
}

type env struct {
	deps    Deps
	drafts  *draft.MemoryStore
	creator *fakeCreator
	wfs     *fakeWorkflows
}

func newEnv() *env {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	drafts := draft.NewMemoryStore()
	creator := &fakeCreator{}
	wfs := &fakeWorkflows{}

	n := 0
	return &env{
		deps: Deps{
			Workflows: wfs,
			Drafts:    draft.NewPersistence(drafts, logger),
			Committer: commit.New(commit.Config{Client: creator, Logger: logger}),
			Logger:    logger,
			NewID: func() string {
				n++
				return fmt.Sprintf("t%d", n)
			},
		},
		drafts:  drafts,
		creator: creator,
		wfs:     wfs,
	}
}

func fetchUser() *domain.APIConfig {
	return &domain.APIConfig{
		URL:          "https://api.example.com/u",
		Method:       domain.MethodGet,
		OutputSchema: `{"id":1}`,
	}
}

// ---- Open ----

func TestOpen_WorkflowUnavailable(t *testing.T) {
	e := newEnv()
	e.wfs.err = backend.ErrWorkflowNotFound

	ed, err := Open(context.Background(), e.deps, 5)
	assert.Nil(t, ed)
	assert.ErrorIs(t, err, ErrWorkflowUnavailable)
	assert.ErrorIs(t, err, backend.ErrWorkflowNotFound)
}

func TestOpen_RestoresDraft(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	first, err := Open(ctx, e.deps, 3)
	require.NoError(t, err)
	_, err = first.Add(domain.TaskTypeAPI, "Fetch user", fetchUser())
	require.NoError(t, err)
	_, err = first.Add(domain.TaskTypeEmail, "Notify", &domain.EmailConfig{RecipientList: "a@b", Subject: "s", Body: "b"})
	require.NoError(t, err)

	second, err := Open(ctx, e.deps, 3)
	require.NoError(t, err)
	assert.Equal(t, first.Tasks(), second.Tasks())
	assert.Equal(t, "wf-3", second.Workflow().Name)
}

func TestOpen_BrokenDraftStartsEmpty(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.drafts.Save(context.Background(), draft.Key(4), []byte("{oops")))

	ed, err := Open(context.Background(), e.deps, 4)
	require.NoError(t, err)
	assert.Empty(t, ed.Tasks())
	assert.Equal(t, domain.EditorStateEditing, ed.State())
}

// ---- Operations ----

func TestAdd_ValidatesCandidate(t *testing.T) {
	e := newEnv()
	ed, err := Open(context.Background(), e.deps, 1)
	require.NoError(t, err)

	_, err = ed.Add(domain.TaskTypeAPI, "", &domain.APIConfig{Method: domain.MethodPost})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidTask)

	var vErr *engine.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "url")
	assert.Contains(t, vErr.Fields, "requestBody")
	assert.Empty(t, ed.Tasks())

	task, err := ed.Add(domain.TaskTypeAPI, "", fetchUser())
	require.NoError(t, err)
	assert.Equal(t, "API call task", task.Name)
}

func TestScenario_InsertReference(t *testing.T) {
	e := newEnv()
	ed, err := Open(context.Background(), e.deps, 1)
	require.NoError(t, err)

	api, err := ed.Add(domain.TaskTypeAPI, "Fetch user", fetchUser())
	require.NoError(t, err)
	mail, err := ed.Add(domain.TaskTypeEmail, "Notify", &domain.EmailConfig{RecipientList: "a@b", Subject: "s", Body: "Hello"})
	require.NoError(t, err)

	refs, err := ed.EligibleReferences(mail.LocalID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, api.LocalID, refs[0].LocalID)

	require.NoError(t, ed.InsertReference(mail.LocalID, 0))

	got, _, err := ed.Task(mail.LocalID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(got.Email.Body, "{{0.output}}"))

	linked, err := ed.ReferencedTasks(mail.LocalID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, api.LocalID, linked[0].LocalID)

	// api задачи не принимают ссылки
	assert.ErrorIs(t, ed.InsertReference(api.LocalID, 0), engine.ErrNotEmailTask)
}

func TestAdd_APIWithoutMethodDefaultsToGet(t *testing.T) {
	e := newEnv()
	ed, err := Open(context.Background(), e.deps, 1)
	require.NoError(t, err)

	task, err := ed.Add(domain.TaskTypeAPI, "Fetch", &domain.APIConfig{
		URL:          "https://api.example.com/u",
		OutputSchema: `{"id":1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MethodGet, task.API.Method)
	assert.Len(t, ed.Tasks(), 1)
}

func TestUpdate_MismatchIsAllOrNothing(t *testing.T) {
	e := newEnv()
	ed, err := Open(context.Background(), e.deps, 4)
	require.NoError(t, err)

	task, err := ed.Add(domain.TaskTypeAPI, "Fetch", fetchUser())
	require.NoError(t, err)

	name := "changed"
	subject := "s"
	err = ed.Update(task.LocalID, store.FieldsPatch{Name: &name}, store.EmailPatch{Subject: &subject})
	assert.ErrorIs(t, err, store.ErrConfigMismatch)

	got, _, err := ed.Task(task.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "Fetch", got.Name)

	restored := e.deps.Drafts.Load(context.Background(), 4)
	require.Len(t, restored, 1)
	assert.Equal(t, "Fetch", restored[0].Name)
}

func TestUpdate_PostRequiresBody(t *testing.T) {
	e := newEnv()
	ed, err := Open(context.Background(), e.deps, 1)
	require.NoError(t, err)

	task, err := ed.Add(domain.TaskTypeAPI, "call", fetchUser())
	require.NoError(t, err)

	post := domain.MethodPost
	require.NoError(t, ed.Update(task.LocalID, store.FieldsPatch{}, store.APIPatch{Method: &post}))

	report := ed.Validate()
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"requestBody"}, report.Violations[task.LocalID])
	assert.Equal(t, task.LocalID, report.FirstOffending)

	get := domain.MethodGet
	require.NoError(t, ed.Update(task.LocalID, store.FieldsPatch{}, store.APIPatch{Method: &get}))
	assert.True(t, ed.Validate().Valid)
}

func TestUnknownTask(t *testing.T) {
	e := newEnv()
	ed, err := Open(context.Background(), e.deps, 1)
	require.NoError(t, err)

	name := "x"
	assert.ErrorIs(t, ed.Remove("nope"), ErrTaskNotFound)
	assert.ErrorIs(t, ed.Move("nope", store.Up), ErrTaskNotFound)
	assert.ErrorIs(t, ed.Update("nope", store.FieldsPatch{Name: &name}, nil), ErrTaskNotFound)
	assert.ErrorIs(t, ed.InsertReference("nope", 0), ErrTaskNotFound)
	_, err = ed.EligibleReferences("nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// ---- Commit ----

func TestCommit_SavedUntilReopen(t *testing.T) {
	e := newEnv()
	ed, err := Open(context.Background(), e.deps, 1)
	require.NoError(t, err)

	_, err = ed.Add(domain.TaskTypeAPI, "Fetch user", fetchUser())
	require.NoError(t, err)
	mail, err := ed.Add(domain.TaskTypeEmail, "Notify", &domain.EmailConfig{RecipientList: "a@b", Subject: "s", Body: "{{0.output}}"})
	require.NoError(t, err)

	res, err := ed.Commit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TaskCount)
	assert.Equal(t, domain.EditorStateSaved, ed.State())

	_, err = ed.Add(domain.TaskTypeAPI, "more", fetchUser())
	assert.ErrorIs(t, err, store.ErrReadOnly)
	assert.ErrorIs(t, ed.Move(mail.LocalID, store.Up), store.ErrReadOnly)
	assert.ErrorIs(t, ed.Remove(mail.LocalID), store.ErrReadOnly)

	ed.Reopen()
	assert.Equal(t, domain.EditorStateEditing, ed.State())
	assert.NoError(t, ed.Remove(mail.LocalID))
}

func TestCommit_FailureKeepsDraft(t *testing.T) {
	e := newEnv()
	e.creator.err = &backend.APIError{StatusCode: 502}

	ed, err := Open(context.Background(), e.deps, 8)
	require.NoError(t, err)
	_, err = ed.Add(domain.TaskTypeAPI, "Fetch user", fetchUser())
	require.NoError(t, err)

	before := ed.Tasks()
	_, err = ed.Commit(context.Background(), nil)
	assert.ErrorIs(t, err, commit.ErrCommitFailed)
	assert.Equal(t, before, ed.Tasks())
	assert.Equal(t, domain.EditorStateEditing, ed.State())

	restored := e.deps.Drafts.Load(context.Background(), 8)
	assert.Equal(t, before, restored)
}

// ---- Manager ----

func TestManager(t *testing.T) {
	e := newEnv()
	m := NewManager(e.deps)
	ctx := context.Background()

	_, err := m.Get(1)
	assert.ErrorIs(t, err, ErrNotOpen)

	a, err := m.Open(ctx, 1)
	require.NoError(t, err)
	b, err := m.Open(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, e.wfs.calls)
	assert.Equal(t, 1, m.OpenCount())

	assert.True(t, m.Close(1))
	assert.False(t, m.Close(1))
	_, err = m.Get(1)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestManager_OpenFailureIsNotCached(t *testing.T) {
	e := newEnv()
	e.wfs.err = errors.New("network down")
	m := NewManager(e.deps)

	_, err := m.Open(context.Background(), 2)
	assert.ErrorIs(t, err, ErrWorkflowUnavailable)
	assert.Equal(t, 0, m.OpenCount())
}
