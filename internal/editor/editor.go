package editor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/taskflow/internal/commit"
	"github.com/shaiso/taskflow/internal/domain"
	"github.com/shaiso/taskflow/internal/draft"
	"github.com/shaiso/taskflow/internal/engine"
	"github.com/shaiso/taskflow/internal/session"
	"github.com/shaiso/taskflow/internal/store"
	"github.com/shaiso/taskflow/internal/telemetry"
)

const draftSaveTimeout = 5 * time.Second

// WorkflowSource — чтение метаданных workflow. Реализуется *backend.Client.
type WorkflowSource interface {
	GetWorkflow(ctx context.Context, id int64) (*domain.Workflow, error)
}

// Deps — зависимости редактора.
type Deps struct {
	Workflows WorkflowSource
	Drafts    *draft.Persistence
	Committer *commit.Committer
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger

	// NewID — генератор localId (по умолчанию uuid).
	NewID func() string
}

// Editor — сессия редактирования списка задач одного workflow.
type Editor struct {
	workflow  domain.Workflow
	store     *store.Store
	drafts    *draft.Persistence
	committer *commit.Committer
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// Report — результат валидации всего списка.
type Report struct {
	Valid                  bool              `json:"valid"`
	Violations             engine.Violations `json:"violations"`
	FirstOffending         string            `json:"first_offending,omitempty"`
	FirstOffendingPosition int               `json:"first_offending_position"`
}

// Open открывает редактор для workflow.
//
// Ошибка чтения метаданных возвращается как ErrWorkflowUnavailable,
// редактор при этом не создаётся. Черновик восстанавливается молча:
// отсутствующий или битый черновик даёт пустой список.
func Open(ctx context.Context, deps Deps, workflowID int64) (*Editor, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = telemetry.WithWorkflowID(logger, workflowID)

	wf, err := deps.Workflows.GetWorkflow(ctx, workflowID)
	if err != nil {
		logger.Warn("failed to load workflow", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrWorkflowUnavailable, err)
	}

	e := &Editor{
		workflow:  *wf,
		drafts:    deps.Drafts,
		committer: deps.Committer,
		metrics:   deps.Metrics,
		logger:    logger,
	}

	var tasks []domain.Task
	if deps.Drafts != nil {
		tasks = deps.Drafts.Load(ctx, workflowID)
	}

	opts := []store.Option{
		store.WithTasks(tasks),
		store.WithOnChange(e.saveDraft),
	}
	if deps.NewID != nil {
		opts = append(opts, store.WithIDGenerator(deps.NewID))
	}
	e.store = store.New(opts...)

	logger.Info("workflow opened", "tasks", len(tasks))
	return e, nil
}

// saveDraft сохраняет снимок списка. Ошибки только логируются.
func (e *Editor) saveDraft(tasks []domain.Task) {
	if e.drafts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), draftSaveTimeout)
	defer cancel()

	err := e.drafts.Save(ctx, e.workflow.ID, tasks)
	e.metrics.ObserveDraftSave(err)
	if err != nil {
		e.logger.Warn("failed to save draft", "error", err)
	}
}

// ---- Чтение ----

// Workflow возвращает метаданные workflow.
func (e *Editor) Workflow() domain.Workflow {
	return e.workflow
}

// Tasks возвращает копию списка задач.
func (e *Editor) Tasks() []domain.Task {
	return e.store.Tasks()
}

// Task возвращает задачу и её позицию.
func (e *Editor) Task(localID string) (domain.Task, int, error) {
	task, pos, ok := e.store.Get(localID)
	if !ok {
		return domain.Task{}, -1, ErrTaskNotFound
	}
	return task, pos, nil
}

// State возвращает состояние списка.
func (e *Editor) State() domain.EditorState {
	switch {
	case e.store.Committing(), e.committer != nil && e.committer.InProgress(e.workflow.ID):
		return domain.EditorStateCommitting
	case e.store.Saved():
		return domain.EditorStateSaved
	default:
		return domain.EditorStateEditing
	}
}

// ---- Изменения ----

// Add проверяет кандидата и добавляет его в конец списка.
//
// Проверяется конфигурация с уже наложенными значениями по умолчанию.
// Невалидный кандидат возвращает *engine.ValidationError с именами полей.
func (e *Editor) Add(taskType domain.TaskType, name string, cfg domain.Config) (domain.Task, error) {
	full, err := store.DefaultConfig(taskType, cfg)
	if err != nil {
		return domain.Task{}, engine.NewValidationError("", []string{engine.FieldType})
	}
	if fields := engine.ValidateCandidate(taskType, full); len(fields) > 0 {
		return domain.Task{}, engine.NewValidationError("", fields)
	}

	task, err := e.store.Append(taskType, name, full)
	if err != nil {
		return domain.Task{}, err
	}
	telemetry.WithTaskID(e.logger, task.LocalID).Debug("task added", "type", task.Type)
	return task, nil
}

// Remove удаляет задачу.
func (e *Editor) Remove(localID string) error {
	if _, _, ok := e.store.Get(localID); !ok {
		return ErrTaskNotFound
	}
	return e.store.Remove(localID)
}

// Move сдвигает задачу на одну позицию.
func (e *Editor) Move(localID string, dir store.Direction) error {
	if _, _, ok := e.store.Get(localID); !ok {
		return ErrTaskNotFound
	}
	return e.store.Move(localID, dir)
}

// Update применяет изменения общих полей и конфигурации задачи
// одним изменением: либо всё, либо ничего. cfg может быть nil.
func (e *Editor) Update(localID string, fields store.FieldsPatch, cfg store.ConfigPatch) error {
	if _, _, ok := e.store.Get(localID); !ok {
		return ErrTaskNotFound
	}
	return e.store.Update(localID, fields, cfg)
}

// ---- Ссылки ----

// EligibleReferences возвращает API задачи, на которые может ссылаться email задача.
func (e *Editor) EligibleReferences(localID string) ([]engine.Reference, error) {
	tasks := e.store.Tasks()
	pos := indexOf(tasks, localID)
	if pos < 0 {
		return nil, ErrTaskNotFound
	}
	refs := engine.EligibleReferences(tasks, pos)
	if refs == nil {
		refs = []engine.Reference{}
	}
	return refs, nil
}

// ReferencedTasks возвращает задачи, на которые уже ссылается тело email.
func (e *Editor) ReferencedTasks(localID string) ([]engine.Reference, error) {
	tasks := e.store.Tasks()
	pos := indexOf(tasks, localID)
	if pos < 0 {
		return nil, ErrTaskNotFound
	}
	refs := engine.ReferencedTasks(tasks, pos)
	if refs == nil {
		refs = []engine.Reference{}
	}
	return refs, nil
}

// InsertReference дописывает в тело email ссылку на задачу с позицией refPosition.
func (e *Editor) InsertReference(localID string, refPosition int) error {
	if _, _, ok := e.store.Get(localID); !ok {
		return ErrTaskNotFound
	}
	return e.store.InsertReference(localID, refPosition)
}

// ---- Валидация и коммит ----

// Validate проверяет весь список.
func (e *Editor) Validate() Report {
	tasks := e.store.Tasks()
	violations := engine.ValidateAll(tasks)

	report := Report{
		Valid:                  violations.Valid(),
		Violations:             violations,
		FirstOffendingPosition: -1,
	}
	if id, pos, ok := violations.FirstOffending(tasks); ok {
		report.FirstOffending = id
		report.FirstOffendingPosition = pos
	}
	return report
}

// Commit отправляет список в backend.
func (e *Editor) Commit(ctx context.Context, sess *session.Session) (*commit.Result, error) {
	return e.committer.Commit(ctx, sess, e.workflow.ID, e.store)
}

// Reopen снова разрешает редактирование после коммита.
func (e *Editor) Reopen() {
	e.store.Reopen()
	e.logger.Info("editing reopened")
}

func indexOf(tasks []domain.Task, localID string) int {
	for i := range tasks {
		if tasks[i].LocalID == localID {
			return i
		}
	}
	return -1
}
