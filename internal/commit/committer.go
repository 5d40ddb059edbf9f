package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/taskflow/internal/backend"
	"github.com/shaiso/taskflow/internal/engine"
	"github.com/shaiso/taskflow/internal/mq"
	"github.com/shaiso/taskflow/internal/session"
	"github.com/shaiso/taskflow/internal/store"
	"github.com/shaiso/taskflow/internal/telemetry"
)

// Creator — создание задач в backend. Реализуется *backend.Client.
type Creator interface {
	AddTasksBulk(ctx context.Context, tasks []backend.TaskRequest) (*backend.BulkResult, error)
}

// Notifier — публикация события об успешном коммите. Реализуется *mq.Publisher.
type Notifier interface {
	PublishTasksCommitted(ctx context.Context, payload mq.TasksCommittedPayload) error
}

// Result — итог попытки коммита.
type Result struct {
	// Violations — нарушения валидации (пусто при успехе).
	Violations engine.Violations `json:"violations,omitempty"`

	// FirstOffending — localId первой по позиции невалидной задачи.
	FirstOffending string `json:"first_offending,omitempty"`

	// FirstOffendingPosition — её позиция, -1 если нарушений нет.
	FirstOffendingPosition int `json:"first_offending_position"`

	// TaskCount — сколько задач отправлено.
	TaskCount int `json:"task_count"`

	// TaskIDs — идентификаторы, которые вернул backend.
	TaskIDs []int64 `json:"task_ids,omitempty"`
}

// Config — конфигурация Committer.
type Config struct {
	Client    Creator
	Publisher Notifier // может быть nil
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// Committer отправляет список задач в backend одной bulk-операцией.
//
// Для каждого workflow одновременно выполняется не больше одного коммита.
type Committer struct {
	client    Creator
	publisher Notifier
	metrics   *telemetry.Metrics
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// New создаёт Committer.
func New(cfg Config) *Committer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Committer{
		client:    cfg.Client,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		inFlight:  make(map[int64]struct{}),
	}
}

// Commit валидирует и отправляет список задач workflow.
//
// Порядок:
//  1. второй коммит того же workflow во время первого — ErrCommitInProgress
//  2. уже сохранённый список — ErrAlreadySaved
//  3. нарушения валидации — Result с нарушениями и ErrInvalidTasks
//  4. ошибка backend — ErrCommitFailed, список не меняется
//  5. успех — список переходит в состояние saved, публикуется tasks.committed
//
// Пока идёт коммит, изменения списка возвращают store.ErrCommitting.
func (c *Committer) Commit(ctx context.Context, sess *session.Session, workflowID int64, st *store.Store) (*Result, error) {
	logger := telemetry.WithWorkflowID(c.logger, workflowID)
	var userID *int64
	if u, ok := sess.User(); ok {
		id := u.ID
		userID = &id
		logger = telemetry.WithUserID(logger, id)
	}

	if !c.acquire(workflowID) {
		c.metrics.ObserveCommit(telemetry.OutcomeBusy, 0)
		return nil, ErrCommitInProgress
	}
	defer c.release(workflowID)

	// До EndCommit изменения списка возвращают store.ErrCommitting.
	tasks, err := st.BeginCommit()
	if err != nil {
		if errors.Is(err, store.ErrReadOnly) {
			return nil, ErrAlreadySaved
		}
		c.metrics.ObserveCommit(telemetry.OutcomeBusy, 0)
		return nil, ErrCommitInProgress
	}
	ended := false
	defer func() {
		if !ended {
			st.EndCommit(false)
		}
	}()

	violations := engine.ValidateAll(tasks)
	if !violations.Valid() {
		res := &Result{Violations: violations, FirstOffendingPosition: -1}
		if id, pos, ok := violations.FirstOffending(tasks); ok {
			res.FirstOffending = id
			res.FirstOffendingPosition = pos
		}
		c.metrics.ObserveCommit(telemetry.OutcomeInvalid, 0)
		logger.Info("commit rejected by validation",
			"invalid_tasks", len(violations),
			"first_offending", res.FirstOffending,
		)
		return res, ErrInvalidTasks
	}

	payload, err := BuildRequest(workflowID, tasks)
	if err != nil {
		c.metrics.ObserveCommit(telemetry.OutcomeInvalid, 0)
		return nil, fmt.Errorf("%w: %w", ErrInvalidTasks, err)
	}

	start := time.Now()
	resp, err := c.client.AddTasksBulk(ctx, payload)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveCommit(telemetry.OutcomeFailed, elapsed)
		logger.Warn("commit failed", "tasks", len(payload), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	st.EndCommit(true)
	ended = true
	c.metrics.ObserveCommit(telemetry.OutcomeSuccess, elapsed)

	res := &Result{
		FirstOffendingPosition: -1,
		TaskCount:              len(payload),
	}
	if resp != nil {
		res.TaskIDs = resp.IDs
	}

	logger.Info("tasks committed", "tasks", res.TaskCount, "duration", elapsed)

	if c.publisher != nil {
		event := mq.TasksCommittedPayload{
			WorkflowID: workflowID,
			TaskCount:  res.TaskCount,
			TaskIDs:    res.TaskIDs,
			UserID:     userID,
		}
		if err := c.publisher.PublishTasksCommitted(ctx, event); err != nil {
			logger.Warn("failed to publish tasks.committed", "error", err)
		}
	}

	return res, nil
}

// InProgress сообщает, идёт ли коммит для workflow.
func (c *Committer) InProgress(workflowID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[workflowID]
	return ok
}

func (c *Committer) acquire(workflowID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[workflowID]; busy {
		return false
	}
	c.inFlight[workflowID] = struct{}{}
	return true
}

func (c *Committer) release(workflowID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, workflowID)
}
