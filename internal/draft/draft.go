package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/taskflow/internal/domain"
)

// ErrNotFound — по ключу ничего не сохранено.
var ErrNotFound = errors.New("draft not found")

// DraftStore — минимальное key-value хранилище черновиков.
//
// Реализации: MemoryStore, FileStore, RedisStore, PostgresStore.
// Координации между процессами нет: при одновременной записи
// побеждает последняя.
type DraftStore interface {
	// Load возвращает сохранённое значение или ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save полностью перезаписывает значение по ключу.
	Save(ctx context.Context, key string, value []byte) error
}

// Key возвращает ключ черновика для workflow: workflow:<id>:tasks.
func Key(workflowID int64) string {
	return fmt.Sprintf("workflow:%d:tasks", workflowID)
}

// Persistence сохраняет и восстанавливает снимки списка задач.
type Persistence struct {
	store  DraftStore
	logger *slog.Logger
}

// NewPersistence создаёт Persistence поверх хранилища.
func NewPersistence(store DraftStore, logger *slog.Logger) *Persistence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persistence{
		store:  store,
		logger: logger,
	}
}

// Load возвращает черновик для workflow.
//
// Отсутствие черновика, ошибка хранилища и ошибка разбора
// трактуются одинаково: возвращается пустой список, ошибка не пробрасывается.
func (p *Persistence) Load(ctx context.Context, workflowID int64) []domain.Task {
	key := Key(workflowID)

	raw, err := p.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn("draft load failed", "key", key, "error", err)
		}
		return []domain.Task{}
	}

	var tasks []domain.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		p.logger.Debug("draft is not parseable, ignoring", "key", key, "error", err)
		return []domain.Task{}
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks
}

// Save перезаписывает черновик полным снимком списка.
func (p *Persistence) Save(ctx context.Context, workflowID int64, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}

	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	if err := p.store.Save(ctx, Key(workflowID), raw); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}
