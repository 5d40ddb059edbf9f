package editor

import (
	"context"
	"sync"
)

// Manager хранит открытые редакторы по id workflow.
type Manager struct {
	deps Deps

	mu      sync.Mutex
	editors map[int64]*Editor
}

// NewManager создаёт Manager.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:    deps,
		editors: make(map[int64]*Editor),
	}
}

// Get возвращает открытый редактор.
func (m *Manager) Get(workflowID int64) (*Editor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.editors[workflowID]
	if !ok {
		return nil, ErrNotOpen
	}
	return e, nil
}

// Open возвращает открытый редактор или открывает новый.
//
// Метаданные читаются без удержания мьютекса; если два запроса открыли
// один workflow одновременно, остаётся первый.
func (m *Manager) Open(ctx context.Context, workflowID int64) (*Editor, error) {
	if e, err := m.Get(workflowID); err == nil {
		return e, nil
	}

	e, err := Open(ctx, m.deps, workflowID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.editors[workflowID]; ok {
		return existing, nil
	}
	m.editors[workflowID] = e
	return e, nil
}

// Close закрывает редактор. Черновик остаётся в хранилище.
func (m *Manager) Close(workflowID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.editors[workflowID]; !ok {
		return false
	}
	delete(m.editors, workflowID)
	return true
}

// OpenCount возвращает количество открытых редакторов.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.editors)
}
