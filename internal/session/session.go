// Package session хранит аутентифицированного пользователя редактора.
//
// Session передаётся явно: в путь коммита и в HTTP обработчики через контекст.
package session

import (
	"context"
	"sync"

	"github.com/shaiso/taskflow/internal/domain"
)

// Session — пользователь текущей сессии. Безопасна для конкурентного доступа.
type Session struct {
	mu   sync.RWMutex
	user *domain.User
}

// New создаёт пустую сессию.
func New() *Session {
	return &Session{}
}

// SetUser запоминает пользователя, заменяя предыдущего.
func (s *Session) SetUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
}

// ClearUser забывает пользователя.
func (s *Session) ClearUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// User возвращает пользователя, если он установлен.
func (s *Session) User() (domain.User, bool) {
	if s == nil {
		return domain.User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

type ctxKey struct{}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext извлекает сессию из контекста. Возвращает nil, если её нет.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
