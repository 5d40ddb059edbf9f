package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/taskflow/internal/domain"
	"github.com/shaiso/taskflow/internal/editor"
	"github.com/shaiso/taskflow/internal/session"
	"github.com/shaiso/taskflow/internal/telemetry"
)

// Backend — операции backend, которые API отдаёт напрямую.
// Реализуется *backend.Client.
type Backend interface {
	ListWorkflows(ctx context.Context) ([]domain.Workflow, error)
	CreateWorkflow(ctx context.Context, name, description string, createdBy int64) (*domain.Workflow, error)
	Me(ctx context.Context) (*domain.User, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	editors *editor.Manager
	backend Backend
	session *session.Session
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Editors *editor.Manager
	Backend Backend
	Session *session.Session
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Session == nil {
		cfg.Session = session.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		editors: cfg.Editors,
		backend: cfg.Backend,
		session: cfg.Session,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}
