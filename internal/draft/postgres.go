package draft

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB — минимальный интерфейс пула, подходит и *pgxpool.Pool, и pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore хранит черновики в таблице task_drafts.
//
// Сохранение — upsert по ключу: последняя запись побеждает.
type PostgresStore struct {
	db DB
}

// NewPostgresStore создаёт хранилище поверх пула.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema создаёт таблицу, если её нет.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS task_drafts (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create task_drafts: %w", err)
	}
	return nil
}

// Load возвращает значение по ключу.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM task_drafts WHERE key = $1`

	var value []byte
	if err := s.db.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select draft: %w", err)
	}
	return value, nil
}

// Save перезаписывает значение по ключу.
func (s *PostgresStore) Save(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO task_drafts (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

// NewPool создаёт пул соединений к Postgres и проверяет его ping'ом.
// Пустой dsn берётся из DB_URL.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		dsn = os.Getenv("DB_URL")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}
