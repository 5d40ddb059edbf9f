package draft

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/taskflow/internal/config"
)

// Open создаёт хранилище черновиков по конфигурации.
//
// Возвращает функцию закрытия ресурсов (соединений), которую нужно вызвать
// при остановке сервиса.
func Open(ctx context.Context, cfg config.Draft) (DraftStore, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), func() {}, nil

	case config.DriverFile:
		st, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return NewRedisStore(client, cfg.RedisTTL), func() { _ = client.Close() }, nil

	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		st := NewPostgresStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return st, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown draft driver %q", cfg.Driver)
	}
}
