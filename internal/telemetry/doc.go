// Package telemetry обеспечивает наблюдаемость редактора.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики (коммиты, черновики, HTTP)
//
// Ключи логов: workflow_id, task_id (localId), user_id.
package telemetry
