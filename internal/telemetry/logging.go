package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel разбирает уровень логирования: debug, info, warn, error
// (без учёта регистра). Пустое или неизвестное значение даёт info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger создаёт логгер сервиса в stdout и делает его глобальным.
//
// format "text" — человекочитаемый вывод для разработки,
// любое другое значение — JSON.
func SetupLogger(format, level string) *slog.Logger {
	logger := NewLogger(os.Stdout, format, ParseLevel(level))
	slog.SetDefault(logger)
	return logger
}

// NewLogger создаёт логгер без установки его глобальным.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithWorkflowID возвращает логгер с добавленным workflow_id.
func WithWorkflowID(logger *slog.Logger, workflowID int64) *slog.Logger {
	return logger.With("workflow_id", workflowID)
}

// WithTaskID возвращает логгер с добавленным task_id (localId задачи).
func WithTaskID(logger *slog.Logger, localID string) *slog.Logger {
	return logger.With("task_id", localID)
}

// WithUserID возвращает логгер с добавленным user_id.
func WithUserID(logger *slog.Logger, userID int64) *slog.Logger {
	return logger.With("user_id", userID)
}
