package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound — backend вернул 404 для workflow.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRequestFailed — запрос к backend завершился ошибкой (сеть или не-2xx).
	ErrRequestFailed = errors.New("backend request failed")
)

// APIError — ответ backend с кодом вне 2xx.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("backend: HTTP %d: %s", e.StatusCode, e.Body)
}

// Unwrap позволяет проверять errors.Is(err, ErrRequestFailed).
func (e *APIError) Unwrap() error {
	return ErrRequestFailed
}

// Retryable возвращает true для 5xx, 408 и 429.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 408 || e.StatusCode == 429
}
