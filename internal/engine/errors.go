package engine

import "errors"

// Ошибки разбора JSON полей конфигурации.
var (
	// ErrMalformedJSON — текст не является корректным JSON.
	ErrMalformedJSON = errors.New("malformed JSON")

	// ErrNotJSONObject — JSON корректен, но это не объект (массив или скаляр).
	ErrNotJSONObject = errors.New("JSON value is not an object")
)

// Ошибки плейсхолдеров.
var (
	// ErrNotEmailTask — ссылки можно вставлять только в email задачи.
	ErrNotEmailTask = errors.New("references can only be inserted into email tasks")

	// ErrIneligibleReference — позиция не указывает на более раннюю API задачу.
	ErrIneligibleReference = errors.New("reference target is not an earlier api task")
)

// ValidationError — ошибка валидации с контекстом.
//
// Валидатор сам по себе ошибок не возвращает: нарушения — это данные (Violations).
// ValidationError используется вызывающими, когда нарушения нужно
// пробросить через error (например, при отказе в добавлении задачи).
type ValidationError struct {
	LocalID string   // localId задачи (пустой для кандидата)
	Fields  []string // нарушенные поля
	Err     error    // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	msg := "invalid fields: "
	for i, f := range e.Fields {
		if i > 0 {
			msg += ", "
		}
		msg += f
	}
	if e.LocalID != "" {
		return "task " + e.LocalID + ": " + msg
	}
	return msg
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ErrInvalidTask — базовая ошибка для ValidationError.
var ErrInvalidTask = errors.New("invalid task")

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(localID string, fields []string) *ValidationError {
	return &ValidationError{
		LocalID: localID,
		Fields:  fields,
		Err:     ErrInvalidTask,
	}
}
