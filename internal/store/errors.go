package store

import "errors"

// Ошибки TaskStore.
var (
	// ErrReadOnly — список закоммичен, изменения запрещены до Reopen.
	ErrReadOnly = errors.New("task list is saved and read-only")

	// ErrCommitting — идёт коммит, изменения запрещены до его завершения.
	ErrCommitting = errors.New("task list is being committed")

	// ErrUnknownType — неизвестный тип задачи.
	ErrUnknownType = errors.New("unknown task type")

	// ErrConfigMismatch — конфигурация не соответствует типу задачи.
	ErrConfigMismatch = errors.New("config does not match task type")

	// ErrInvalidDirection — направление перемещения не Up и не Down.
	ErrInvalidDirection = errors.New("invalid move direction")
)
