package editor

import "errors"

// Ошибки редактора.
var (
	// ErrWorkflowUnavailable — метаданные workflow не получены; сессия редактирования не открывается.
	ErrWorkflowUnavailable = errors.New("workflow unavailable")

	// ErrNotOpen — для workflow нет открытого редактора.
	ErrNotOpen = errors.New("workflow is not open")

	// ErrTaskNotFound — задачи с таким localId нет в списке.
	ErrTaskNotFound = errors.New("task not found")
)
