package commit

import "errors"

var (
	// ErrCommitInProgress — для этого workflow уже идёт коммит.
	ErrCommitInProgress = errors.New("commit already in progress")

	// ErrAlreadySaved — список уже закоммичен и доступен только для чтения.
	ErrAlreadySaved = errors.New("task list is already saved")

	// ErrInvalidTasks — список не прошёл валидацию, запрос не отправлялся.
	ErrInvalidTasks = errors.New("task list has validation errors")

	// ErrCommitFailed — backend не принял список; локальный список не изменён.
	ErrCommitFailed = errors.New("commit failed")
)
