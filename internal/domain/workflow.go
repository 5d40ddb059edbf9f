package domain

import (
	"errors"
	"time"
)

// ErrUnknownTaskType — тип задачи не поддерживается.
var ErrUnknownTaskType = errors.New("unknown task type")

// Workflow — контейнер упорядоченного списка задач, хранится в backend.
//
// Для редактора Workflow доступен только на чтение: он используется
// для отображения и как ключ коммита.
type Workflow struct {
	// ID — числовой идентификатор workflow в backend.
	ID int64 `json:"id"`

	// Name — имя workflow.
	Name string `json:"name"`

	// Description — описание назначения workflow.
	Description string `json:"description"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// Status — статус workflow в backend (строка как есть).
	Status string `json:"status"`
}

// User — аутентифицированный пользователь.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
