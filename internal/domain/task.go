package domain

import (
	"encoding/json"
	"fmt"
)

// TaskType — тип задачи (дискриминатор tagged union).
type TaskType string

const (
	// TaskTypeAPI — HTTP-вызов внешнего API.
	TaskTypeAPI TaskType = "api"

	// TaskTypeEmail — отправка email.
	TaskTypeEmail TaskType = "email"
)

// IsValid возвращает true для известных типов задач.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeAPI, TaskTypeEmail:
		return true
	default:
		return false
	}
}

// HTTPMethod — метод HTTP для API задачи.
type HTTPMethod string

const (
	MethodGet  HTTPMethod = "GET"
	MethodPost HTTPMethod = "POST"
)

// IsValid возвращает true для поддерживаемых методов.
func (m HTTPMethod) IsValid() bool {
	return m == MethodGet || m == MethodPost
}

// Task — одна сконфигурированная единица работы в упорядоченном списке workflow.
//
// Task — это tagged union: ровно одно из полей API / Email заполнено,
// в зависимости от Type. Позиция задачи в списке не хранится —
// она вычисляется из положения в TaskStore.
type Task struct {
	// LocalID — клиентский идентификатор, стабильный при перестановках.
	LocalID string

	// Type — тип задачи: "api" или "email".
	Type TaskType

	// Name — имя задачи, задаётся пользователем.
	Name string

	// API — конфигурация API задачи (только для Type == "api").
	API *APIConfig

	// Email — конфигурация email задачи (только для Type == "email").
	Email *EmailConfig
}

// APIConfig — конфигурация API задачи.
//
// OutputSchema и RequestBody хранятся как текст, который редактирует пользователь.
// Они парсятся как JSON объекты только при валидации и коммите.
type APIConfig struct {
	URL          string     `json:"url"`
	Method       HTTPMethod `json:"method"`
	Token        string     `json:"token,omitempty"`
	OutputSchema string     `json:"outputSchema"`
	RequestBody  string     `json:"requestBody,omitempty"`
}

// EmailConfig — конфигурация email задачи.
//
// Body может содержать плейсхолдеры вида {{<ref>.output}}.
type EmailConfig struct {
	RecipientList string `json:"recipientList"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// Config — конфигурация одного из вариантов задачи (*APIConfig или *EmailConfig).
type Config interface {
	taskType() TaskType
}

func (*APIConfig) taskType() TaskType   { return TaskTypeAPI }
func (*EmailConfig) taskType() TaskType { return TaskTypeEmail }

// ConfigType возвращает тип задачи, которому соответствует конфигурация.
func ConfigType(cfg Config) TaskType {
	if cfg == nil {
		return ""
	}
	return cfg.taskType()
}

// Config возвращает конфигурацию задачи согласно её типу.
func (t *Task) Config() Config {
	switch t.Type {
	case TaskTypeAPI:
		if t.API != nil {
			return t.API
		}
	case TaskTypeEmail:
		if t.Email != nil {
			return t.Email
		}
	}
	return nil
}

// Clone возвращает глубокую копию задачи.
func (t Task) Clone() Task {
	out := t
	if t.API != nil {
		api := *t.API
		out.API = &api
	}
	if t.Email != nil {
		email := *t.Email
		out.Email = &email
	}
	return out
}

// CloneTasks копирует список задач.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}

// taskJSON — формат задачи в черновике: {"localId","type","name","config"}.
type taskJSON struct {
	LocalID string          `json:"localId"`
	Type    TaskType        `json:"type"`
	Name    string          `json:"name"`
	Config  json.RawMessage `json:"config"`
}

// MarshalJSON сериализует задачу, кладя конфигурацию варианта в поле config.
func (t Task) MarshalJSON() ([]byte, error) {
	var cfg any
	switch t.Type {
	case TaskTypeAPI:
		cfg = t.API
		if t.API == nil {
			cfg = &APIConfig{}
		}
	case TaskTypeEmail:
		cfg = t.Email
		if t.Email == nil {
			cfg = &EmailConfig{}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, t.Type)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taskJSON{
		LocalID: t.LocalID,
		Type:    t.Type,
		Name:    t.Name,
		Config:  raw,
	})
}

// UnmarshalJSON десериализует задачу, выбирая вариант конфигурации по type.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Task{LocalID: raw.LocalID, Type: raw.Type, Name: raw.Name}
	switch raw.Type {
	case TaskTypeAPI:
		out.API = &APIConfig{}
		if err := unmarshalConfig(raw.Config, out.API); err != nil {
			return err
		}
	case TaskTypeEmail:
		out.Email = &EmailConfig{}
		if err := unmarshalConfig(raw.Config, out.Email); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTaskType, raw.Type)
	}

	*t = out
	return nil
}

func unmarshalConfig(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
