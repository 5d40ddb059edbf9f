package store

import "github.com/shaiso/taskflow/internal/domain"

// FieldsPatch — изменение общих полей задачи. nil поля не трогаются.
type FieldsPatch struct {
	Name *string `json:"name,omitempty"`
}

// ConfigPatch — изменение конфигурации одного из вариантов задачи.
// Реализуется APIPatch и EmailPatch.
type ConfigPatch interface {
	taskType() domain.TaskType
	apply(task *domain.Task)
}

// APIPatch — изменение конфигурации API задачи.
type APIPatch struct {
	URL          *string            `json:"url,omitempty"`
	Method       *domain.HTTPMethod `json:"method,omitempty"`
	Token        *string            `json:"token,omitempty"`
	OutputSchema *string            `json:"outputSchema,omitempty"`
	RequestBody  *string            `json:"requestBody,omitempty"`
}

func (APIPatch) taskType() domain.TaskType { return domain.TaskTypeAPI }

func (p APIPatch) apply(task *domain.Task) {
	if task.API == nil {
		task.API = defaultAPIConfig()
	}
	cfg := task.API
	if p.URL != nil {
		cfg.URL = *p.URL
	}
	if p.Method != nil {
		cfg.Method = *p.Method
	}
	if p.Token != nil {
		cfg.Token = *p.Token
	}
	if p.OutputSchema != nil {
		cfg.OutputSchema = *p.OutputSchema
	}
	if p.RequestBody != nil {
		cfg.RequestBody = *p.RequestBody
	}
}

// EmailPatch — изменение конфигурации email задачи.
type EmailPatch struct {
	RecipientList *string `json:"recipientList,omitempty"`
	Subject       *string `json:"subject,omitempty"`
	Body          *string `json:"body,omitempty"`
}

func (EmailPatch) taskType() domain.TaskType { return domain.TaskTypeEmail }

func (p EmailPatch) apply(task *domain.Task) {
	if task.Email == nil {
		task.Email = &domain.EmailConfig{}
	}
	cfg := task.Email
	if p.RecipientList != nil {
		cfg.RecipientList = *p.RecipientList
	}
	if p.Subject != nil {
		cfg.Subject = *p.Subject
	}
	if p.Body != nil {
		cfg.Body = *p.Body
	}
}
