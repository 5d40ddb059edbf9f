package commit

import (
	"fmt"
	"strings"

	"github.com/shaiso/taskflow/internal/backend"
	"github.com/shaiso/taskflow/internal/domain"
	"github.com/shaiso/taskflow/internal/engine"
)

// BuildRequest преобразует список задач в тело bulk-запроса.
//
// Порядок элементов совпадает с порядком списка, order — позиция с нуля.
// Ожидает провалидированный список: невалидный JSON возвращает ошибку.
func BuildRequest(workflowID int64, tasks []domain.Task) ([]backend.TaskRequest, error) {
	out := make([]backend.TaskRequest, 0, len(tasks))

	for i := range tasks {
		task := &tasks[i]
		req := backend.TaskRequest{
			Name:       task.Name,
			WorkflowID: workflowID,
			TaskType:   string(task.Type),
			Order:      i,
		}

		switch task.Type {
		case domain.TaskTypeAPI:
			if task.API == nil {
				return nil, fmt.Errorf("task %s: missing api config", task.LocalID)
			}
			inputs, schema, err := apiInputs(task.API)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", task.LocalID, err)
			}
			req.Inputs = inputs
			req.OutputSchema = schema

		case domain.TaskTypeEmail:
			if task.Email == nil {
				return nil, fmt.Errorf("task %s: missing email config", task.LocalID)
			}
			req.Inputs = backend.EmailInputs{
				RecipientList: task.Email.RecipientList,
				Subject:       task.Email.Subject,
				Body:          task.Email.Body,
			}

		default:
			return nil, fmt.Errorf("task %s: %w: %q", task.LocalID, domain.ErrUnknownTaskType, task.Type)
		}

		out = append(out, req)
	}

	return out, nil
}

func apiInputs(cfg *domain.APIConfig) (backend.APIInputs, map[string]any, error) {
	inputs := backend.APIInputs{
		APIURL: cfg.URL,
		Type:   string(cfg.Method),
	}

	if cfg.Method == domain.MethodPost {
		body, err := engine.ParseObject(cfg.RequestBody)
		if err != nil {
			return inputs, nil, fmt.Errorf("%s: %w", engine.FieldRequestBody, err)
		}
		inputs.Body = body
	}

	if strings.TrimSpace(cfg.Token) != "" {
		token := cfg.Token
		inputs.Token = &token
	}

	var schema map[string]any
	if strings.TrimSpace(cfg.OutputSchema) != "" {
		parsed, err := engine.ParseObject(cfg.OutputSchema)
		if err != nil {
			return inputs, nil, fmt.Errorf("%s: %w", engine.FieldOutputSchema, err)
		}
		schema = parsed
	}

	return inputs, schema, nil
}
