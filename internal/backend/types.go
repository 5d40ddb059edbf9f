package backend

import (
	"encoding/json"
	"fmt"
)

// TaskRequest — одна задача в запросе POST /task/add_tasks_bulk.
type TaskRequest struct {
	Name         string         `json:"name"`
	WorkflowID   int64          `json:"workflow_id"`
	Inputs       any            `json:"inputs"`
	OutputSchema map[string]any `json:"output_schema"`
	TaskType     string         `json:"taskType"`
	Order        int            `json:"order"`
}

// APIInputs — inputs API задачи.
//
// Body заполнен только для POST, Token — только если задан.
type APIInputs struct {
	APIURL string         `json:"apiurl"`
	Type   string         `json:"type"`
	Body   map[string]any `json:"body"`
	Token  *string        `json:"token"`
}

// EmailInputs — inputs email задачи.
type EmailInputs struct {
	RecipientList string `json:"recipientlist"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// BulkResult — ответ на создание задач.
type BulkResult struct {
	// IDs — идентификаторы созданных задач, если backend их вернул.
	IDs []int64 `json:"ids"`
}

type idHolder struct {
	ID int64 `json:"id"`
}

// parseBulkResult разбирает ответ в одной из форм:
// [{"id":1}], {"ids":[1]} или {"tasks":[{"id":1}]}.
// Пустое тело или объект без этих ключей дают пустой результат,
// остальные тела — ошибку.
func parseBulkResult(body []byte) (*BulkResult, error) {
	res := &BulkResult{}
	if len(body) == 0 {
		return res, nil
	}

	var list []idHolder
	if err := json.Unmarshal(body, &list); err == nil {
		for _, it := range list {
			res.IDs = append(res.IDs, it.ID)
		}
		return res, nil
	}

	var obj struct {
		IDs   []int64    `json:"ids"`
		Tasks []idHolder `json:"tasks"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	res.IDs = append(res.IDs, obj.IDs...)
	for _, it := range obj.Tasks {
		res.IDs = append(res.IDs, it.ID)
	}
	return res, nil
}
