package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shaiso/taskflow/internal/domain"
)

// Имена полей, которые возвращает валидатор.
// Совпадают с JSON ключами конфигурации.
const (
	FieldType          = "type"
	FieldName          = "name"
	FieldURL           = "url"
	FieldMethod        = "method"
	FieldOutputSchema  = "outputSchema"
	FieldRequestBody   = "requestBody"
	FieldRecipientList = "recipientList"
	FieldSubject       = "subject"
	FieldBody          = "body"
)

// TypeSchema — правила одного типа задачи.
type TypeSchema struct {
	// Required — обязательные поля (непустое значение).
	Required []string

	// JSONObjects — поля, которые должны парситься как JSON объект.
	JSONObjects []string
}

// Schema — статическая таблица правил по типам задач.
//
// Условные правила (requestBody при POST, ссылки в теле email)
// применяются в validateConfig поверх таблицы.
var Schema = map[domain.TaskType]TypeSchema{
	domain.TaskTypeAPI: {
		Required:    []string{FieldName, FieldURL, FieldMethod, FieldOutputSchema},
		JSONObjects: []string{FieldOutputSchema},
	},
	domain.TaskTypeEmail: {
		Required: []string{FieldName, FieldRecipientList, FieldSubject, FieldBody},
	},
}

// IsValidTaskType проверяет, есть ли тип в таблице.
func IsValidTaskType(t domain.TaskType) bool {
	_, ok := Schema[t]
	return ok
}

// ParseObject парсит текст как JSON объект.
//
// Возвращает ErrMalformedJSON для синтаксических ошибок
// и ErrNotJSONObject для массивов, строк, чисел и null.
func ParseObject(text string) (map[string]any, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 {
		return nil, ErrMalformedJSON
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotJSONObject, v)
	}
	return obj, nil
}

// fieldValue возвращает строковое значение поля конфигурации.
func fieldValue(name string, cfg domain.Config) string {
	switch c := cfg.(type) {
	case *domain.APIConfig:
		switch name {
		case FieldURL:
			return c.URL
		case FieldMethod:
			return string(c.Method)
		case FieldOutputSchema:
			return c.OutputSchema
		case FieldRequestBody:
			return c.RequestBody
		}
	case *domain.EmailConfig:
		switch name {
		case FieldRecipientList:
			return c.RecipientList
		case FieldSubject:
			return c.Subject
		case FieldBody:
			return c.Body
		}
	}
	return ""
}
