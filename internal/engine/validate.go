package engine

import (
	"strconv"
	"strings"

	"github.com/shaiso/taskflow/internal/domain"
)

// Violations — нарушения по задачам: localId → имена нарушенных полей.
//
// Пустая мапа означает, что весь список валиден.
type Violations map[string][]string

// Valid возвращает true, если нарушений нет.
func (v Violations) Valid() bool {
	return len(v) == 0
}

// FirstOffending возвращает первую по позиции задачу с нарушениями.
// Именно её вызывающий должен показать пользователю.
func (v Violations) FirstOffending(tasks []domain.Task) (localID string, position int, ok bool) {
	if len(v) == 0 {
		return "", -1, false
	}
	for i := range tasks {
		if len(v[tasks[i].LocalID]) > 0 {
			return tasks[i].LocalID, i, true
		}
	}
	return "", -1, false
}

// ValidateCandidate проверяет задачу перед добавлением в список.
//
// Имя не проверяется: TaskStore подставляет имя по умолчанию.
// Ссылки в теле email не проверяются: у кандидата ещё нет позиции.
// Возвращает имена отсутствующих или невалидных полей (пустой слайс — ок).
func ValidateCandidate(taskType domain.TaskType, cfg domain.Config) []string {
	if !IsValidTaskType(taskType) {
		return []string{FieldType}
	}
	if cfg != nil && domain.ConfigType(cfg) != taskType {
		return []string{FieldType}
	}
	if cfg == nil {
		cfg = emptyConfig(taskType)
	}
	return validateConfig(taskType, cfg)
}

// ValidateTask проверяет одну задачу без учёта её позиции в списке.
func ValidateTask(task *domain.Task) []string {
	if !IsValidTaskType(task.Type) {
		return []string{FieldType}
	}

	var fields []string
	if strings.TrimSpace(task.Name) == "" {
		fields = append(fields, FieldName)
	}

	cfg := task.Config()
	if cfg == nil {
		cfg = emptyConfig(task.Type)
	}
	return append(fields, validateConfig(task.Type, cfg)...)
}

// ValidateAll проверяет весь список перед коммитом.
//
// Помимо правил типа проверяет, что каждая ссылка в теле email
// указывает на API задачу со строго меньшей позицией.
func ValidateAll(tasks []domain.Task) Violations {
	violations := make(Violations)

	for i := range tasks {
		task := &tasks[i]

		fields := ValidateTask(task)
		if task.Type == domain.TaskTypeEmail && task.Email != nil && !contains(fields, FieldBody) {
			if len(DanglingReferences(tasks, i)) > 0 {
				fields = append(fields, FieldBody)
			}
		}

		if len(fields) > 0 {
			violations[task.LocalID] = fields
		}
	}

	return violations
}

// DanglingReferences возвращает ссылки из тела email на позиции position,
// которые не указывают на более раннюю API задачу.
func DanglingReferences(tasks []domain.Task, position int) []string {
	if position < 0 || position >= len(tasks) || tasks[position].Email == nil {
		return nil
	}

	var dangling []string
	for _, tok := range ParseTokens(tasks[position].Email.Body) {
		ref, err := strconv.Atoi(tok.Ref)
		if err != nil || ref < 0 || ref >= position || tasks[ref].Type != domain.TaskTypeAPI {
			dangling = append(dangling, tok.Ref)
		}
	}
	return dangling
}

// validateConfig применяет таблицу Schema и условные правила.
func validateConfig(taskType domain.TaskType, cfg domain.Config) []string {
	schema := Schema[taskType]
	var fields []string

	for _, name := range schema.Required {
		if name == FieldName {
			continue
		}
		if strings.TrimSpace(fieldValue(name, cfg)) == "" {
			fields = append(fields, name)
		}
	}

	for _, name := range schema.JSONObjects {
		value := fieldValue(name, cfg)
		if strings.TrimSpace(value) == "" || contains(fields, name) {
			continue
		}
		if _, err := ParseObject(value); err != nil {
			fields = append(fields, name)
		}
	}

	if api, ok := cfg.(*domain.APIConfig); ok {
		if api.Method != "" && !api.Method.IsValid() {
			fields = append(fields, FieldMethod)
		}
		// requestBody обязателен только для POST; для GET поле игнорируется.
		if api.Method == domain.MethodPost {
			if _, err := ParseObject(api.RequestBody); err != nil {
				fields = append(fields, FieldRequestBody)
			}
		}
	}

	return fields
}

func emptyConfig(taskType domain.TaskType) domain.Config {
	if taskType == domain.TaskTypeAPI {
		return &domain.APIConfig{}
	}
	return &domain.EmailConfig{}
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
