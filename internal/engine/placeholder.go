package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shaiso/taskflow/internal/domain"
)

// tokenPattern — грамматика плейсхолдера: {{<ref>.output}}.
// ref не содержит фигурных скобок, точек и пробелов.
var tokenPattern = regexp.MustCompile(`\{\{([^{}.\s]+)\.output\}\}`)

// TokenRef — найденный в тексте плейсхолдер.
type TokenRef struct {
	// Ref — ссылка внутри токена (позиция задачи или, для осиротевших, её localId).
	Ref string

	// Start, End — границы токена в тексте (как в regexp).
	Start, End int
}

// Reference — задача, на которую можно сослаться из email.
type Reference struct {
	LocalID  string `json:"local_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// FormatToken возвращает текст плейсхолдера для ссылки.
func FormatToken(ref string) string {
	return "{{" + ref + ".output}}"
}

// PositionToken возвращает плейсхолдер для позиции задачи.
func PositionToken(position int) string {
	return FormatToken(strconv.Itoa(position))
}

// ParseTokens находит все плейсхолдеры в тексте.
func ParseTokens(body string) []TokenRef {
	matches := tokenPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]TokenRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, TokenRef{
			Ref:   body[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		})
	}
	return refs
}

// EligibleReferences возвращает API задачи, на которые может ссылаться
// email задача на позиции position: ровно API задачи с позицией < position.
//
// Для не-email задач и позиций вне списка возвращает nil.
func EligibleReferences(tasks []domain.Task, position int) []Reference {
	if position < 0 || position >= len(tasks) || tasks[position].Type != domain.TaskTypeEmail {
		return nil
	}

	var refs []Reference
	for i := 0; i < position; i++ {
		if tasks[i].Type == domain.TaskTypeAPI {
			refs = append(refs, Reference{
				LocalID:  tasks[i].LocalID,
				Name:     tasks[i].Name,
				Position: i,
			})
		}
	}
	return refs
}

// IsEligible проверяет, что задача на позиции ref — допустимая цель
// для email на позиции position.
func IsEligible(tasks []domain.Task, position, ref int) bool {
	for _, r := range EligibleReferences(tasks, position) {
		if r.Position == ref {
			return true
		}
	}
	return false
}

// InsertReference дописывает в конец body перевод строки и плейсхолдер
// для позиции ref. Существующий текст не изменяется.
func InsertReference(body string, ref int) string {
	return body + "\n" + PositionToken(ref)
}

// ReferencedTasks возвращает задачи, на которые ссылается email на позиции position.
// Ссылки, не указывающие на существующую задачу, пропускаются.
func ReferencedTasks(tasks []domain.Task, position int) []Reference {
	if position < 0 || position >= len(tasks) || tasks[position].Email == nil {
		return nil
	}

	var refs []Reference
	for _, tok := range ParseTokens(tasks[position].Email.Body) {
		ref, err := strconv.Atoi(tok.Ref)
		if err != nil || ref < 0 || ref >= len(tasks) {
			continue
		}
		refs = append(refs, Reference{
			LocalID:  tasks[ref].LocalID,
			Name:     tasks[ref].Name,
			Position: ref,
		})
	}
	return refs
}

// RebaseReferences переписывает позиционные плейсхолдеры в email задачах after
// так, чтобы они указывали на те же задачи, что и в списке before.
//
// Токен привязан к задаче, которая стояла на его позиции в before.
// Если задача осталась в списке, токен получает её новую позицию.
// Если задача удалена, токен получает её localId: такая ссылка
// не числовая и помечается валидатором как висячая.
// Позиции вне before и нечисловые ссылки не трогаются.
//
// Email задачи в after изменяются на месте.
func RebaseReferences(before, after []domain.Task) {
	newPos := make(map[string]int, len(after))
	for i := range after {
		newPos[after[i].LocalID] = i
	}

	for i := range after {
		email := after[i].Email
		if after[i].Type != domain.TaskTypeEmail || email == nil {
			continue
		}
		email.Body = rewriteTokens(email.Body, func(ref string) string {
			old, err := strconv.Atoi(ref)
			if err != nil || old < 0 || old >= len(before) {
				return ref
			}
			id := before[old].LocalID
			if pos, ok := newPos[id]; ok {
				return strconv.Itoa(pos)
			}
			return id
		})
	}
}

// rewriteTokens заменяет ref в каждом плейсхолдере на результат fn.
func rewriteTokens(body string, fn func(ref string) string) string {
	tokens := ParseTokens(body)
	if len(tokens) == 0 {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	last := 0
	for _, tok := range tokens {
		b.WriteString(body[last:tok.Start])
		b.WriteString(FormatToken(fn(tok.Ref)))
		last = tok.End
	}
	b.WriteString(body[last:])
	return b.String()
}
