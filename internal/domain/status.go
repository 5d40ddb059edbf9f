package domain

// EditorState — состояние списка задач в редакторе.
//
// Жизненный цикл:
//
//	EDITING → COMMITTING → SAVED
//	            ↘ EDITING (при ошибке коммита)
//	SAVED → EDITING (явное переоткрытие)
type EditorState string

const (
	// EditorStateEditing — список задач можно менять.
	EditorStateEditing EditorState = "EDITING"

	// EditorStateCommitting — идёт отправка в backend.
	EditorStateCommitting EditorState = "COMMITTING"

	// EditorStateSaved — коммит прошёл, список только для чтения.
	EditorStateSaved EditorState = "SAVED"
)

// IsReadOnly возвращает true, если изменения запрещены.
func (s EditorState) IsReadOnly() bool {
	return s == EditorStateSaved
}
