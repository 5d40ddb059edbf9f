// Package editor управляет сессиями редактирования списков задач.
//
// Editor — один открытый workflow:
//   - при открытии читает метаданные workflow из backend (ошибка фатальна)
//   - восстанавливает черновик и сохраняет его после каждого изменения
//   - отдаёт операции TaskStore, валидацию, ссылки и коммит
//
// Manager хранит открытые редакторы по id workflow.
package editor
