// Package engine содержит правила композиции задач workflow.
//
// Включает:
//   - schema.go      — статическая таблица обязательных полей по типам задач
//   - validate.go    — валидация кандидата и всего списка (нарушения как данные)
//   - placeholder.go — плейсхолдеры {{<ref>.output}} и выбор допустимых ссылок
//
// Engine не выполняет задачи и не подставляет реальные выходы:
// он только проверяет, что список можно отправить в backend,
// и поддерживает ссылки между задачами в согласованном виде.
package engine
