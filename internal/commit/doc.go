// Package commit отправляет список задач workflow в backend.
//
// Коммит — валидация всего списка, преобразование в тело
// POST /task/add_tasks_bulk и одна bulk-операция. При успехе список
// переходит в состояние saved, при ошибке остаётся в точности прежним.
package commit
