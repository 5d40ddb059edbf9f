// Package backend — клиент внешнего сервиса, который хранит workflow и задачи.
//
// Используемые эндпоинты:
//
//	GET  /workflow/{id}                  метаданные workflow
//	POST /workflow/create                создание workflow
//	GET  /workflow/get_workflow_by_user  workflow пользователя
//	POST /task/add_tasks_bulk            создание всех задач за один запрос
//	GET  /user/me                        текущий пользователь
//
// Чтение workflow повторяется при сетевых ошибках и 5xx (go-retry).
// Создание задач не повторяется никогда.
package backend
