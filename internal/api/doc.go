// Package api содержит HTTP API локального редактора.
//
// Структура:
//   - handler.go          — Handler с DI (менеджер редакторов, backend, сессия)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (recovery, logging, metrics, session)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - session_handler.go  — обработчики для /session
//   - workflow_handler.go — обработчики для /workflows
//   - task_handler.go     — обработчики для /workflows/{id}/tasks
//
// Коды ошибок: READ_ONLY (список закоммичен), CONFLICT (идёт коммит),
// INVALID_TASK и INVALID_REFERENCE (422), COMMIT_FAILED и BACKEND_UNAVAILABLE (502).
package api
