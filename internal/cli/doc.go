// Package cli реализует инструмент командной строки taskflow.
//
// # Обзор
//
// CLI — клиентская утилита для локального API редактора задач.
// Работает через HTTP, не импортирует внутренние пакеты системы.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент (resty) для API редактора. Разбирает конверты
// {"data":...} и {"error":{code,message,details}}; ошибки API
// возвращаются как *APIError.
//
//	client := cli.NewClient("http://localhost:8080")
//	tasks, err := client.ListTasks(42)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: taskflow task list 42 --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - workflow: list, create, open, close, validate, commit, reopen
//   - task: list, add, update, remove, move, refs, link
//   - user: show, set, sync, clear
//
// Каждая группа создаётся через фабричную функцию (NewWorkflowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
