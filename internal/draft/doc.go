// Package draft сохраняет локальные черновики списков задач.
//
// Черновик — полный снимок списка задач workflow в виде JSON массива
// под ключом workflow:<id>:tasks. Версии формата нет.
//
// Хранилище абстрагировано интерфейсом DraftStore (Load/Save), поэтому
// носитель можно сменить, не трогая TaskStore и CommitProtocol:
//   - memory.go   — в памяти процесса
//   - file.go     — файл на ключ, атомарная запись
//   - redis.go    — Redis (go-redis)
//   - postgres.go — таблица task_drafts (pgx)
//
// Ошибки чтения и разбора черновика не пробрасываются: редактор
// просто начинает с пустого списка.
package draft
