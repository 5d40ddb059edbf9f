package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/taskflow/internal/domain"
	"github.com/shaiso/taskflow/internal/engine"
)

// Direction — направление перемещения задачи.
type Direction int

const (
	// Up — на одну позицию к началу списка.
	Up Direction = -1

	// Down — на одну позицию к концу списка.
	Down Direction = 1
)

// Имена по умолчанию для задач без имени.
const (
	defaultAPIName   = "API call task"
	defaultEmailName = "Email task"
)

// Store — упорядоченный изменяемый список задач одного workflow.
//
// Порядок в слайсе — единственный источник правды и для отображения,
// и для поля order при коммите. Все операции атомарны относительно друг друга.
//
// После успешного коммита Store переходит в состояние saved:
// любые изменения возвращают ErrReadOnly, пока не вызван Reopen.
// Между BeginCommit и EndCommit изменения возвращают ErrCommitting.
type Store struct {
	tasks      []domain.Task
	saved      bool
	committing bool

	// version растёт с каждым изменением; notified — последняя версия,
	// переданная в onChange. Старые снимки не передаются.
	version  uint64
	notified uint64
	notifyMu sync.Mutex

	// onChange вызывается после каждого успешного изменения со снимком списка.
	onChange func([]domain.Task)

	// newID генерирует localId новой задачи.
	newID func() string

	mu sync.Mutex
}

// Option настраивает Store.
type Option func(*Store)

// WithOnChange задаёт обработчик изменений (используется для сохранения черновика).
func WithOnChange(fn func([]domain.Task)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// WithIDGenerator задаёт генератор localId.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithTasks задаёт начальный список (например, восстановленный черновик).
func WithTasks(tasks []domain.Task) Option {
	return func(s *Store) {
		s.tasks = domain.CloneTasks(tasks)
	}
}

// New создаёт новый Store.
func New(opts ...Option) *Store {
	s := &Store{
		tasks: []domain.Task{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---- Чтение ----

// Tasks возвращает глубокую копию списка.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneTasks(s.tasks)
}

// Len возвращает количество задач.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Get возвращает копию задачи и её позицию.
func (s *Store) Get(localID string) (domain.Task, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(localID)
	if idx < 0 {
		return domain.Task{}, -1, false
	}
	return s.tasks[idx].Clone(), idx, true
}

// Saved возвращает true, если список закоммичен и доступен только для чтения.
func (s *Store) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// ---- Состояние saved ----

// MarkSaved переводит список в состояние только для чтения.
func (s *Store) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = true
}

// Reopen снова разрешает редактирование.
func (s *Store) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = false
}

// BeginCommit замораживает список на время коммита и возвращает его снимок.
//
// Уже сохранённый список — ErrReadOnly, второй коммит — ErrCommitting.
// Каждый успешный BeginCommit должен завершаться EndCommit.
func (s *Store) BeginCommit() ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.saved:
		return nil, ErrReadOnly
	case s.committing:
		return nil, ErrCommitting
	}
	s.committing = true
	return domain.CloneTasks(s.tasks), nil
}

// EndCommit снимает заморозку. При ok список переходит в состояние saved,
// иначе снова доступен для редактирования.
func (s *Store) EndCommit(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false
	if ok {
		s.saved = true
	}
}

// Committing сообщает, заморожен ли список коммитом.
func (s *Store) Committing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committing
}

// ---- Изменения ----

// Append добавляет задачу в конец списка.
//
// Задача получает новый localId и конфигурацию по умолчанию для своего типа
// (API: method=GET, outputSchema={}), поверх которой накладывается cfg.
// Пустое имя заменяется именем по умолчанию.
func (s *Store) Append(taskType domain.TaskType, name string, cfg domain.Config) (domain.Task, error) {
	full, err := DefaultConfig(taskType, cfg)
	if err != nil {
		return domain.Task{}, err
	}

	task := domain.Task{Type: taskType, Name: name}
	switch c := full.(type) {
	case *domain.APIConfig:
		task.API = c
		if task.Name == "" {
			task.Name = defaultAPIName
		}
	case *domain.EmailConfig:
		task.Email = c
		if task.Name == "" {
			task.Name = defaultEmailName
		}
	}

	var added domain.Task
	err = s.mutate(func() bool {
		task.LocalID = s.newID()
		s.tasks = append(s.tasks, task)
		added = task.Clone()
		return true
	})
	return added, err
}

// Remove удаляет задачу. Неизвестный localId — no-op.
//
// Плейсхолдеры в email задачах перебазируются на новые позиции;
// ссылки на удалённую задачу становятся висячими.
func (s *Store) Remove(localID string) error {
	return s.mutate(func() bool {
		idx := s.indexOf(localID)
		if idx < 0 {
			return false
		}

		before := s.tasks
		after := make([]domain.Task, 0, len(before)-1)
		after = append(after, before[:idx]...)
		after = append(after, before[idx+1:]...)
		after = domain.CloneTasks(after)

		engine.RebaseReferences(before, after)
		s.tasks = after
		return true
	})
}

// Move сдвигает задачу на одну позицию.
//
// Первая задача вверх и последняя вниз не двигаются (без зацикливания).
// Неизвестный localId — no-op.
func (s *Store) Move(localID string, dir Direction) error {
	if dir != Up && dir != Down {
		return ErrInvalidDirection
	}

	return s.mutate(func() bool {
		idx := s.indexOf(localID)
		if idx < 0 {
			return false
		}
		newIdx := idx + int(dir)
		if newIdx < 0 || newIdx >= len(s.tasks) {
			return false
		}

		before := s.tasks
		after := domain.CloneTasks(before)
		after[idx], after[newIdx] = after[newIdx], after[idx]

		engine.RebaseReferences(before, after)
		s.tasks = after
		return true
	})
}

// UpdateFields применяет патч общих полей задачи.
func (s *Store) UpdateFields(localID string, patch FieldsPatch) error {
	return s.Update(localID, patch, nil)
}

// UpdateConfig применяет патч конфигурации задачи.
// Патч другого варианта возвращает ErrConfigMismatch.
func (s *Store) UpdateConfig(localID string, patch ConfigPatch) error {
	return s.Update(localID, FieldsPatch{}, patch)
}

// Update применяет патч полей и патч конфигурации одним изменением.
//
// Патч другого варианта возвращает ErrConfigMismatch, и задача
// остаётся нетронутой. Неизвестный localId — no-op.
func (s *Store) Update(localID string, fields FieldsPatch, patch ConfigPatch) error {
	var mismatch bool
	err := s.mutate(func() bool {
		idx := s.indexOf(localID)
		if idx < 0 {
			return false
		}
		task := &s.tasks[idx]
		if patch != nil && patch.taskType() != task.Type {
			mismatch = true
			return false
		}

		changed := false
		if fields.Name != nil {
			task.Name = *fields.Name
			changed = true
		}
		if patch != nil {
			patch.apply(task)
			changed = true
		}
		return changed
	})
	if err != nil {
		return err
	}
	if mismatch {
		return ErrConfigMismatch
	}
	return nil
}

// InsertReference дописывает в тело email задачи плейсхолдер
// на API задачу с позицией refPosition.
//
// Допустимы только API задачи со строго меньшей позицией.
func (s *Store) InsertReference(localID string, refPosition int) error {
	var failure error
	err := s.mutate(func() bool {
		idx := s.indexOf(localID)
		if idx < 0 {
			return false
		}
		task := &s.tasks[idx]
		if task.Type != domain.TaskTypeEmail || task.Email == nil {
			failure = engine.ErrNotEmailTask
			return false
		}
		if !engine.IsEligible(s.tasks, idx, refPosition) {
			failure = engine.ErrIneligibleReference
			return false
		}
		task.Email.Body = engine.InsertReference(task.Email.Body, refPosition)
		return true
	})
	if err != nil {
		return err
	}
	return failure
}

// Replace заменяет весь список (восстановление черновика).
// onChange не вызывается.
func (s *Store) Replace(tasks []domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writableLocked(); err != nil {
		return err
	}
	s.tasks = domain.CloneTasks(tasks)
	return nil
}

// mutate выполняет изменение под мьютексом.
//
// fn возвращает true, если список изменился; тогда onChange получает снимок.
// Снимки передаются в onChange в порядке изменений: если более новый
// снимок уже передан, старый пропускается.
func (s *Store) mutate(fn func() bool) error {
	s.mu.Lock()
	if err := s.writableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	changed := fn()
	if !changed || s.onChange == nil {
		s.mu.Unlock()
		return nil
	}
	s.version++
	version := s.version
	snapshot := domain.CloneTasks(s.tasks)
	onChange := s.onChange
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.notified {
		return nil
	}
	s.notified = version
	onChange(snapshot)
	return nil
}

// writableLocked проверяет, можно ли менять список. Вызывается под мьютексом.
func (s *Store) writableLocked() error {
	switch {
	case s.saved:
		return ErrReadOnly
	case s.committing:
		return ErrCommitting
	}
	return nil
}

// indexOf возвращает позицию задачи или -1. Вызывается под мьютексом.
func (s *Store) indexOf(localID string) int {
	for i := range s.tasks {
		if s.tasks[i].LocalID == localID {
			return i
		}
	}
	return -1
}

// DefaultConfig возвращает конфигурацию, которую получит новая задача:
// значения по умолчанию для типа, поверх которых наложен cfg.
// cfg не изменяется.
func DefaultConfig(taskType domain.TaskType, cfg domain.Config) (domain.Config, error) {
	if !taskType.IsValid() {
		return nil, ErrUnknownType
	}
	if cfg != nil && domain.ConfigType(cfg) != taskType {
		return nil, ErrConfigMismatch
	}

	if taskType == domain.TaskTypeAPI {
		out := defaultAPIConfig()
		if c, ok := cfg.(*domain.APIConfig); ok && c != nil {
			overlayAPI(out, c)
		}
		return out, nil
	}

	out := &domain.EmailConfig{}
	if c, ok := cfg.(*domain.EmailConfig); ok && c != nil {
		*out = *c
	}
	return out, nil
}

func defaultAPIConfig() *domain.APIConfig {
	return &domain.APIConfig{
		Method:       domain.MethodGet,
		OutputSchema: "{}",
	}
}

// overlayAPI копирует непустые значения src поверх dst.
func overlayAPI(dst, src *domain.APIConfig) {
	if src.URL != "" {
		dst.URL = src.URL
	}
	if src.Method != "" {
		dst.Method = src.Method
	}
	if src.Token != "" {
		dst.Token = src.Token
	}
	if src.OutputSchema != "" {
		dst.OutputSchema = src.OutputSchema
	}
	if src.RequestBody != "" {
		dst.RequestBody = src.RequestBody
	}
}
