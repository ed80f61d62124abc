package inmemory

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"

	"github.com/google/uuid"
)

// ids хранит порядок вставки - базовый порядок для стабильной сортировки
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	s.storage[taskToCreate.ID] = taskToCreate
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.ID]; !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	s.storage[taskToUpdate.ID] = taskToUpdate
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet, nil
}

// удаление окончательное, никаких флагов
func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// ToggleCompleted - чтение и запись флага под одной блокировкой,
// два конкурентных запроса не могут разорвать read-modify-write.
// defaultDue подставляется, если задача стала выполненной без дедлайна.
func (s *TaskStorage) ToggleCompleted(ctx context.Context, id uuid.UUID, defaultDue time.Time) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToToggle, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	taskToToggle.Completed = !taskToToggle.Completed
	if taskToToggle.Completed && taskToToggle.DueDate == nil {
		due := task.ToDate(defaultDue)
		taskToToggle.DueDate = &due
	}

	now := time.Now()
	taskToToggle.UpdatedAt = &now
	return taskToToggle, nil
}

func (s *TaskStorage) GetAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.storage[id])
	}
	return res, nil
}

func (s *TaskStorage) GetByOwner(ctx context.Context, owner string) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		if s.storage[id].Owner == owner {
			res = append(res, s.storage[id])
		}
	}
	return res, nil
}

func (s *TaskStorage) TitleExists(ctx context.Context, title string) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, t := range s.storage {
		if strings.EqualFold(t.Title, title) {
			return true, nil
		}
	}
	return false, nil
}
