package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"taskhub/internal/auth"
	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	"taskhub/internal/query"
	rep "taskhub/internal/repository"
	"taskhub/internal/stats"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка бизнес-правил: валидация, права, видимость

const titleMinLen = 3
const titleMaxLen = 200
const dueHorizonYears = 2

type TaskService struct {
	repo     TaskRepository
	pageSize int
}

func NewTaskService(repo TaskRepository, pageSize int) TaskService {
	if pageSize < 1 {
		pageSize = query.DefaultPageSize
	}
	return TaskService{
		repo:     repo,
		pageSize: pageSize,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// видимый набор: все задачи либо только свои - решает классификатор прав
func (s *TaskService) visibleTasks(ctx context.Context, user auth.User, caps auth.Capabilities) ([]*task.Task, error) {
	if caps.CanViewAll {
		return s.repo.GetAll(ctx)
	}
	return s.repo.GetByOwner(ctx, user.ID)
}

// задача вне видимого набора выглядит как отсутствующая,
// существование чужих задач не раскрывается
func (s *TaskService) visibleByID(ctx context.Context, user auth.User, caps auth.Capabilities, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if !caps.CanViewAll && t.Owner != user.ID {
		logger.Info("Service: Задача вне видимости пользователя",
			zap.String("target_id", id.String()),
			zap.String("user_id", user.ID))
		return nil, NewNotFound(id.String())
	}
	return t, nil
}

// ListTasks: права -> видимый набор -> статистика по всему набору ->
// фильтры и сортировка -> страница. Статистика не зависит от фильтров.
func (s *TaskService) ListTasks(ctx context.Context, user auth.User, params query.Params) (query.Page, stats.Stats, error) {
	caps := auth.Classify(user)

	visible, err := s.visibleTasks(ctx, user, caps)
	if err != nil {
		return query.Page{}, stats.Stats{}, fmt.Errorf("получение задач: %w", err)
	}

	today := task.ToDate(time.Now())
	aggregated := stats.Aggregate(visible, today)
	filtered := query.Build(visible, params, today)
	page := query.Paginate(filtered, s.pageSize, params.Page)

	return page, aggregated, nil
}

func (s *TaskService) GetStats(ctx context.Context, user auth.User) (stats.Stats, error) {
	caps := auth.Classify(user)

	visible, err := s.visibleTasks(ctx, user, caps)
	if err != nil {
		return stats.Stats{}, fmt.Errorf("получение задач: %w", err)
	}

	return stats.Aggregate(visible, task.ToDate(time.Now())), nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, user auth.User, id uuid.UUID) (*task.Task, error) {
	caps := auth.Classify(user)
	return s.visibleByID(ctx, user, caps, id)
}

func (s *TaskService) CreateTask(ctx context.Context, user auth.User, title, description string, dueDate *time.Time, completed bool) (*task.Task, error) {
	title, bErr := validateTitle(title)
	if bErr != nil {
		return nil, bErr
	}

	exists, err := s.repo.TitleExists(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("проверка заголовка: %w", err)
	}
	if exists {
		return nil, NewValidationError("title", "задача с таким названием уже существует")
	}

	today := task.ToDate(time.Now())
	if bErr := validateDueDate(dueDate, today, false); bErr != nil {
		return nil, bErr
	}

	// выполненная задача без дедлайна получает сегодняшнюю дату
	if completed && dueDate == nil {
		dueDate = &today
	}

	t := &task.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Completed:   completed,
		Owner:       user.ID,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", t.ID.String()),
		zap.String("owner", t.Owner))
	return t, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, user auth.User, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	caps := auth.Classify(user)

	existing, err := s.visibleByID(ctx, user, caps, id)
	if err != nil {
		return nil, err
	}

	if !caps.CanEdit && existing.Owner != user.ID {
		return nil, NewPermissionDenied("update")
	}

	// опции применяются к копии, БД не трогаем пока валидация не пройдена
	updated := *existing
	for _, opt := range options {
		opt(&updated)
	}

	title, bErr := validateTitle(updated.Title)
	if bErr != nil {
		return nil, bErr
	}
	updated.Title = title

	// прошедшие даты при обновлении разрешены: задачи можно backdate-ить
	today := task.ToDate(time.Now())
	if bErr := validateDueDate(updated.DueDate, today, true); bErr != nil {
		return nil, bErr
	}

	if updated.Completed && updated.DueDate == nil {
		updated.DueDate = &today
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(id.String())
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	return &updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, user auth.User, id uuid.UUID) error {
	caps := auth.Classify(user)

	existing, err := s.visibleByID(ctx, user, caps, id)
	if err != nil {
		return err
	}

	if !caps.CanDelete && existing.Owner != user.ID {
		return NewPermissionDenied("delete")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена",
		zap.String("task_id", id.String()),
		zap.String("user_id", user.ID))
	return nil
}

func (s *TaskService) ToggleTask(ctx context.Context, user auth.User, id uuid.UUID) (*task.Task, error) {
	caps := auth.Classify(user)

	existing, err := s.visibleByID(ctx, user, caps, id)
	if err != nil {
		return nil, err
	}

	if !caps.CanEdit && existing.Owner != user.ID {
		return nil, NewPermissionDenied("toggle")
	}

	// атомарность обеспечивает репозиторий: флип происходит одной операцией
	toggled, err := s.repo.ToggleCompleted(ctx, id, task.ToDate(time.Now()))
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(id.String())
		}
		return nil, fmt.Errorf("переключение статуса: %w", err)
	}

	return toggled, nil
}

func validateTitle(title string) (string, *BusinessError) {
	title = strings.TrimSpace(title)
	length := utf8.RuneCountInString(title)

	switch {
	case length == 0:
		return "", NewValidationError("title", "название не может быть пустым")
	case length < titleMinLen:
		return "", NewValidationError("title", fmt.Sprintf("название короче %d символов", titleMinLen))
	case length > titleMaxLen:
		return "", NewValidationError("title", fmt.Sprintf("название длиннее %d символов", titleMaxLen))
	}
	return title, nil
}

func validateDueDate(dueDate *time.Time, today time.Time, allowPast bool) *BusinessError {
	if dueDate == nil {
		return nil
	}

	due := task.ToDate(*dueDate)
	if !allowPast && due.Before(today) {
		return NewValidationError("due_date", "дедлайн не может быть в прошлом")
	}
	if due.After(today.AddDate(dueHorizonYears, 0, 0)) {
		return NewValidationError("due_date", fmt.Sprintf("дедлайн дальше %d лет от сегодня", dueHorizonYears))
	}
	return nil
}
