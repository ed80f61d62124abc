package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskhub/internal/logger"
	"taskhub/internal/models/task"
	repo "taskhub/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool       *pgxpool.Pool
	connString string
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, connString: connString}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(id, title, description, due_date, completed, owner, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, NOW())
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.ID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.DueDate,
		taskToCreate.Completed,
		taskToCreate.Owner,
	).Scan(&taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				due_date = $3,
				completed = $4,
				updated_at = NOW()
			WHERE id = $5
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.DueDate,
		taskToUpdate.Completed,
		taskToUpdate.ID,
	).Scan(&taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT
				id,
				title,
				description,
				due_date,
				completed,
				owner,
				created_at,
				updated_at
				FROM tasks
				WHERE id = $1`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Completed,
		&t.Owner,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

// удаление окончательное, строка исчезает из БД
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	query := `DELETE FROM tasks WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// ToggleCompleted - один атомарный UPDATE: чтение старого значения
// и запись нового не могут разорваться между запросами.
// defaultDue подставляется, когда задача становится выполненной без дедлайна.
func (s *Storage) ToggleCompleted(ctx context.Context, id uuid.UUID, defaultDue time.Time) (*task.Task, error) {
	start := time.Now()

	query := `UPDATE tasks
			SET completed = NOT completed,
				due_date = CASE
					WHEN NOT completed AND due_date IS NULL THEN $2::date
					ELSE due_date
				END,
				updated_at = NOW()
			WHERE id = $1
			RETURNING id, title, description, due_date, completed, owner, created_at, updated_at`

	t := &task.Task{}
	err := s.pool.QueryRow(ctx, query, id, task.ToDate(defaultDue)).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Completed,
		&t.Owner,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось переключить статус", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("переключение статуса: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

// все задачи в порядке создания - базовый порядок для стабильной сортировки
func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	return s.list(ctx, `SELECT
				id,
				title,
				description,
				due_date,
				completed,
				owner,
				created_at,
				updated_at
				FROM tasks
				ORDER BY created_at, id`)
}

func (s *Storage) GetByOwner(ctx context.Context, owner string) ([]*task.Task, error) {
	return s.list(ctx, `SELECT
				id,
				title,
				description,
				due_date,
				completed,
				owner,
				created_at,
				updated_at
				FROM tasks
				WHERE owner = $1
				ORDER BY created_at, id`, owner)
}

func (s *Storage) list(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t := &task.Task{}

		err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.DueDate,
			&t.Completed,
			&t.Owner,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

func (s *Storage) TitleExists(ctx context.Context, title string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tasks WHERE LOWER(title) = LOWER($1))`

	var exists bool
	err := s.pool.QueryRow(ctx, query, title).Scan(&exists)
	if err != nil {
		logger.Error("Repository: Проверка уникальности заголовка", err)
		return false, fmt.Errorf("проверка заголовка: %w", err)
	}
	return exists, nil
}
