package service

import (
	"context"
	"time"

	"taskhub/internal/models/task"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Delete(context.Context, uuid.UUID) error
	ToggleCompleted(context.Context, uuid.UUID, time.Time) (*task.Task, error)
	GetAll(context.Context) ([]*task.Task, error)
	GetByOwner(context.Context, string) ([]*task.Task, error)
	TitleExists(context.Context, string) (bool, error)
	HealthCheck(context.Context) error
}
