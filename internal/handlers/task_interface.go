package handlers

import (
	"context"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/models/task"
	"taskhub/internal/query"
	"taskhub/internal/stats"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(context.Context) error
	ListTasks(context.Context, auth.User, query.Params) (query.Page, stats.Stats, error)
	GetStats(context.Context, auth.User) (stats.Stats, error)
	GetTaskByID(context.Context, auth.User, uuid.UUID) (*task.Task, error)
	CreateTask(context.Context, auth.User, string, string, *time.Time, bool) (*task.Task, error)
	UpdateTask(context.Context, auth.User, uuid.UUID, ...task.TaskOption) (*task.Task, error)
	DeleteTask(context.Context, auth.User, uuid.UUID) error
	ToggleTask(context.Context, auth.User, uuid.UUID) (*task.Task, error)
}
