package dto

import (
	"fmt"
	"time"

	"taskhub/internal/models/task"

	"github.com/google/uuid"
)

// дедлайн ходит по проводу календарной датой, без времени
const DateLayout = "2006-01-02"

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date,omitempty"`
	Completed   bool    `json:"completed"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *string    `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	Owner       string     `json:"owner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	IsOverdue   bool       `json:"is_overdue"`
}

type PageResponse struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasPrev     bool `json:"has_prev"`
	HasNext     bool `json:"has_next"`
}

func ParseDate(value string) (*time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("дата должна быть в формате %s: %w", DateLayout, err)
	}
	return &parsed, nil
}

func FromTask(t *task.Task, today time.Time) TaskResponse {
	var due *string
	if t.DueDate != nil {
		formatted := t.DueDate.Format(DateLayout)
		due = &formatted
	}

	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     due,
		Completed:   t.Completed,
		Owner:       t.Owner,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		IsOverdue:   t.IsOverdue(today),
	}
}

func FromTaskList(tasks []*task.Task, today time.Time) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, today)
	}
	return result
}
