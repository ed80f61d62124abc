package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	Completed   bool       `json:"completed" db:"completed"`
	Owner       string     `json:"owner" db:"owner"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// ToDate нормализует время к календарной дате: полночь UTC того дня,
// который показывают часы в зоне t. Дедлайны приходят с провода как
// полночь UTC, поэтому все сравнения дат сводятся к одной зоне.
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsOverdue - задача просрочена: не выполнена, дедлайн задан и уже прошёл
func (t *Task) IsOverdue(today time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return ToDate(*t.DueDate).Before(ToDate(today))
}
