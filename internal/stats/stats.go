package stats

import (
	"time"

	"taskhub/internal/models/task"
)

// Stats - счётчики по всему видимому набору задач.
// Текущие фильтры/поиск на них не влияют.
type Stats struct {
	Total       int `json:"total"`
	Completed   int `json:"completed"`
	Pending     int `json:"pending"`
	Overdue     int `json:"overdue"`
	DueToday    int `json:"due_today"`
	DueThisWeek int `json:"due_this_week"`
}

func Aggregate(tasks []*task.Task, today time.Time) Stats {
	today = task.ToDate(today)
	weekEnd := today.AddDate(0, 0, 7)

	var s Stats
	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if t.IsOverdue(today) {
			s.Overdue++
		}
		if t.DueDate == nil {
			continue
		}
		d := task.ToDate(*t.DueDate)
		if d.Equal(today) {
			s.DueToday++
		}
		if !d.Before(today) && !d.After(weekEnd) {
			s.DueThisWeek++
		}
	}
	return s
}
