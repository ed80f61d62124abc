package stats_test

import (
	"testing"
	"time"

	"taskhub/internal/models/task"
	"taskhub/internal/stats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var today = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time {
	d := task.ToDate(t)
	return &d
}

func newTask(completed bool, due *time.Time) *task.Task {
	return &task.Task{
		ID:        uuid.New(),
		Title:     "task",
		Completed: completed,
		DueDate:   due,
		Owner:     "u1",
		CreatedAt: today,
	}
}

func TestAggregate(t *testing.T) {
	tasks := []*task.Task{
		newTask(true, datePtr(today.AddDate(0, 0, -2))),  // выполнена, не просрочена
		newTask(false, datePtr(today.AddDate(0, 0, -1))), // просрочена
		newTask(false, datePtr(today)),                   // сегодня, в неделе
		newTask(false, datePtr(today.AddDate(0, 0, 7))),  // граница недели
		newTask(false, datePtr(today.AddDate(0, 0, 8))),  // вне недели
		newTask(false, nil),                              // без дедлайна - никогда не просрочена
	}

	got := stats.Aggregate(tasks, today)

	assert.Equal(t, 6, got.Total)
	assert.Equal(t, 1, got.Completed)
	assert.Equal(t, 5, got.Pending)
	assert.Equal(t, 1, got.Overdue)
	assert.Equal(t, 1, got.DueToday)
	assert.Equal(t, 2, got.DueThisWeek)
}

func TestAggregate_Empty(t *testing.T) {
	got := stats.Aggregate(nil, today)
	assert.Equal(t, stats.Stats{}, got)
}

// инвариант: total == completed + pending на любом наборе
func TestAggregate_TotalInvariant(t *testing.T) {
	sets := [][]*task.Task{
		nil,
		{newTask(true, nil)},
		{newTask(true, datePtr(today)), newTask(false, nil), newTask(false, datePtr(today.AddDate(0, 0, -5)))},
		{newTask(false, nil), newTask(false, nil), newTask(false, nil)},
	}

	for _, set := range sets {
		got := stats.Aggregate(set, today)
		assert.Equal(t, got.Total, got.Completed+got.Pending)
	}
}

func TestAggregate_CompletedNeverOverdue(t *testing.T) {
	tasks := []*task.Task{
		newTask(true, datePtr(today.AddDate(0, 0, -10))),
	}

	got := stats.Aggregate(tasks, today)
	assert.Equal(t, 0, got.Overdue)
}

// счётчики не зависят от зоны серверных часов: дедлайны хранятся
// полночью UTC, а "сегодня" может прийти из любой зоны
func TestAggregate_NonUTCClock(t *testing.T) {
	tasks := []*task.Task{
		newTask(false, datePtr(today)),                  // сегодня
		newTask(false, datePtr(today.AddDate(0, 0, 3))), // в неделе
	}

	localNow := time.Date(2026, 9, 1, 10, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))
	got := stats.Aggregate(tasks, localNow)

	assert.Equal(t, 1, got.DueToday)
	assert.Equal(t, 2, got.DueThisWeek)
	assert.Equal(t, 0, got.Overdue)
}

// due_this_week считает и выполненные задачи, просрочка - только невыполненные
func TestAggregate_DueCountsIgnoreCompletion(t *testing.T) {
	tasks := []*task.Task{
		newTask(true, datePtr(today)),
		newTask(false, datePtr(today)),
	}

	got := stats.Aggregate(tasks, today)
	assert.Equal(t, 2, got.DueToday)
	assert.Equal(t, 2, got.DueThisWeek)
	assert.Equal(t, 0, got.Overdue)
}
