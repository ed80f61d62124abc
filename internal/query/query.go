package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/models/task"
)

type Status string

const StatusAll Status = "all"
const StatusCompleted Status = "completed"
const StatusPending Status = "pending"
const StatusOverdue Status = "overdue"

type Due string

const DueAll Due = "all"
const DueToday Due = "today"
const DueWeek Due = "week"
const DueMonth Due = "month" // объявлен, но пока no-op

type SortField string

const SortCreatedAt SortField = "created_at"
const SortTitle SortField = "title"
const SortDueDate SortField = "due_date"
const SortCompleted SortField = "completed"

type SortDir string

const SortAsc SortDir = "asc"
const SortDesc SortDir = "desc"

const DefaultPageSize = 10

// Params - конфигурация одного запроса, нигде не сохраняется
type Params struct {
	Search string
	Status Status
	Due    Due
	Sort   SortField
	Order  SortDir
	Page   int
}

// ParseParams читает query string; неизвестные значения молча
// превращаются в разрешающий default, ошибок здесь не бывает
func ParseParams(values url.Values) Params {
	p := Params{
		Search: strings.TrimSpace(values.Get("search")),
		Status: StatusAll,
		Due:    DueAll,
		Sort:   SortCreatedAt,
		Order:  SortDesc,
		Page:   1,
	}

	switch Status(values.Get("status")) {
	case StatusCompleted:
		p.Status = StatusCompleted
	case StatusPending:
		p.Status = StatusPending
	case StatusOverdue:
		p.Status = StatusOverdue
	}

	switch Due(values.Get("due")) {
	case DueToday:
		p.Due = DueToday
	case DueWeek:
		p.Due = DueWeek
	case DueMonth:
		p.Due = DueMonth
	}

	switch SortField(values.Get("sort")) {
	case SortTitle:
		p.Sort = SortTitle
	case SortDueDate:
		p.Sort = SortDueDate
	case SortCompleted:
		p.Sort = SortCompleted
	}

	if values.Get("order") == string(SortAsc) {
		p.Order = SortAsc
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		p.Page = page
	}

	return p
}

// Build применяет этапы в фиксированном порядке:
// поиск -> статус -> дедлайн -> стабильная сортировка.
// Видимый набор уже ограничен правами вызывающей стороной.
func Build(visible []*task.Task, p Params, today time.Time) []*task.Task {
	today = task.ToDate(today)
	result := make([]*task.Task, 0, len(visible))

	search := strings.ToLower(p.Search)
	for _, t := range visible {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if !matchStatus(t, p.Status, today) {
			continue
		}
		if !matchDue(t, p.Due, today) {
			continue
		}
		result = append(result, t)
	}

	sortTasks(result, p.Sort, p.Order)
	return result
}

func matchStatus(t *task.Task, status Status, today time.Time) bool {
	switch status {
	case StatusCompleted:
		return t.Completed
	case StatusPending:
		return !t.Completed
	case StatusOverdue:
		return t.IsOverdue(today)
	default:
		return true
	}
}

func matchDue(t *task.Task, due Due, today time.Time) bool {
	switch due {
	case DueToday:
		return t.DueDate != nil && task.ToDate(*t.DueDate).Equal(today)
	case DueWeek:
		if t.DueDate == nil {
			return false
		}
		d := task.ToDate(*t.DueDate)
		return !d.Before(today) && !d.After(today.AddDate(0, 0, 7))
	default:
		// month объявлен в выборе, но фильтрация не реализована - пропускаем всё
		return true
	}
}

// сортируем стабильно по возрастанию, desc - это точный разворот asc
func sortTasks(tasks []*task.Task, field SortField, dir SortDir) {
	less := lessFunc(field)
	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j])
	})

	if dir != SortAsc {
		for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
			tasks[i], tasks[j] = tasks[j], tasks[i]
		}
	}
}

func lessFunc(field SortField) func(a, b *task.Task) bool {
	switch field {
	case SortTitle:
		return func(a, b *task.Task) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortDueDate:
		// задачи без дедлайна уходят в конец при возрастании
		return func(a, b *task.Task) bool {
			if a.DueDate == nil {
				return false
			}
			if b.DueDate == nil {
				return true
			}
			return a.DueDate.Before(*b.DueDate)
		}
	case SortCompleted:
		return func(a, b *task.Task) bool {
			return !a.Completed && b.Completed
		}
	default:
		// неизвестное поле - fallback на created_at
		return func(a, b *task.Task) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
}

// Page - один срез отсортированной выборки
type Page struct {
	Items       []*task.Task
	CurrentPage int
	TotalPages  int
	TotalItems  int
	HasPrev     bool
	HasNext     bool
}

// Paginate нарезает выборку; номер страницы вне диапазона
// прижимается к ближайшей валидной, а не считается ошибкой
func Paginate(tasks []*task.Task, pageSize, pageNumber int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	totalPages := (len(tasks) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageNumber > totalPages {
		pageNumber = totalPages
	}

	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if start > len(tasks) {
		start = len(tasks)
	}
	if end > len(tasks) {
		end = len(tasks)
	}

	return Page{
		Items:       tasks[start:end],
		CurrentPage: pageNumber,
		TotalPages:  totalPages,
		TotalItems:  len(tasks),
		HasPrev:     pageNumber > 1,
		HasNext:     pageNumber < totalPages,
	}
}
