package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/handlers"
	"taskhub/internal/logger"
	"taskhub/internal/middleware"
	"taskhub/internal/models/task"
	"taskhub/internal/query"
	"taskhub/internal/service"
	"taskhub/internal/stats"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(false)
	m.Run()
}

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) ListTasks(ctx context.Context, user auth.User, params query.Params) (query.Page, stats.Stats, error) {
	args := m.Called(ctx, user, params)
	return args.Get(0).(query.Page), args.Get(1).(stats.Stats), args.Error(2)
}

func (m *MockTaskService) GetStats(ctx context.Context, user auth.User) (stats.Stats, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(stats.Stats), args.Error(1)
}

func (m *MockTaskService) GetTaskByID(ctx context.Context, user auth.User, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) CreateTask(ctx context.Context, user auth.User, title, description string, dueDate *time.Time, completed bool) (*task.Task, error) {
	args := m.Called(ctx, user, title, description, dueDate, completed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, user auth.User, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, user, id, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, user auth.User, id uuid.UUID) error {
	args := m.Called(ctx, user, id)
	return args.Error(0)
}

func (m *MockTaskService) ToggleTask(ctx context.Context, user auth.User, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

func newRouter(svc *MockTaskService) *chi.Mux {
	h := handlers.NewTaskHandler(svc)

	r := chi.NewRouter()
	r.Route("/tasks", func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Get("/", h.ListTasks)
		r.Post("/", h.PostTask)
		r.Get("/stats", h.GetStats)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)
			r.Put("/", h.UpdateTaskByID)
			r.Delete("/", h.DeleteTaskByID)
			r.Post("/toggle", h.ToggleTask)
		})
	})
	r.Get("/health", h.HealthCheck)
	return r
}

func doRequest(router http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var asOwner = map[string]string{
	"X-User-ID":    "u1",
	"Content-Type": "application/json",
}

var asReader = map[string]string{
	"X-User-ID":    "u2",
	"X-User-Roles": "reader",
	"Content-Type": "application/json",
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestIdentity_MissingUser(t *testing.T) {
	svc := new(MockTaskService)
	router := newRouter(svc)

	rec := doRequest(router, http.MethodGet, "/tasks", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "unauthorized", body["error"])
	svc.AssertNotCalled(t, "ListTasks")
}

func TestListTasks(t *testing.T) {
	taskID := uuid.New()
	page := query.Page{
		Items:       []*task.Task{{ID: taskID, Title: "Buy milk", Owner: "u1", CreatedAt: time.Now()}},
		CurrentPage: 1,
		TotalPages:  1,
		TotalItems:  1,
		HasPrev:     false,
		HasNext:     false,
	}
	aggregated := stats.Stats{Total: 1, Pending: 1}

	svc := new(MockTaskService)
	expectedParams := query.Params{
		Search: "milk",
		Status: query.StatusPending,
		Due:    query.DueAll,
		Sort:   query.SortTitle,
		Order:  query.SortAsc,
		Page:   2,
	}
	expectedUser := auth.User{ID: "u2", Role: auth.RoleReader}
	svc.On("ListTasks", mock.Anything, expectedUser, expectedParams).Return(page, aggregated, nil)

	router := newRouter(svc)
	rec := doRequest(router, http.MethodGet, "/tasks?search=milk&status=pending&sort=title&order=asc&page=2", nil, asReader)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].(map[string]any)["title"])

	statsBody := body["stats"].(map[string]any)
	assert.EqualValues(t, 1, statsBody["total"])

	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pagination["current_page"])
	svc.AssertExpectations(t)
}

func TestPostTask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		due := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
		created := &task.Task{ID: uuid.New(), Title: "Buy milk", Owner: "u1", DueDate: &due, CreatedAt: time.Now()}

		svc := new(MockTaskService)
		svc.On("CreateTask", mock.Anything, auth.User{ID: "u1"}, "Buy milk", "2 liters", mock.AnythingOfType("*time.Time"), false).Return(created, nil)

		router := newRouter(svc)
		payload := []byte(`{"title":"Buy milk","description":"2 liters","due_date":"2026-10-15"}`)
		rec := doRequest(router, http.MethodPost, "/tasks", payload, asOwner)

		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		taskBody := body["task"].(map[string]any)
		assert.Equal(t, "Buy milk", taskBody["title"])
		assert.Equal(t, "2026-10-15", taskBody["due_date"])
		svc.AssertExpectations(t)
	})

	t.Run("wrong content type", func(t *testing.T) {
		svc := new(MockTaskService)
		router := newRouter(svc)

		rec := doRequest(router, http.MethodPost, "/tasks", []byte(`{}`), map[string]string{
			"X-User-ID":    "u1",
			"Content-Type": "text/plain",
		})

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		svc.AssertNotCalled(t, "CreateTask")
	})

	t.Run("malformed json", func(t *testing.T) {
		svc := new(MockTaskService)
		router := newRouter(svc)

		rec := doRequest(router, http.MethodPost, "/tasks", []byte(`{broken`), asOwner)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "CreateTask")
	})

	t.Run("bad date format", func(t *testing.T) {
		svc := new(MockTaskService)
		router := newRouter(svc)

		rec := doRequest(router, http.MethodPost, "/tasks", []byte(`{"title":"Buy milk","due_date":"15.10.2026"}`), asOwner)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "CreateTask")
	})

	// сценарий: создание с дедлайном вчера отклоняется валидацией
	t.Run("validation error maps to 400", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("CreateTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.NewValidationError("due_date", "дедлайн не может быть в прошлом"))

		router := newRouter(svc)
		rec := doRequest(router, http.MethodPost, "/tasks", []byte(`{"title":"Buy milk","due_date":"2020-01-01"}`), asOwner)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", body["error"])
		details := body["details"].(map[string]any)
		assert.Equal(t, "due_date", details["field"])
	})
}

func TestGetTaskByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		taskID := uuid.New()
		found := &task.Task{ID: taskID, Title: "Buy milk", Owner: "u1", CreatedAt: time.Now()}

		svc := new(MockTaskService)
		svc.On("GetTaskByID", mock.Anything, auth.User{ID: "u1"}, taskID).Return(found, nil)

		router := newRouter(svc)
		rec := doRequest(router, http.MethodGet, "/tasks/"+taskID.String(), nil, asOwner)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Buy milk", body["task"].(map[string]any)["title"])
	})

	t.Run("bad uuid", func(t *testing.T) {
		svc := new(MockTaskService)
		router := newRouter(svc)

		rec := doRequest(router, http.MethodGet, "/tasks/not-a-uuid", nil, asOwner)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "GetTaskByID")
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		taskID := uuid.New()
		svc := new(MockTaskService)
		svc.On("GetTaskByID", mock.Anything, mock.Anything, taskID).Return(nil, service.NewNotFound(taskID.String()))

		router := newRouter(svc)
		rec := doRequest(router, http.MethodGet, "/tasks/"+taskID.String(), nil, asOwner)

		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "NOT_FOUND", body["error"])
	})
}

func TestUpdateTaskByID(t *testing.T) {
	taskID := uuid.New()

	t.Run("success", func(t *testing.T) {
		updated := &task.Task{ID: taskID, Title: "New title", Owner: "u1", CreatedAt: time.Now()}

		svc := new(MockTaskService)
		svc.On("UpdateTask", mock.Anything, auth.User{ID: "u1"}, taskID, mock.Anything).Return(updated, nil)

		router := newRouter(svc)
		rec := doRequest(router, http.MethodPut, "/tasks/"+taskID.String(), []byte(`{"title":"New title"}`), asOwner)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "New title", body["task"].(map[string]any)["title"])
		svc.AssertExpectations(t)
	})

	t.Run("permission denied maps to 403", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("UpdateTask", mock.Anything, mock.Anything, taskID, mock.Anything).
			Return(nil, service.NewPermissionDenied("update"))

		router := newRouter(svc)
		rec := doRequest(router, http.MethodPut, "/tasks/"+taskID.String(), []byte(`{"title":"New title"}`), asReader)

		require.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "PERMISSION_DENIED", body["error"])
	})
}

func TestDeleteTaskByID(t *testing.T) {
	taskID := uuid.New()

	t.Run("success - 204 without body", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("DeleteTask", mock.Anything, auth.User{ID: "u1"}, taskID).Return(nil)

		router := newRouter(svc)
		rec := doRequest(router, http.MethodDelete, "/tasks/"+taskID.String(), nil, asOwner)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, strings.TrimSpace(rec.Body.String()))
		svc.AssertExpectations(t)
	})

	t.Run("permission denied maps to 403", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("DeleteTask", mock.Anything, mock.Anything, taskID).Return(service.NewPermissionDenied("delete"))

		router := newRouter(svc)
		rec := doRequest(router, http.MethodDelete, "/tasks/"+taskID.String(), nil, asReader)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestToggleTask(t *testing.T) {
	taskID := uuid.New()
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	toggled := &task.Task{ID: taskID, Title: "Buy milk", Owner: "u1", Completed: true, DueDate: &due, CreatedAt: time.Now()}

	svc := new(MockTaskService)
	svc.On("ToggleTask", mock.Anything, auth.User{ID: "u1"}, taskID).Return(toggled, nil)

	router := newRouter(svc)
	rec := doRequest(router, http.MethodPost, "/tasks/"+taskID.String()+"/toggle", nil, asOwner)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["task"].(map[string]any)["completed"])
	svc.AssertExpectations(t)
}

func TestGetStats(t *testing.T) {
	svc := new(MockTaskService)
	svc.On("GetStats", mock.Anything, auth.User{ID: "u1"}).
		Return(stats.Stats{Total: 5, Completed: 2, Pending: 3, Overdue: 1, DueToday: 1, DueThisWeek: 2}, nil)

	router := newRouter(svc)
	rec := doRequest(router, http.MethodGet, "/tasks/stats", nil, asOwner)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	statsBody := body["stats"].(map[string]any)
	assert.EqualValues(t, 5, statsBody["total"])
	assert.EqualValues(t, 2, statsBody["completed"])
	assert.EqualValues(t, 3, statsBody["pending"])
	assert.EqualValues(t, 1, statsBody["overdue"])
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("HealthCheck", mock.Anything).Return(nil)

		router := newRouter(svc)
		rec := doRequest(router, http.MethodGet, "/health", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unhealthy", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("HealthCheck", mock.Anything).Return(assert.AnError)

		router := newRouter(svc)
		rec := doRequest(router, http.MethodGet, "/health", nil, nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
