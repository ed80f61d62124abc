package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/handlers/dto"
	"taskhub/internal/logger"
	"taskhub/internal/middleware"
	"taskhub/internal/models/task"
	"taskhub/internal/query"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) currentUser(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		logger.Warn("HTTP: Запрос без идентификации",
			zap.String("path", r.URL.Path),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnauthorized, "требуется аутентификация")
		return auth.User{}, false
	}
	return user, true
}

func (s *TaskHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return uuid.Nil, false
	}

	if id == uuid.Nil {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("error", "nil id"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "id не может быть пустым")
		return uuid.Nil, false
	}
	return id, true
}

// GET /tasks - фильтры, сортировка, страница + статистика по видимому набору
func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	params := query.ParseParams(r.URL.Query())

	page, aggregated, err := s.TaskService.ListTasks(r.Context(), user, params)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	today := task.ToDate(time.Now())

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("items", len(page.Items)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(page.Items, today)),
		toPayload("stats", aggregated),
		toPayload("pagination", dto.PageResponse{
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalItems:  page.TotalItems,
			HasPrev:     page.HasPrev,
			HasNext:     page.HasNext,
		}),
	)
}

// POST /tasks
func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	var dueDate *time.Time
	if request.DueDate != nil && *request.DueDate != "" {
		parsed, err := dto.ParseDate(*request.DueDate)
		if err != nil {
			logger.Warn("HTTP: Ошибка валидации",
				zap.String("field", "due_date"),
				zap.Error(err),
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		dueDate = parsed
	}

	createdTask, err := s.TaskService.CreateTask(r.Context(), user, request.Title, request.Description, dueDate, request.Completed)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_task"),
			zap.Duration("ms", time.Since(start)))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", createdTask.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated,
		toPayload("task", dto.FromTask(createdTask, task.ToDate(time.Now()))))
}

// GET /tasks/{id}
func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	foundTask, err := s.TaskService.GetTaskByID(r.Context(), user, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка в Service", err,
			zap.String("operation", "get_task"))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", foundTask.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("task", dto.FromTask(foundTask, task.ToDate(time.Now()))))
}

// PUT /tasks/{id} - частичное обновление, незаполненные поля не трогаем
func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.UpdateTaskRequest
	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	options := []task.TaskOption{}
	if request.Title != nil {
		options = append(options, task.WithTitle(*request.Title))
	}
	if request.Description != nil {
		options = append(options, task.WithDescription(*request.Description))
	}
	if request.DueDate != nil {
		// пустая строка означает снять дедлайн
		if *request.DueDate == "" {
			options = append(options, task.WithDueDate(nil))
		} else {
			parsed, err := dto.ParseDate(*request.DueDate)
			if err != nil {
				logger.Warn("HTTP: Ошибка валидации",
					zap.String("field", "due_date"),
					zap.Error(err),
					zap.String("client_ip", r.RemoteAddr))
				responseWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			options = append(options, task.WithDueDate(parsed))
		}
	}
	if request.Completed != nil {
		options = append(options, task.WithCompleted(*request.Completed))
	}

	updatedTask, err := s.TaskService.UpdateTask(r.Context(), user, id, options...)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "update_task"))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("task", dto.FromTask(updatedTask, task.ToDate(time.Now()))))
}

// DELETE /tasks/{id} - удаление окончательное
func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), user, id); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_task"))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

// POST /tasks/{id}/toggle - атомарный флип completed
func (s *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	toggledTask, err := s.TaskService.ToggleTask(r.Context(), user, id)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "toggle_task"))
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Статус задачи переключён",
		zap.String("task_id", id.String()),
		zap.Bool("completed", toggledTask.Completed),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("task", dto.FromTask(toggledTask, task.ToDate(time.Now()))))
}

// GET /tasks/stats - счётчики по всему видимому набору
func (s *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	aggregated, err := s.TaskService.GetStats(r.Context(), user)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Статистика получена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("stats", aggregated))
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "unhealthy"))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}
