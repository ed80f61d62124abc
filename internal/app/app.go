package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/logger"
	"taskhub/internal/middleware"
	"taskhub/internal/repository/task/inmemory"
	"taskhub/internal/repository/task/postgres"
	"taskhub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	service   service.TaskService
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repo, err := a.initRepository(ctx)
	if err != nil {
		return fmt.Errorf("инициализация репозитория: %w", err)
	}

	a.service = service.NewTaskService(repo, a.config.Pagination.PageSize)

	taskHandler := handlers.NewTaskHandler(&a.service)
	a.router = a.initRouter(&taskHandler)

	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router,
	}

	return nil
}

func (a *App) initRepository(ctx context.Context) (service.TaskRepository, error) {
	switch a.config.Repository.Type {
	case "postgres":
		storage, err := postgres.New(ctx, a.config.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(); err != nil {
			return nil, err
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		return storage, nil
	default:
		logger.Info("App: Используется inmemory репозиторий")
		return inmemory.NewTaskStorage(), nil
	}
}

func (a *App) initRouter(taskHandler *handlers.TaskHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID", "X-User-ID", "X-User-Roles", "X-Superuser"},
	}))
	r.Use(middleware.RateLimit(100))

	r.Route("/tasks", func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Get("/", taskHandler.ListTasks)  // GET /tasks
		r.Post("/", taskHandler.PostTask)  // POST /tasks
		r.Get("/stats", taskHandler.GetStats) // GET /tasks/stats

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTaskByID)       // GET /tasks/{id}
			r.Put("/", taskHandler.UpdateTaskByID)    // PUT /tasks/{id}
			r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /tasks/{id}

			r.Post("/toggle", taskHandler.ToggleTask) // POST /tasks/{id}/toggle
		})
	})

	r.Get("/health", taskHandler.HealthCheck)

	return r
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("App: Сервер запущен на " + a.config.GetServerAddr())
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("сервер: %w", err)
	case <-ctx.Done():
		logger.Info("App: Получен сигнал завершения")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: Ошибка остановки сервера", err)
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return nil
}
