package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"taskhub/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate накатывает встроенные миграции через golang-migrate
func (s *Storage) Migrate() error {
	logger.Info("Repository: Применение миграций")

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		logger.Error("Repository: Ошибка чтения миграций", err)
		return fmt.Errorf("чтение миграций: %w", err)
	}

	db, err := sql.Open("pgx", s.connString)
	if err != nil {
		logger.Error("Repository: Ошибка подключения для миграций", err)
		return fmt.Errorf("подключение для миграций: %w", err)
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		logger.Error("Repository: Ошибка драйвера миграций", err)
		return fmt.Errorf("драйвер миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		logger.Error("Repository: Ошибка инициализации миграций", err)
		return fmt.Errorf("инициализация миграций: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка применения миграций", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}
