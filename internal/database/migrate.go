package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/psds-microservice/support-chat/internal/config"
	"github.com/psds-microservice/support-chat/internal/logger"
	"gorm.io/gorm"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

func gooseDialect(driver string) (dialect, dir string, err error) {
	switch driver {
	case config.DriverPostgres:
		return "postgres", "migrations/postgres", nil
	case config.DriverSQLite:
		return "sqlite3", "migrations/sqlite", nil
	}
	return "", "", fmt.Errorf("no migrations for driver %q", driver)
}

// EnsureDatabase создаёт базу Postgres, если её ещё нет. Для sqlite ничего не делает.
func EnsureDatabase(cfg *config.Config) error {
	if cfg.DB.Driver != config.DriverPostgres {
		return nil
	}
	u, err := url.Parse(cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return fmt.Errorf("database name is empty in url")
	}
	u.Path = "/postgres"
	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping admin connection: %w", err)
	}
	var exists bool
	if err := db.QueryRow("SELECT true FROM pg_database WHERE datname = $1", dbName).Scan(&exists); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return nil
	}
	if _, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	logger.WithComponent("database").Info("database created", "name", dbName)
	return nil
}

// MigrateUp применяет встроенные миграции для драйвера соединения.
func MigrateUp(ctx context.Context, db *gorm.DB, driver string) error {
	sqlDB, dir, err := prepareGoose(db, driver)
	if err != nil {
		return err
	}
	before, _ := goose.GetDBVersionContext(ctx, sqlDB)
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	after, _ := goose.GetDBVersionContext(ctx, sqlDB)
	log := logger.WithComponent("database")
	if before == after {
		log.Info("migrate: no pending migrations", "version", after)
	} else {
		log.Info("migrate: up ok", "from", before, "to", after)
	}
	return nil
}

func MigrateStatus(ctx context.Context, db *gorm.DB, driver string) error {
	sqlDB, dir, err := prepareGoose(db, driver)
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, sqlDB, dir)
}

func prepareGoose(db *gorm.DB, driver string) (*sql.DB, string, error) {
	dialect, dir, err := gooseDialect(driver)
	if err != nil {
		return nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, "", fmt.Errorf("underlying sql.DB: %w", err)
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: logger.WithComponent("goose")})
	if err := goose.SetDialect(dialect); err != nil {
		return nil, "", fmt.Errorf("goose dialect: %w", err)
	}
	return sqlDB, dir, nil
}

type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
