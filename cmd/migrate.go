package cmd

import (
	"context"
	"fmt"

	"github.com/psds-microservice/support-chat/internal/config"
	"github.com/psds-microservice/support-chat/internal/database"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print applied and pending migrations",
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// openDB открывает БД из конфига; для Postgres создаёт базу, если её нет.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	if err := database.EnsureDatabase(cfg); err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}
	db, err := database.Open(cfg.DB.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	return db, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.MigrateUp(context.Background(), db, cfg.DB.Driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Get().Info("migrate up: ok")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	return database.MigrateStatus(context.Background(), db, cfg.DB.Driver)
}
