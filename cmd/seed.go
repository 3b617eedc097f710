package cmd

import (
	"context"
	"fmt"

	"github.com/psds-microservice/support-chat/internal/database"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/seed"
	"github.com/psds-microservice/support-chat/internal/service"
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load starter FAQ entries into an empty knowledge base",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file with FAQ entries (default: built-in set)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	items, err := seed.Load(seedFile)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx := context.Background()
	if err := database.MigrateUp(ctx, db, cfg.DB.Driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	n, err := seed.IfEmpty(ctx, service.NewFAQService(db), items)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Get().Info("seed: faq table is not empty, nothing to do")
	}
	return nil
}
