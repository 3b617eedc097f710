package cmd

import (
	"fmt"
	"os"

	"github.com/psds-microservice/support-chat/internal/config"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "support-chat",
	Short:         "Support chat: FAQ answers, operator tickets",
	RunE:          runAPI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(replayEventsCmd)
	rootCmd.AddCommand(chatCmd)
}

// loadConfig читает .env и окружение и настраивает логгер.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return cfg, nil
}
