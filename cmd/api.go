package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/psds-microservice/support-chat/internal/application"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the HTTP server (chat page, operator console, JSON API)",
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := application.NewAPI(ctx, cfg)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
