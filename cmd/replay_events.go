package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psds-microservice/support-chat/internal/database"
	"github.com/psds-microservice/support-chat/internal/kafka"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/service"
	"github.com/spf13/cobra"
)

var replayStatus string

var replayEventsCmd = &cobra.Command{
	Use:   "replay-events",
	Short: "Re-send ticket events to Kafka for every stored ticket",
	RunE:  runReplayEvents,
}

func init() {
	replayEventsCmd.Flags().StringVar(&replayStatus, "status", model.StatusAll, "ticket status filter (open|closed|all)")
}

func runReplayEvents(cmd *cobra.Command, args []string) error {
	status, err := model.ParseStatusFilter(replayStatus)
	if err != nil {
		return fmt.Errorf("--status: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithComponent("replay-events")

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	if !producer.Enabled() {
		return errors.New("KAFKA_BROKERS and KAFKA_TOPIC_TICKET must be set")
	}
	defer producer.Close()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	tickets, err := service.NewTicketService(db, nil).List(ctx, status)
	if err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	log.Info("tickets found", "count", len(tickets))

	sent := 0
	// от старых к новым, как события происходили
	for i := len(tickets) - 1; i >= 0; i-- {
		t := &tickets[i]
		producer.ProduceTicketEvent(ctx, kafka.EventTicketCreated, t)
		sent++
		if t.Status == model.TicketStatusClosed {
			producer.ProduceTicketEvent(ctx, kafka.EventTicketClosed, t)
			sent++
		}
		if done := len(tickets) - i; done%50 == 0 || i == 0 {
			log.Info("progress", "tickets", done, "of", len(tickets))
		}
	}
	log.Info("done", "events", sent, "topic", cfg.KafkaTopicTicket)
	return nil
}
