package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/segmentio/kafka-go"
)

const (
	EventTicketCreated = "ticket.created"
	EventTicketClosed  = "ticket.closed"
)

// TicketEventProducer: интерфейс для отправки событий тикета (для подмены в тестах).
type TicketEventProducer interface {
	ProduceTicketEvent(ctx context.Context, event string, t *model.Ticket)
}

// Producer пишет события тикетов в топик Kafka (best-effort, не блокирует API).
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer создаёт продюсер. Если brokers или topic пустые, методы ничего не делают.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Enabled() bool { return p.writer != nil }

// TicketEvent — тело сообщения в топике.
type TicketEvent struct {
	Event          string    `json:"event"`
	TicketID       uint64    `json:"ticket_id"`
	UserMsg        string    `json:"user_msg"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	OperatorAnswer *string   `json:"operator_answer,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewTicketEvent(event string, t *model.Ticket) TicketEvent {
	return TicketEvent{
		Event:          event,
		TicketID:       t.ID,
		UserMsg:        t.UserMsg,
		Category:       t.Category,
		Status:         string(t.Status),
		OperatorAnswer: t.OperatorAnswer,
		CreatedAt:      t.CreatedAt,
	}
}

func (p *Producer) ProduceTicketEvent(ctx context.Context, event string, t *model.Ticket) {
	if p.writer == nil || t == nil {
		return
	}
	body, err := json.Marshal(NewTicketEvent(event, t))
	if err != nil {
		logger.WithComponent("kafka").Warn("marshal ticket event", "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		logger.WithComponent("kafka").Warn("write ticket event", "event", event, "ticket_id", t.ID, "error", err)
	}
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
