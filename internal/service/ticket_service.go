package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/kafka"
	"github.com/psds-microservice/support-chat/internal/model"
	"gorm.io/gorm"
)

// TicketServicer — операции над тикетами для обработчиков и Resolver.
type TicketServicer interface {
	Create(ctx context.Context, userMsg, category string) (*model.Ticket, error)
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	ListOpen(ctx context.Context) ([]model.Ticket, error)
	List(ctx context.Context, status model.TicketStatus) ([]model.Ticket, error)
	Answer(ctx context.Context, id uint64, answer string) (*model.Ticket, error)
}

type TicketService struct {
	db     *gorm.DB
	events kafka.TicketEventProducer
}

// NewTicketService. events может быть nil, тогда события не отправляются.
func NewTicketService(db *gorm.DB, events kafka.TicketEventProducer) *TicketService {
	return &TicketService{db: db, events: events}
}

func (s *TicketService) Create(ctx context.Context, userMsg, category string) (*model.Ticket, error) {
	t := &model.Ticket{
		UserMsg:  userMsg,
		Category: category,
		Status:   model.TicketStatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	s.emit(kafka.EventTicketCreated, t)
	return t, nil
}

func (s *TicketService) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListOpen: открытые тикеты, новые первыми.
func (s *TicketService) ListOpen(ctx context.Context) ([]model.Ticket, error) {
	return s.List(ctx, model.TicketStatusOpen)
}

// List — тикеты по статусу (пустой статус значит все), по убыванию id.
func (s *TicketService) List(ctx context.Context, status model.TicketStatus) ([]model.Ticket, error) {
	items := make([]model.Ticket, 0)
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if err := tx.Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Answer закрывает тикет и сохраняет ответ оператора. Повторный вызов перезаписывает ответ.
func (s *TicketService) Answer(ctx context.Context, id uint64, answer string) (*model.Ticket, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, errs.ErrBlankAnswer
	}
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          model.TicketStatusClosed,
		"operator_answer": answer,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrTicketNotFound
	}
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(kafka.EventTicketClosed, t)
	return t, nil
}

// emit: fire-and-forget, событие должно уйти даже после завершения запроса, но с таймаутом.
func (s *TicketService) emit(event string, t *model.Ticket) {
	if s.events == nil {
		return
	}
	snapshot := *t
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.events.ProduceTicketEvent(ctx, event, &snapshot)
	}()
}
