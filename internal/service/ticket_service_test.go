package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/support-chat/internal/config"
	"github.com/psds-microservice/support-chat/internal/database"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/kafka"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "support.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.MigrateUp(context.Background(), db, config.DriverSQLite))
	return db
}

type recordedEvent struct {
	event  string
	ticket model.Ticket
}

type fakeProducer struct {
	mu     sync.Mutex
	events []recordedEvent
	done   chan struct{}
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{done: make(chan struct{}, 16)}
}

func (p *fakeProducer) ProduceTicketEvent(_ context.Context, event string, t *model.Ticket) {
	p.mu.Lock()
	p.events = append(p.events, recordedEvent{event: event, ticket: *t})
	p.mu.Unlock()
	p.done <- struct{}{}
}

func (p *fakeProducer) wait(t *testing.T, n int) []recordedEvent {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i+1)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

func TestTicketService_CreateAndGet(t *testing.T) {
	svc := NewTicketService(setupTestDB(t), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, "принтер не печатает", model.CategoryUnknown)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, model.TicketStatusOpen, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "принтер не печатает", got.UserMsg)
	assert.Nil(t, got.OperatorAnswer)
	assert.False(t, got.Answered())
}

func TestTicketService_GetByID_NotFound(t *testing.T) {
	svc := NewTicketService(setupTestDB(t), nil)
	_, err := svc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, errs.ErrTicketNotFound)
}

func TestTicketService_ListOpenNewestFirst(t *testing.T) {
	svc := NewTicketService(setupTestDB(t), nil)
	ctx := context.Background()

	var ids []uint64
	for _, msg := range []string{"первый", "второй", "третий"} {
		tk, err := svc.Create(ctx, msg, model.CategoryOther)
		require.NoError(t, err)
		ids = append(ids, tk.ID)
	}

	open, err := svc.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, ids[2], open[0].ID)
	assert.Equal(t, ids[0], open[2].ID)
}

func TestTicketService_AnswerClosesTicket(t *testing.T) {
	svc := NewTicketService(setupTestDB(t), nil)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "а", model.CategoryUnknown)
	b, _ := svc.Create(ctx, "б", model.CategoryUnknown)

	closed, err := svc.Answer(ctx, a.ID, "перезагрузите роутер")
	require.NoError(t, err)
	assert.True(t, closed.Answered())
	assert.Equal(t, "перезагрузите роутер", *closed.OperatorAnswer)

	open, err := svc.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, b.ID, open[0].ID)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	closedList, err := svc.List(ctx, model.TicketStatusClosed)
	require.NoError(t, err)
	require.Len(t, closedList, 1)
	assert.Equal(t, a.ID, closedList[0].ID)
}

func TestTicketService_AnswerTwiceOverwrites(t *testing.T) {
	svc := NewTicketService(setupTestDB(t), nil)
	ctx := context.Background()

	tk, _ := svc.Create(ctx, "вопрос", model.CategoryUnknown)
	_, err := svc.Answer(ctx, tk.ID, "первый ответ")
	require.NoError(t, err)
	second, err := svc.Answer(ctx, tk.ID, "второй ответ")
	require.NoError(t, err)

	assert.Equal(t, model.TicketStatusClosed, second.Status)
	assert.Equal(t, "второй ответ", *second.OperatorAnswer)

	open, _ := svc.ListOpen(ctx)
	assert.Empty(t, open)
}

func TestTicketService_AnswerErrors(t *testing.T) {
	svc := NewTicketService(setupTestDB(t), nil)
	ctx := context.Background()

	_, err := svc.Answer(ctx, 999, "ответ")
	assert.ErrorIs(t, err, errs.ErrTicketNotFound)

	tk, _ := svc.Create(ctx, "вопрос", model.CategoryUnknown)
	_, err = svc.Answer(ctx, tk.ID, "   ")
	assert.ErrorIs(t, err, errs.ErrBlankAnswer)

	got, _ := svc.GetByID(ctx, tk.ID)
	assert.Equal(t, model.TicketStatusOpen, got.Status)
}

func TestTicketService_EmitsEvents(t *testing.T) {
	events := newFakeProducer()
	svc := NewTicketService(setupTestDB(t), events)
	ctx := context.Background()

	tk, err := svc.Create(ctx, "не могу войти", "Доступ")
	require.NoError(t, err)
	got := events.wait(t, 1)
	assert.Equal(t, kafka.EventTicketCreated, got[0].event)
	assert.Equal(t, tk.ID, got[0].ticket.ID)

	_, err = svc.Answer(ctx, tk.ID, "сбросьте пароль")
	require.NoError(t, err)
	got = events.wait(t, 1)
	require.Len(t, got, 2)
	assert.Equal(t, kafka.EventTicketClosed, got[1].event)
	assert.Equal(t, model.TicketStatusClosed, got[1].ticket.Status)
}
