// Package ticketsync delivers operator answers to the chat client by polling
// the tickets it has opened.
package ticketsync

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
)

const DefaultInterval = 5 * time.Second

type TicketGetter interface {
	GetTicket(ctx context.Context, id uint64) (*model.Ticket, error)
}

// AnswerFunc вызывается один раз на тикет. Ошибка оставляет тикет в опросе.
type AnswerFunc func(ctx context.Context, t *model.Ticket) error

type Poller struct {
	getter   TicketGetter
	onAnswer AnswerFunc
	log      *slog.Logger

	mu        sync.Mutex
	pending   map[uint64]struct{}
	delivered map[uint64]struct{}
}

func NewPoller(getter TicketGetter, onAnswer AnswerFunc) *Poller {
	return &Poller{
		getter:    getter,
		onAnswer:  onAnswer,
		log:       logger.WithComponent("ticketsync"),
		pending:   make(map[uint64]struct{}),
		delivered: make(map[uint64]struct{}),
	}
}

// Track ставит тикет в опрос. Уже доставленный тикет повторно не отслеживается.
func (p *Poller) Track(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.delivered[id]; ok {
		return false
	}
	if _, ok := p.pending[id]; ok {
		return false
	}
	p.pending[id] = struct{}{}
	return true
}

func (p *Poller) Pending() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]uint64, 0, len(p.pending))
	for id := range p.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PollOnce опрашивает все отслеживаемые тикеты и возвращает число доставленных ответов.
func (p *Poller) PollOnce(ctx context.Context) int {
	n := 0
	for _, id := range p.Pending() {
		if ctx.Err() != nil {
			return n
		}
		t, err := p.getter.GetTicket(ctx, id)
		if err != nil {
			// не найден или сеть: просто повторим на следующем тике
			p.log.Debug("poll ticket", "ticket_id", id, "error", err)
			continue
		}
		if !t.Answered() {
			continue
		}
		if !p.claim(id) {
			continue
		}
		if err := p.onAnswer(ctx, t); err != nil {
			p.release(id)
			p.log.Warn("deliver operator answer", "ticket_id", id, "error", err)
			continue
		}
		n++
	}
	return n
}

// Run опрашивает с фиксированным интервалом до отмены ctx.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.PollOnce(ctx)
		}
	}
}

// claim переводит тикет из pending в delivered; false, если его уже забрали.
func (p *Poller) claim(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[id]; !ok {
		return false
	}
	delete(p.pending, id)
	p.delivered[id] = struct{}{}
	return true
}

func (p *Poller) release(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.delivered, id)
	p.pending[id] = struct{}{}
}
