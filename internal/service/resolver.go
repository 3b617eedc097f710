package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/psds-microservice/support-chat/internal/classifier"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
)

type Classifier interface {
	Classify(ctx context.Context, text string) (classifier.Result, error)
}

// Journal: журнал сессии, куда Resolver пишет реплики.
type Journal interface {
	Add(ctx context.Context, sessionID string, role model.Role, text string) error
}

type Reply struct {
	Reply    string  `json:"reply"`
	TicketID *uint64 `json:"ticket_id,omitempty"`

	Category   string          `json:"-"`
	Confidence float64         `json:"-"`
	Faq        *model.FaqEntry `json:"-"`
}

// Resolver обрабатывает одно сообщение пользователя:
// классификация → FAQ по категории → FAQ по ключевым словам → тикет оператору.
type Resolver struct {
	classifier Classifier
	faq        FAQServicer
	tickets    TicketServicer
	journal    Journal
	log        *slog.Logger
}

func NewResolver(c Classifier, faq FAQServicer, tickets TicketServicer, journal Journal) *Resolver {
	return &Resolver{
		classifier: c,
		faq:        faq,
		tickets:    tickets,
		journal:    journal,
		log:        logger.WithComponent("resolver"),
	}
}

func FormatFaqReply(e *model.FaqEntry) string {
	return fmt.Sprintf("[Из базы знаний — %s]\n%s", e.Question, e.Answer)
}

func FormatTicketReply(id uint64) string {
	return fmt.Sprintf("Мы не нашли готового ответа — ваш запрос передан оператору (тикет #%d).", id)
}

// Resolve пишет в журнал реплики user и support только после того, как ответ
// готов. Ошибка журнала не отменяет уже созданный тикет: ответ с ticket_id
// возвращается, ошибка пишется в лог.
func (r *Resolver) Resolve(ctx context.Context, sessionID, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.ErrEmptyMessage
	}
	if sessionID == "" {
		return nil, errs.ErrSessionRequired
	}

	cls, err := r.classifier.Classify(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	entry, err := r.lookup(ctx, cls.Category, text)
	if err != nil {
		return nil, err
	}

	out := &Reply{Category: cls.Category, Confidence: cls.Confidence, Faq: entry}
	if entry != nil {
		out.Reply = FormatFaqReply(entry)
		r.log.Info("answered from faq", "category", cls.Category, "faq_id", entry.ID)
	} else {
		t, err := r.tickets.Create(ctx, text, cls.Category)
		if err != nil {
			return nil, fmt.Errorf("create ticket: %w", err)
		}
		id := t.ID
		out.TicketID = &id
		out.Reply = FormatTicketReply(id)
		r.log.Info("ticket opened", "category", cls.Category, "ticket_id", id)
	}

	r.record(ctx, sessionID, model.RoleUser, text)
	r.record(ctx, sessionID, model.RoleSupport, out.Reply)
	return out, nil
}

func (r *Resolver) record(ctx context.Context, sessionID string, role model.Role, text string) {
	if err := r.journal.Add(ctx, sessionID, role, text); err != nil {
		r.log.Error("journal append failed", "role", role, "error", err)
	}
}

func (r *Resolver) lookup(ctx context.Context, category, text string) (*model.FaqEntry, error) {
	if !model.IsUnclassified(category) {
		e, err := r.faq.FirstByCategory(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("faq by category: %w", err)
		}
		if e != nil {
			return e, nil
		}
	}
	e, err := r.faq.MatchKeywords(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("faq by keywords: %w", err)
	}
	return e, nil
}
