package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psds-microservice/support-chat/internal/classifier"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type stubClassifier struct {
	result classifier.Result
	err    error
	calls  int
}

func (s *stubClassifier) Classify(context.Context, string) (classifier.Result, error) {
	s.calls++
	return s.result, s.err
}

type resolverFixture struct {
	resolver *Resolver
	faq      *FAQService
	tickets  *TicketService
	journal  *transcript.Recorder
	cls      *stubClassifier
}

func newResolverFixture(t *testing.T, category string) *resolverFixture {
	t.Helper()
	db := setupTestDB(t)
	f := &resolverFixture{
		faq:     NewFAQService(db),
		tickets: NewTicketService(db, nil),
		journal: transcript.NewRecorder(transcript.NewMemoryStore(time.Hour), nil),
		cls:     &stubClassifier{result: classifier.Result{Category: category, Confidence: 0.6}},
	}
	f.resolver = NewResolver(f.cls, f.faq, f.tickets, f.journal)
	return f
}

func (f *resolverFixture) history(t *testing.T, sid string) []model.TranscriptEntry {
	t.Helper()
	h, err := f.journal.History(context.Background(), sid)
	require.NoError(t, err)
	return h
}

func TestResolver_CategoryMatch(t *testing.T) {
	f := newResolverFixture(t, "Доступ")
	rows := seedFAQ(t, f.faq,
		model.FaqEntry{Category: "Отчёты", Question: "Отчёт", Answer: "Раздел отчётов", Keywords: "войти"},
		model.FaqEntry{Category: "Доступ", Question: "Как войти?", Answer: "Через SSO."},
	)

	out, err := f.resolver.Resolve(context.Background(), "s1", "  не могу войти  ")
	require.NoError(t, err)
	assert.Nil(t, out.TicketID)
	assert.Equal(t, "[Из базы знаний — Как войти?]\nЧерез SSO.", out.Reply)
	assert.Equal(t, rows[1].ID, out.Faq.ID, "category lookup precedes keyword scan")

	h := f.history(t, "s1")
	require.Len(t, h, 2)
	assert.Equal(t, model.TranscriptEntry{Role: model.RoleUser, Text: "не могу войти", Time: h[0].Time}, h[0])
	assert.Equal(t, model.RoleSupport, h[1].Role)
	assert.Equal(t, out.Reply, h[1].Text)
}

func TestResolver_KeywordFallback(t *testing.T) {
	f := newResolverFixture(t, model.CategoryOther)
	rows := seedFAQ(t, f.faq,
		// категория совпадает со строкой-заглушкой, но по ней не ищем
		model.FaqEntry{Category: model.CategoryOther, Question: "Заглушка", Answer: "нет"},
		model.FaqEntry{Category: "Отчёты", Question: "Выгрузка", Answer: "Кнопка «Экспорт».", Keywords: "выгруз;Excel"},
	)

	out, err := f.resolver.Resolve(context.Background(), "s1", "Как сделать ВЫГРУЗКУ в excel?")
	require.NoError(t, err)
	assert.Nil(t, out.TicketID)
	assert.Equal(t, rows[1].ID, out.Faq.ID)

	open, _ := f.tickets.ListOpen(context.Background())
	assert.Empty(t, open)
}

func TestResolver_CategoryWithoutRowFallsBackToKeywords(t *testing.T) {
	f := newResolverFixture(t, "Ошибка")
	rows := seedFAQ(t, f.faq,
		model.FaqEntry{Category: "Доступ", Question: "Пароль", Answer: "Сбросьте.", Keywords: "пароль"},
	)

	out, err := f.resolver.Resolve(context.Background(), "s1", "ошибка: пароль не подходит")
	require.NoError(t, err)
	require.NotNil(t, out.Faq)
	assert.Equal(t, rows[0].ID, out.Faq.ID)
}

func TestResolver_OpensTicket(t *testing.T) {
	f := newResolverFixture(t, model.CategoryUnknown)
	ctx := context.Background()

	out, err := f.resolver.Resolve(ctx, "s1", "сломался принтер")
	require.NoError(t, err)
	require.NotNil(t, out.TicketID)
	assert.Equal(t, FormatTicketReply(*out.TicketID), out.Reply)

	tk, err := f.tickets.GetByID(ctx, *out.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "сломался принтер", tk.UserMsg)
	assert.Equal(t, model.CategoryUnknown, tk.Category)
	assert.Equal(t, model.TicketStatusOpen, tk.Status)

	h := f.history(t, "s1")
	require.Len(t, h, 2)
	assert.Contains(t, h[1].Text, "тикет #")
}

func TestResolver_FAQInsertVisibleImmediately(t *testing.T) {
	f := newResolverFixture(t, model.CategoryUnknown)
	ctx := context.Background()

	first, err := f.resolver.Resolve(ctx, "s1", "где скачать vpn клиент")
	require.NoError(t, err)
	require.NotNil(t, first.TicketID)

	seedFAQ(t, f.faq, model.FaqEntry{Category: "Сеть", Question: "VPN", Answer: "На портале.", Keywords: "vpn"})

	second, err := f.resolver.Resolve(ctx, "s1", "где скачать vpn клиент")
	require.NoError(t, err)
	assert.Nil(t, second.TicketID)
	assert.Equal(t, "[Из базы знаний — VPN]\nНа портале.", second.Reply)
}

func TestResolver_EmptyMessage(t *testing.T) {
	f := newResolverFixture(t, model.CategoryUnknown)

	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringOf(rapid.SampledFrom([]rune{' ', '\t', '\n', '\r', ' '})).Draw(rt, "text")

		_, err := f.resolver.Resolve(context.Background(), "s1", text)
		if !errors.Is(err, errs.ErrEmptyMessage) {
			rt.Fatalf("expected ErrEmptyMessage for %q, got %v", text, err)
		}
	})

	assert.Zero(t, f.cls.calls)
	assert.Empty(t, f.history(t, "s1"))
	all, _ := f.tickets.List(context.Background(), "")
	assert.Empty(t, all)
}

func TestResolver_UnmatchedTextOpensExactlyOneTicket(t *testing.T) {
	f := newResolverFixture(t, model.CategoryUnknown)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringOfN(rapid.RuneFrom([]rune("qwzjxy0123456789")), 1, 24, -1).Draw(rt, "text")

		before, err := f.tickets.List(ctx, "")
		if err != nil {
			rt.Fatal(err)
		}
		out, err := f.resolver.Resolve(ctx, "prop", text)
		if err != nil {
			rt.Fatal(err)
		}
		after, _ := f.tickets.List(ctx, "")
		if len(after) != len(before)+1 {
			rt.Fatalf("expected one new ticket, got %d -> %d", len(before), len(after))
		}
		if out.TicketID == nil || *out.TicketID != after[0].ID {
			rt.Fatalf("reply does not reference the new ticket")
		}
		if after[0].Status != model.TicketStatusOpen {
			rt.Fatalf("new ticket status %q", after[0].Status)
		}
	})
}

func TestResolver_ClassifierErrorPropagates(t *testing.T) {
	f := newResolverFixture(t, "")
	f.cls.err = errors.New("db gone")

	_, err := f.resolver.Resolve(context.Background(), "s1", "привет")
	require.Error(t, err)
	all, _ := f.tickets.List(context.Background(), "")
	assert.Empty(t, all)
	assert.Empty(t, f.history(t, "s1"), "no user entry without a reply")
}

type failingJournal struct {
	calls int
}

func (j *failingJournal) Add(context.Context, string, model.Role, string) error {
	j.calls++
	return errors.New("redis: connection refused")
}

func TestResolver_JournalFailureKeepsTicketID(t *testing.T) {
	db := setupTestDB(t)
	tickets := NewTicketService(db, nil)
	journal := &failingJournal{}
	cls := &stubClassifier{result: classifier.Result{Category: model.CategoryUnknown, Confidence: 0.3}}
	r := NewResolver(cls, NewFAQService(db), tickets, journal)

	out, err := r.Resolve(context.Background(), "s1", "не печатает принтер")
	require.NoError(t, err)
	require.NotNil(t, out.TicketID)
	assert.Equal(t, FormatTicketReply(*out.TicketID), out.Reply)
	assert.Equal(t, 2, journal.calls)

	tk, err := tickets.GetByID(context.Background(), *out.TicketID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusOpen, tk.Status)
}

func TestResolver_WithKeywordChain(t *testing.T) {
	db := setupTestDB(t)
	faq := NewFAQService(db)
	seedFAQ(t, faq, model.FaqEntry{Category: "Доступ", Question: "Сброс пароля", Answer: "Нажмите «Забыли пароль»."})

	chain := classifier.NewChain(classifier.NewKeywordStrategy(classifier.DefaultRules()))
	r := NewResolver(chain, faq, NewTicketService(db, nil), transcript.NewRecorder(transcript.NewMemoryStore(time.Hour), nil))

	out, err := r.Resolve(context.Background(), "s1", "Пароль забыл")
	require.NoError(t, err)
	assert.Equal(t, "Доступ", out.Category)
	assert.InDelta(t, 0.6, out.Confidence, 1e-9)
	assert.Nil(t, out.TicketID)
}

func TestResolver_RequiresSession(t *testing.T) {
	f := newResolverFixture(t, model.CategoryUnknown)
	_, err := f.resolver.Resolve(context.Background(), "", "вопрос")
	assert.ErrorIs(t, err, errs.ErrSessionRequired)
}
