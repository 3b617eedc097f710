package service

import (
	"context"
	"testing"

	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFAQ(t *testing.T, svc *FAQService, entries ...model.FaqEntry) []model.FaqEntry {
	t.Helper()
	out := make([]model.FaqEntry, 0, len(entries))
	for _, e := range entries {
		e := e
		require.NoError(t, svc.Create(context.Background(), &e))
		out = append(out, e)
	}
	return out
}

func TestFAQService_CreateListCount(t *testing.T) {
	svc := NewFAQService(setupTestDB(t))
	ctx := context.Background()

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	e := model.FaqEntry{ID: 77, Category: "Доступ", Question: "Как сбросить пароль?", Answer: "Через форму входа.", Keywords: "пароль;сброс"}
	require.NoError(t, svc.Create(ctx, &e))
	assert.NotEqual(t, uint64(77), e.ID, "id is assigned by the store")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"пароль", "сброс"}, list[0].KeywordList())

	n, _ = svc.Count(ctx)
	assert.EqualValues(t, 1, n)
}

func TestFAQService_CategoriesDistinctSorted(t *testing.T) {
	svc := NewFAQService(setupTestDB(t))
	seedFAQ(t, svc,
		model.FaqEntry{Category: "Отчёты", Question: "q1"},
		model.FaqEntry{Category: "Доступ", Question: "q2"},
		model.FaqEntry{Category: "Отчёты", Question: "q3"},
		model.FaqEntry{Category: "", Question: "q4"},
	)

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Доступ", "Отчёты"}, cats)
}

func TestFAQService_FirstByCategory(t *testing.T) {
	svc := NewFAQService(setupTestDB(t))
	rows := seedFAQ(t, svc,
		model.FaqEntry{Category: "Доступ", Question: "первый"},
		model.FaqEntry{Category: "Доступ", Question: "второй"},
	)
	ctx := context.Background()

	e, err := svc.FirstByCategory(ctx, "Доступ")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, rows[0].ID, e.ID)

	e, err = svc.FirstByCategory(ctx, "доступ")
	require.NoError(t, err)
	assert.Nil(t, e, "category match is exact")
}

func TestFAQService_MatchKeywords(t *testing.T) {
	svc := NewFAQService(setupTestDB(t))
	rows := seedFAQ(t, svc,
		model.FaqEntry{Category: "Отчёты", Question: "Выгрузка", Keywords: "Excel; выгруз"},
		model.FaqEntry{Category: "Прочее", Question: "Ещё про excel", Keywords: "excel"},
		model.FaqEntry{Category: "Пусто", Question: "Без ключей", Keywords: " ; ;"},
	)
	ctx := context.Background()

	e, err := svc.MatchKeywords(ctx, "Не открывается EXCEL файл")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, rows[0].ID, e.ID, "first row in storage order wins")

	e, err = svc.MatchKeywords(ctx, "что-то совсем другое")
	require.NoError(t, err)
	assert.Nil(t, e, "empty keywords never match")
}
