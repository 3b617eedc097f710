// Package classifier assigns a support category to free-text messages.
//
// Classification is an ordered chain of strategies. Each strategy either
// returns a result, reports "no result" with a nil Result, or fails with an
// error that aborts the chain (storage failures). The first result wins.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/psds-microservice/support-chat/internal/model"
)

type Result struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// RemoteConfidence: фиксированная уверенность для ответа модели; из ответа модели она не выводится.
const RemoteConfidence = 0.6

type Strategy interface {
	Name() string
	Classify(ctx context.Context, text string) (*Result, error)
}

// CategoryLister отдаёт актуальный список категорий FAQ. Вызывается на каждую классификацию.
type CategoryLister interface {
	Categories(ctx context.Context) ([]string, error)
}

type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

func (c *Chain) Classify(ctx context.Context, text string) (Result, error) {
	for _, s := range c.strategies {
		res, err := s.Classify(ctx, text)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", s.Name(), err)
		}
		if res != nil {
			return *res, nil
		}
	}
	return Result{Category: model.CategoryUnknown, Confidence: 0.3}, nil
}

// BuildPrompt собирает запрос к модели: роль, список категорий плюс «Другое», сообщение.
func BuildPrompt(categories []string, text string) string {
	var b strings.Builder
	b.WriteString("Ты — агент техподдержки.\n")
	b.WriteString("Твоя задача: определить к какой из следующих категорий относится пользовательское обращение. ")
	b.WriteString("Дай ответ коротко (только название категории).\n\n")
	b.WriteString("Список категорий:\n")
	if len(categories) == 0 {
		b.WriteString("Категории не найдены\n")
	}
	for _, c := range categories {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteByte('\n')
	}
	b.WriteString("- ")
	b.WriteString(model.CategoryOther)
	b.WriteString("\nСообщение от пользователя: ")
	b.WriteString(text)
	return b.String()
}

// MatchCategory возвращает первую категорию (в порядке списка), которая
// встречается в ответе модели как подстрока, иначе «Другое».
func MatchCategory(categories []string, answer string) string {
	for _, c := range categories {
		if c != "" && strings.Contains(answer, c) {
			return c
		}
	}
	return model.CategoryOther
}
