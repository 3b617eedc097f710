// Package seed fills an empty knowledge base with the starter FAQ.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed faq.yaml
var defaultFAQ []byte

type Store interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, e *model.FaqEntry) error
}

type entry struct {
	Category string   `yaml:"category"`
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Keywords []string `yaml:"keywords"`
}

func Parse(data []byte) ([]model.FaqEntry, error) {
	var raw []entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse faq seed: %w", err)
	}
	out := make([]model.FaqEntry, 0, len(raw))
	for i, e := range raw {
		if e.Question == "" || e.Answer == "" {
			return nil, fmt.Errorf("faq seed item %d: question and answer are required", i)
		}
		out = append(out, model.FaqEntry{
			Category: e.Category,
			Question: e.Question,
			Answer:   e.Answer,
			Keywords: model.JoinKeywords(e.Keywords),
		})
	}
	return out, nil
}

func Default() []model.FaqEntry {
	items, err := Parse(defaultFAQ)
	if err != nil {
		panic(err)
	}
	return items
}

// Load читает набор из файла; без пути берётся встроенный набор.
func Load(path string) ([]model.FaqEntry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq seed: %w", err)
	}
	return Parse(data)
}

// IfEmpty вставляет записи, только если в базе знаний ничего нет. Возвращает число вставленных.
func IfEmpty(ctx context.Context, store Store, items []model.FaqEntry) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count faq: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	for i := range items {
		e := items[i]
		if err := store.Create(ctx, &e); err != nil {
			return i, fmt.Errorf("insert faq %q: %w", e.Question, err)
		}
	}
	logger.WithComponent("seed").Info("faq seeded", "rows", len(items))
	return len(items), nil
}
