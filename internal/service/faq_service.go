package service

import (
	"context"
	"errors"
	"strings"

	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/textnorm"
	"gorm.io/gorm"
)

// FAQServicer — доступ к базе знаний. Все чтения идут в БД, без кэша:
// новая запись сразу видна следующему обращению.
type FAQServicer interface {
	Create(ctx context.Context, e *model.FaqEntry) error
	List(ctx context.Context) ([]model.FaqEntry, error)
	Count(ctx context.Context) (int64, error)
	Categories(ctx context.Context) ([]string, error)
	FirstByCategory(ctx context.Context, category string) (*model.FaqEntry, error)
	MatchKeywords(ctx context.Context, text string) (*model.FaqEntry, error)
}

type FAQService struct {
	db *gorm.DB
}

func NewFAQService(db *gorm.DB) *FAQService {
	return &FAQService{db: db}
}

func (s *FAQService) Create(ctx context.Context, e *model.FaqEntry) error {
	e.ID = 0
	return s.db.WithContext(ctx).Create(e).Error
}

// List возвращает все записи в порядке вставки.
func (s *FAQService) List(ctx context.Context) ([]model.FaqEntry, error) {
	items := make([]model.FaqEntry, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *FAQService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.FaqEntry{}).Count(&n).Error
	return n, err
}

// Categories: уникальные непустые категории по алфавиту.
func (s *FAQService) Categories(ctx context.Context) ([]string, error) {
	out := make([]string, 0)
	err := s.db.WithContext(ctx).Model(&model.FaqEntry{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FirstByCategory: запись с минимальным id и точным совпадением категории; nil, если нет.
func (s *FAQService) FirstByCategory(ctx context.Context, category string) (*model.FaqEntry, error) {
	var e model.FaqEntry
	err := s.db.WithContext(ctx).Where("category = ?", category).Order("id ASC").First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// MatchKeywords возвращает первую по id запись, любое ключевое слово которой
// входит подстрокой в текст (без учёта регистра). Ранжирования нет.
func (s *FAQService) MatchKeywords(ctx context.Context, text string) (*model.FaqEntry, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	lowered := textnorm.Lower(text)
	for i := range rows {
		for _, kw := range rows[i].KeywordList() {
			if strings.Contains(lowered, textnorm.Lower(kw)) {
				return &rows[i], nil
			}
		}
	}
	return nil, nil
}
