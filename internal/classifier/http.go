package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/psds-microservice/support-chat/internal/logger"
)

const maxAnswerBytes = 64 << 10

// HTTPStrategy спрашивает внешний сервис генерации текста: POST {"prompt": ...},
// ответ — текст. Ошибки транспорта и не-2xx статусы означают «нет результата».
type HTTPStrategy struct {
	url        string
	categories CategoryLister
	httpClient *http.Client
	log        *slog.Logger
}

// NewHTTPStrategy. При timeout == 0 нет таймаута клиента (остаётся контекст запроса).
func NewHTTPStrategy(url string, categories CategoryLister, timeout time.Duration) *HTTPStrategy {
	return &HTTPStrategy{
		url:        url,
		categories: categories,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithComponent("classifier.http"),
	}
}

func (s *HTTPStrategy) Name() string { return "http" }

type promptPayload struct {
	Prompt string `json:"prompt"`
}

func (s *HTTPStrategy) Classify(ctx context.Context, text string) (*Result, error) {
	cats, err := s.categories.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	answer, ok := s.ask(ctx, BuildPrompt(cats, text))
	if !ok {
		return nil, nil
	}
	category := MatchCategory(cats, answer)
	s.log.Debug("classified", "category", category, "answer", answer)
	return &Result{Category: category, Confidence: RemoteConfidence}, nil
}

func (s *HTTPStrategy) ask(ctx context.Context, prompt string) (string, bool) {
	body, err := json.Marshal(promptPayload{Prompt: prompt})
	if err != nil {
		s.log.Warn("marshal prompt", "error", err)
		return "", false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.log.Warn("new request", "error", err)
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn("classifier unreachable, falling back", "error", err)
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Warn("classifier returned non-success status, falling back", "status", resp.StatusCode)
		return "", false
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBytes))
	if err != nil {
		s.log.Warn("read classifier answer, falling back", "error", err)
		return "", false
	}
	return decodeAnswer(raw), true
}

// decodeAnswer: сервис модели может вернуть JSON-строку ("\"Доступ\"") или голый текст.
func decodeAnswer(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
