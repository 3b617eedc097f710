package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIStrategy делает то же, что HTTPStrategy, но через OpenAI-совместимый chat completions API.
type OpenAIStrategy struct {
	client     *openai.Client
	model      string
	categories CategoryLister
	log        *slog.Logger
}

func NewOpenAIStrategy(apiKey, baseURL, model string, categories CategoryLister, timeout time.Duration) *OpenAIStrategy {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIStrategy{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		categories: categories,
		log:        logger.WithComponent("classifier.openai"),
	}
}

func (s *OpenAIStrategy) Name() string { return "openai" }

func (s *OpenAIStrategy) Classify(ctx context.Context, text string) (*Result, error) {
	cats, err := s.categories.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(cats, text)},
		},
		MaxTokens:   30,
		Temperature: 0,
	})
	if err != nil {
		s.log.Warn("chat completion failed, falling back", "error", err)
		return nil, nil
	}
	if len(resp.Choices) == 0 {
		s.log.Warn("chat completion returned no choices, falling back")
		return nil, nil
	}
	answer := resp.Choices[0].Message.Content
	return &Result{Category: MatchCategory(cats, answer), Confidence: RemoteConfidence}, nil
}
