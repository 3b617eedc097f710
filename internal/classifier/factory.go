package classifier

import (
	"fmt"
	"time"
)

type Options struct {
	Backend   string // http | openai | none
	URL       string
	Timeout   time.Duration
	RulesFile string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// New собирает цепочку: удалённая модель (если задана), затем ключевые слова.
func New(opts Options, categories CategoryLister) (*Chain, error) {
	rules, err := LoadRules(opts.RulesFile)
	if err != nil {
		return nil, err
	}
	keyword := NewKeywordStrategy(rules)

	switch opts.Backend {
	case "http", "":
		return NewChain(NewHTTPStrategy(opts.URL, categories, opts.Timeout), keyword), nil
	case "openai":
		return NewChain(NewOpenAIStrategy(opts.OpenAIKey, opts.OpenAIBaseURL, opts.OpenAIModel, categories, opts.Timeout), keyword), nil
	case "none":
		return NewChain(keyword), nil
	}
	return nil, fmt.Errorf("unknown classifier backend %q", opts.Backend)
}
