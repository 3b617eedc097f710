package classifier

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/psds-microservice/support-chat/internal/textnorm"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

type Rule struct {
	Category   string   `yaml:"category"`
	Confidence float64  `yaml:"confidence"`
	Keywords   []string `yaml:"keywords"`
}

type RuleSet struct {
	Fallback Rule   `yaml:"fallback"`
	Rules    []Rule `yaml:"rules"`
}

func ParseRules(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules: %w", err)
	}
	if rs.Fallback.Category == "" {
		return RuleSet{}, errors.New("parse rules: fallback category is required")
	}
	for i, r := range rs.Rules {
		if r.Category == "" || len(r.Keywords) == 0 {
			return RuleSet{}, fmt.Errorf("parse rules: rule %d needs a category and keywords", i)
		}
	}
	return rs, nil
}

func DefaultRules() RuleSet {
	rs, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(err)
	}
	return rs
}

// LoadRules читает правила из файла; без пути берутся встроенные правила.
func LoadRules(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// KeywordStrategy: локальная эвристика, всегда возвращает результат.
type KeywordStrategy struct {
	rules RuleSet
}

func NewKeywordStrategy(rules RuleSet) *KeywordStrategy {
	folded := RuleSet{Fallback: rules.Fallback, Rules: make([]Rule, len(rules.Rules))}
	for i, r := range rules.Rules {
		kws := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			kws[j] = textnorm.Lower(kw)
		}
		folded.Rules[i] = Rule{Category: r.Category, Confidence: r.Confidence, Keywords: kws}
	}
	return &KeywordStrategy{rules: folded}
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Classify(_ context.Context, text string) (*Result, error) {
	t := textnorm.Lower(text)
	for _, r := range s.rules.Rules {
		for _, kw := range r.Keywords {
			if strings.Contains(t, kw) {
				return &Result{Category: r.Category, Confidence: r.Confidence}, nil
			}
		}
	}
	return &Result{Category: s.rules.Fallback.Category, Confidence: s.rules.Fallback.Confidence}, nil
}
