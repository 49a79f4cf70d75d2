package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"pawmate/internal/models"
	"pawmate/pkg/config"
)

// IntentClassifier labels a query before any provider or database call.
// Classification is pure and never fails.
type IntentClassifier struct {
	patterns []string
	maxLen   int
}

func NewIntentClassifier(cfg *config.RetrievalConfig) *IntentClassifier {
	patterns := make([]string, 0, len(cfg.GreetingPatterns))
	for _, p := range cfg.GreetingPatterns {
		patterns = append(patterns, NormalizeText(p))
	}
	return &IntentClassifier{
		patterns: patterns,
		maxLen:   cfg.GreetingMaxLen,
	}
}

// Classify routes a query. An attached media reference always wins. Short
// text matching a greeting pattern (exact or word-prefix) is a greeting;
// everything else goes to retrieval, however short, so the tier policy can
// deal with weak matches.
func (c *IntentClassifier) Classify(text string, hasMedia bool) models.Intent {
	if hasMedia {
		return models.IntentMediaQuery
	}

	msg := NormalizeText(text)
	if msg == "" {
		return models.IntentGreeting
	}

	if len([]rune(msg)) <= c.maxLen {
		for _, p := range c.patterns {
			if matchesGreeting(msg, p) {
				return models.IntentGreeting
			}
		}
	}

	return models.IntentKnowledgeQuestion
}

// matchesGreeting reports whether msg equals the pattern or starts with it at
// a word boundary ("hey there!" matches "hey", "heyday" does not).
func matchesGreeting(msg, pattern string) bool {
	if msg == pattern {
		return true
	}
	if !strings.HasPrefix(msg, pattern) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(msg[len(pattern):])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
