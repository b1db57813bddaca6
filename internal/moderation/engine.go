// Package moderation holds the keyword classifier that gates user content
// and the admin queue of flags and reports.
package moderation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ovaphlow/pitchfork/service-meetup/internal/moderation/entity"
)

// Verdict is the outcome of classifying one piece of text. Blocked and
// Flagged are never both true.
type Verdict struct {
	Blocked     bool
	BlockReason string
	Flagged     bool
	FlagRule    entity.Rule
}

// Engine classifies text against a profanity list (hard block) and a
// political keyword list (soft flag). It is immutable and safe for
// concurrent use.
type Engine struct {
	profanity []string
	political []string
}

// NewEngine copies and lowercases both lists.
func NewEngine(profanity, political []string) *Engine {
	return &Engine{profanity: normalize(profanity), political: normalize(political)}
}

var defaultEngine = NewEngine(profanityWords, politicalKeywords)

// DefaultEngine returns the engine built from the built-in lists.
func DefaultEngine() *Engine { return defaultEngine }

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Classify blocks on the first profanity hit, otherwise flags on the first
// political hit.
func (e *Engine) Classify(text string) Verdict {
	lower := strings.ToLower(text)
	for _, w := range e.profanity {
		if containsWord(lower, w) {
			return Verdict{Blocked: true, BlockReason: fmt.Sprintf("Content contains prohibited language: %q", w)}
		}
	}
	for _, w := range e.political {
		if containsWord(lower, w) {
			return Verdict{Flagged: true, FlagRule: entity.RulePolitics}
		}
	}
	return Verdict{}
}

// containsWord reports whether term occurs in text with no word character
// directly before or after it.
func containsWord(text, term string) bool {
	for from := 0; from <= len(text)-len(term); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if atBoundary(text, start, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

func atBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
