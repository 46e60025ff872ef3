// Package windows carves keyword context windows out of extracted text.
package windows

import (
	"strings"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/vocabulary"
)

// Default configuration values.
const (
	defaultWindowWords   = 400
	defaultFallbackChars = 2000
)

// Config holds window extraction configuration.
type Config struct {
	WindowWords   int `env:"EVIDENCE_WINDOW_WORDS"    yaml:"window_words"`
	FallbackChars int `env:"EVIDENCE_FALLBACK_CHARS" yaml:"fallback_chars"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.WindowWords <= 0 {
		c.WindowWords = defaultWindowWords
	}
	if c.FallbackChars <= 0 {
		c.FallbackChars = defaultFallbackChars
	}
	return c
}

// Extractor builds evidence windows around keyword occurrences.
type Extractor struct {
	width         int
	fallbackChars int
	terms         *vocabulary.Matcher
}

// New creates an Extractor gated by the domain terms of terms.
func New(cfg Config, terms *vocabulary.Matcher) *Extractor {
	cfg = cfg.WithDefaults()
	return &Extractor{
		width:         cfg.WindowWords,
		fallbackChars: cfg.FallbackChars,
		terms:         terms,
	}
}

// Extract returns the distinct windows around each whole-word occurrence of
// keyword that contain at least one domain term, in first-seen order.
//
// When keyword never occurs but the text holds a domain term, a single
// fallback window with the start of the text is returned. Otherwise the
// result is empty.
func (e *Extractor) Extract(text, keyword string) []domain.EvidenceWindow {
	keyword = strings.TrimSpace(keyword)
	if strings.TrimSpace(text) == "" || keyword == "" {
		return nil
	}

	words := strings.Fields(text)
	occurrences := vocabulary.WordPattern(keyword).FindAllStringIndex(text, -1)

	var (
		out  []domain.EvidenceWindow
		seen = make(map[string]struct{})
	)

	for _, loc := range occurrences {
		idx, ok := wordIndex(words, loc[0])
		if !ok {
			continue
		}

		chunk := strings.TrimSpace(e.span(words, idx))
		if chunk == "" || !e.terms.Contains(chunk) {
			continue
		}
		if _, dup := seen[chunk]; dup {
			continue
		}
		seen[chunk] = struct{}{}

		out = append(out, domain.EvidenceWindow{
			Text:    chunk,
			Keyword: keyword,
			Index:   len(out),
		})
	}

	if len(out) > 0 || len(occurrences) > 0 {
		return out
	}

	if !e.terms.Contains(text) {
		return nil
	}

	return []domain.EvidenceWindow{{
		Text:     domain.Truncate(strings.TrimSpace(text), e.fallbackChars),
		Keyword:  keyword,
		Fallback: true,
	}}
}

// span joins the words of the window centred on idx.
func (e *Extractor) span(words []string, idx int) string {
	half := e.width / 2
	start := max(0, idx-half)
	end := min(len(words), idx+half+1)
	return strings.Join(words[start:end], " ")
}

// wordIndex maps a byte offset to the index of the word containing it,
// accumulating word lengths plus one separator.
func wordIndex(words []string, offset int) (int, bool) {
	count := 0
	for i, w := range words {
		if offset < count+len(w)+1 {
			return i, true
		}
		count += len(w) + 1
	}
	if len(words) == 0 {
		return 0, false
	}
	return len(words) - 1, true
}
