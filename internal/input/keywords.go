package input

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

// LoadKeywords reads a JSON object mapping provider names to keyword
// arrays. Malformed JSON is an error.
func LoadKeywords(path string) ([]domain.Keyword, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	return ParseKeywords(data)
}

// ParseKeywords lowercases, trims and deduplicates keywords. Providers are
// visited in sorted order and keywords in file order; a keyword listed by
// several providers keeps the first.
func ParseKeywords(data []byte) ([]domain.Keyword, error) {
	var byProvider map[string][]string
	if err := json.Unmarshal(data, &byProvider); err != nil {
		return nil, fmt.Errorf("parse keywords: %w", err)
	}

	providers := make([]string, 0, len(byProvider))
	for p := range byProvider {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	seen := make(map[string]struct{})
	var keywords []domain.Keyword
	for _, p := range providers {
		for _, kw := range byProvider[p] {
			term := strings.ToLower(strings.TrimSpace(kw))
			if term == "" {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			keywords = append(keywords, domain.Keyword{Term: term, Provider: strings.TrimSpace(p)})
		}
	}
	return keywords, nil
}

// Terms returns the keyword strings in order.
func Terms(keywords []domain.Keyword) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = kw.Term
	}
	return out
}
