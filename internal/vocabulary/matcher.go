package vocabulary

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/unicode/norm"
)

// Category identifies one of the term lists.
type Category int

const (
	Partnership Category = iota
	Usage
	Hiring
	Discussion
	numCategories
)

// Matches holds the terms found per category, deduplicated and sorted.
type Matches struct {
	byCategory [numCategories][]string
}

// Terms returns the matched terms of one category.
func (m Matches) Terms(c Category) []string {
	if c < 0 || c >= numCategories {
		return nil
	}
	return m.byCategory[c]
}

// Any reports whether any category matched.
func (m Matches) Any() bool {
	for _, terms := range m.byCategory {
		if len(terms) > 0 {
			return true
		}
	}
	return false
}

// pattern is one dictionary entry of the automaton.
type pattern struct {
	term       string
	categories []Category
}

// Matcher finds vocabulary terms in text as whole words or phrases in a
// single pass. It is immutable and safe for concurrent use.
type Matcher struct {
	matcher  *ahocorasick.Matcher
	patterns []pattern
}

// NewMatcher builds the automaton for v. Each term also matches its plural
// formed with a trailing "s".
func NewMatcher(v Vocabulary) *Matcher {
	index := make(map[string]int)
	m := &Matcher{}

	add := func(key, term string, c Category) {
		if i, ok := index[key]; ok {
			if !slices.Contains(m.patterns[i].categories, c) {
				m.patterns[i].categories = append(m.patterns[i].categories, c)
			}
			return
		}
		index[key] = len(m.patterns)
		m.patterns = append(m.patterns, pattern{term: term, categories: []Category{c}})
	}

	lists := [numCategories][]string{v.Partnership, v.Usage, v.Hiring, v.Discussion}
	for c, terms := range lists {
		for _, raw := range terms {
			term := strings.ToLower(strings.TrimSpace(raw))
			core := normalizeText(term)
			if core == "" {
				continue
			}
			add(pad(core), term, Category(c))
			if !strings.HasSuffix(core, "s") {
				add(pad(core+"s"), term, Category(c))
			}
		}
	}

	if len(m.patterns) > 0 {
		keys := make([]string, len(m.patterns))
		for key, i := range index {
			keys[i] = key
		}
		m.matcher = ahocorasick.NewStringMatcher(keys)
	}

	return m
}

// Match returns the vocabulary terms present in text.
func (m *Matcher) Match(text string) Matches {
	var out Matches
	if m.matcher == nil || text == "" {
		return out
	}

	hits := m.matcher.MatchThreadSafe([]byte(pad(normalizeText(text))))
	for _, hit := range hits {
		if hit < 0 || hit >= len(m.patterns) {
			continue
		}
		p := m.patterns[hit]
		for _, c := range p.categories {
			if !slices.Contains(out.byCategory[c], p.term) {
				out.byCategory[c] = append(out.byCategory[c], p.term)
			}
		}
	}

	for c := range out.byCategory {
		slices.Sort(out.byCategory[c])
	}

	return out
}

// Contains reports whether text holds at least one domain term.
func (m *Matcher) Contains(text string) bool {
	return m.Match(text).Any()
}

// normalizeText lowercases, applies NFKC, turns every non-alphanumeric rune
// into a separator and collapses runs of separators to one space.
func normalizeText(text string) string {
	text = strings.ToLower(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func pad(s string) string {
	return " " + s + " "
}

// WordPattern compiles a case-insensitive whole-word pattern for word.
func WordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(word)) + `\b`)
}

// ContainsWord reports whether word occurs in text as a whole word,
// ignoring case.
func ContainsWord(text, word string) bool {
	if strings.TrimSpace(word) == "" {
		return false
	}
	return WordPattern(word).MatchString(text)
}
