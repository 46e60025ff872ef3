// Package relevance decides whether an evidence window shows a real
// relationship between a company and a keyword.
//
// The decision is a strict priority list over the vocabulary categories
// (partnership, usage, hiring, discussion), with a semantic-score override
// for windows that match no category.
package relevance

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/vocabulary"
)

// Gate explanations.
const (
	ExplainTooShort      = "Extracted text too short or empty."
	ExplainNoCategory    = "No relevant category terms or strong semantic match found."
	explainEditorialNote = "Site identified as news/course. Original reason: "
)

// Classifier applies the tiered decision policy. It is immutable.
type Classifier struct {
	vocab              vocabulary.Vocabulary
	terms              *vocabulary.Matcher
	threshold          float64
	minTextChars       int
	disableAcronymGate bool
}

// New creates a Classifier over vocab.
func New(cfg Config, vocab vocabulary.Vocabulary, terms *vocabulary.Matcher) *Classifier {
	cfg = cfg.WithDefaults()
	if terms == nil {
		terms = vocabulary.NewMatcher(vocab)
	}
	return &Classifier{
		vocab:              vocab,
		terms:              terms,
		threshold:          cfg.Threshold,
		minTextChars:       cfg.MinTextChars,
		disableAcronymGate: cfg.DisableAcronymGate,
	}
}

// Threshold returns the score override threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify returns the verdict for one window. The first matching branch wins:
// partnership, usage, hiring, discussion, then none. A NOT_RELEVANT verdict on
// a site that is neither news nor course is upgraded when score reaches the
// threshold.
func (c *Classifier) Classify(window, company, keyword string, score float64, site SiteType) domain.RelevanceVerdict {
	m := c.terms.Match(window)

	v := domain.RelevanceVerdict{
		Verdict:     domain.NotRelevant,
		Tier:        domain.TierLow,
		Category:    domain.CategoryNone,
		Explanation: ExplainNoCategory,
		Score:       score,
	}

	switch {
	case len(m.Terms(vocabulary.Partnership)) > 0:
		terms := m.Terms(vocabulary.Partnership)
		v = relevant(v, domain.TierHigh, domain.CategoryPartnership, terms,
			fmt.Sprintf("%s and %s are connected through strong partnership terms: %s.", company, keyword, joinTerms(terms)))

	case len(m.Terms(vocabulary.Usage)) > 0:
		terms := m.Terms(vocabulary.Usage)
		v = relevant(v, domain.TierHigh, domain.CategoryUsage, terms,
			fmt.Sprintf("%s and %s are connected through usage-related terms: %s.", company, keyword, joinTerms(terms)))

	case len(m.Terms(vocabulary.Hiring)) > 0:
		terms := m.Terms(vocabulary.Hiring)
		v = relevant(v, domain.TierMedium, domain.CategoryHiring, terms,
			fmt.Sprintf("%s and %s are connected through hiring-related terms: %s.", company, keyword, joinTerms(terms)))

	case len(m.Terms(vocabulary.Discussion)) > 0:
		terms := m.Terms(vocabulary.Discussion)
		v.Category = domain.CategoryDiscussion
		v.MatchedTerms = terms
		if site.Editorial() {
			v.Explanation = fmt.Sprintf(
				"Site is news/course related; only discussion terms found, but no strong partnership or usage: %s.",
				joinTerms(terms))
		} else {
			v = relevant(v, domain.TierLow, domain.CategoryDiscussion, terms,
				fmt.Sprintf("%s and %s are connected through discussion-related terms: %s.", company, keyword, joinTerms(terms)))
		}
	}

	if v.Verdict == domain.NotRelevant && score >= c.threshold && !site.Editorial() {
		v.Verdict = domain.Relevant
		v.Tier = domain.TierMedium
		v.Category = domain.CategoryScore
		v.Explanation = fmt.Sprintf("Strong semantic match (score: %.2f) despite weak term matches.", score)
	}

	if v.Verdict == domain.NotRelevant && site.Editorial() {
		v.Explanation = explainEditorialNote + v.Explanation
	}

	return v
}

// TooShort returns a gate verdict when text cannot carry evidence.
func (c *Classifier) TooShort(text string) (domain.RelevanceVerdict, bool) {
	if len([]rune(strings.TrimSpace(text))) < c.minTextChars {
		return domain.GateVerdict(ExplainTooShort), true
	}
	return domain.RelevanceVerdict{}, false
}

// WrongExpansion returns a gate verdict when keyword is a known acronym that
// the text uses without ever spelling out its expected expansion.
func (c *Classifier) WrongExpansion(text, keyword string) (domain.RelevanceVerdict, bool) {
	if c.disableAcronymGate {
		return domain.RelevanceVerdict{}, false
	}

	expansion, ok := c.vocab.Expansion(keyword)
	if !ok {
		return domain.RelevanceVerdict{}, false
	}

	if vocabulary.ContainsWord(text, keyword) && !vocabulary.ContainsWord(text, expansion) {
		return domain.GateVerdict(fmt.Sprintf(
			"Wrong expansion of keyword '%s' found (expected '%s').", keyword, expansion)), true
	}

	return domain.RelevanceVerdict{}, false
}

func relevant(v domain.RelevanceVerdict, tier domain.Tier, category domain.Category, terms []string, explanation string) domain.RelevanceVerdict {
	v.Verdict = domain.Relevant
	v.Tier = tier
	v.Category = category
	v.MatchedTerms = terms
	v.Explanation = explanation
	return v
}

func joinTerms(terms []string) string {
	return strings.Join(terms, ", ")
}
