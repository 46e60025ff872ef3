package domain

// Placeholder fills record fields when there is no evidence.
const Placeholder = "-"

// EvidenceWindow is a bounded span of text around a keyword occurrence, or
// the fallback prefix of a document that mentions domain terms.
type EvidenceWindow struct {
	Text    string `json:"text"`
	URL     string `json:"url"`
	Keyword string `json:"keyword"`
	// Index is the window's position in extraction order; it breaks score ties.
	Index    int  `json:"index"`
	Fallback bool `json:"fallback,omitempty"`
}

// Verdict is the relevance decision.
type Verdict string

const (
	Relevant    Verdict = "RELEVANT"
	NotRelevant Verdict = "NOT_RELEVANT"
)

// Tier is the confidence attached to a verdict.
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// Rank orders tiers; higher is stronger.
func (t Tier) Rank() int {
	switch t {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	default:
		return 0
	}
}

// Category names what drove a verdict.
type Category string

const (
	CategoryPartnership Category = "partnership"
	CategoryUsage       Category = "usage"
	CategoryHiring      Category = "hiring"
	CategoryDiscussion  Category = "discussion"
	CategoryScore       Category = "score"
	CategoryNone        Category = "none"
	// CategoryGate marks verdicts decided before classification (fetch
	// failure, invalid document, short text, wrong acronym expansion).
	CategoryGate Category = "gate"
)

// RelevanceVerdict is the classification of one (company, keyword, resource).
type RelevanceVerdict struct {
	Verdict      Verdict        `json:"verdict"`
	Tier         Tier           `json:"tier"`
	Explanation  string         `json:"explanation"`
	Category     Category       `json:"category"`
	MatchedTerms []string       `json:"matched_terms,omitempty"`
	Score        float64        `json:"score"`
	Window       EvidenceWindow `json:"window"`
}

// Stronger reports whether v should replace o as the best verdict for a keyword.
// RELEVANT beats NOT_RELEVANT, then tier, then semantic score; ties keep o.
func (v RelevanceVerdict) Stronger(o RelevanceVerdict) bool {
	if v.Verdict != o.Verdict {
		return v.Verdict == Relevant
	}
	if v.Tier.Rank() != o.Tier.Rank() {
		return v.Tier.Rank() > o.Tier.Rank()
	}
	return v.Score > o.Score
}

// GateVerdict builds a NOT_RELEVANT/LOW verdict decided before classification.
func GateVerdict(explanation string) RelevanceVerdict {
	return RelevanceVerdict{
		Verdict:     NotRelevant,
		Tier:        TierLow,
		Explanation: explanation,
		Category:    CategoryGate,
	}
}

// Evidence is the outcome of investigating one keyword for one company.
type Evidence struct {
	Keyword    string           `json:"keyword"`
	Provider   string           `json:"provider,omitempty"`
	URL        string           `json:"url"`
	Kind       ContentKind      `json:"content_kind"`
	Verdict    RelevanceVerdict `json:"verdict"`
	Date       DateEstimate     `json:"date"`
	OCRSummary string           `json:"ocr_summary,omitempty"`
}

// HasURL reports whether the evidence points at a real resource.
func (e Evidence) HasURL() bool {
	return e.URL != "" && e.URL != Placeholder
}
