package domain

import (
	"strconv"
	"time"
)

// Record is the flat, tabular form of one Evidence handed to output sinks.
type Record struct {
	RunID          string  `db:"run_id"          json:"run_id"`
	Company        string  `db:"company"         json:"company"`
	Domain         string  `db:"domain"          json:"domain"`
	Country        string  `db:"country"         json:"country"`
	URL            string  `db:"url"             json:"url"`
	Keyword        string  `db:"keyword"         json:"keyword"`
	Provider       string  `db:"provider"        json:"provider"`
	ContentKind    string  `db:"content_kind"    json:"content_kind"`
	Verdict        string  `db:"verdict"         json:"verdict"`
	Tier           string  `db:"tier"            json:"tier"`
	Explanation    string  `db:"explanation"     json:"explanation"`
	Window         string  `db:"evidence_window" json:"window"`
	Score          float64 `db:"score"           json:"score"`
	Date           string  `db:"evidence_date"   json:"date"`
	DateProvenance string  `db:"date_provenance" json:"date_provenance"`
	// DateApproximate marks a year-only date whose month is the run month.
	DateApproximate bool      `db:"date_approximate" json:"date_approximate"`
	OCRSummary      string    `db:"ocr_summary"     json:"ocr_summary"`
	ProcessedAt     time.Time `db:"processed_at"    json:"processed_at"`
}

// NewRecord flattens e, truncating the window to windowChars runes.
// Missing values become Placeholder so every field is populated.
func NewRecord(runID string, c Company, e Evidence, windowChars int, at time.Time) Record {
	window := e.Verdict.Window.Text
	if windowChars > 0 {
		window = Truncate(window, windowChars)
	}

	provenance := string(e.Date.Provenance)
	if provenance == "" {
		provenance = string(ProvenanceNone)
	}

	return Record{
		RunID:           runID,
		Company:         c.Name,
		Domain:          orPlaceholder(c.Domain),
		Country:         orPlaceholder(c.Country),
		URL:             orPlaceholder(e.URL),
		Keyword:         e.Keyword,
		Provider:        orPlaceholder(e.Provider),
		ContentKind:     orPlaceholder(string(e.Kind)),
		Verdict:         string(e.Verdict.Verdict),
		Tier:            string(e.Verdict.Tier),
		Explanation:     e.Verdict.Explanation,
		Window:          orPlaceholder(window),
		Score:           e.Verdict.Score,
		Date:            e.Date.String(),
		DateProvenance:  provenance,
		DateApproximate: e.Date.Found() && e.Date.YearOnly,
		OCRSummary:      orPlaceholder(e.OCRSummary),
		ProcessedAt:     at.UTC(),
	}
}

// Row returns the record as CSV cells, in RecordHeader order.
func (r Record) Row() []string {
	return []string{
		r.Company, r.Domain, r.Country, r.URL, r.Keyword, r.Provider,
		r.ContentKind, r.Verdict, r.Tier, r.Explanation, r.Window,
		strconv.FormatFloat(r.Score, 'f', 4, 64),
		r.Date, r.DateProvenance, strconv.FormatBool(r.DateApproximate),
		r.OCRSummary, r.RunID,
		r.ProcessedAt.Format(time.RFC3339),
	}
}

// RecordHeader is the CSV header matching Record.Row.
var RecordHeader = []string{
	"company", "domain", "country", "url", "keyword", "provider",
	"content_kind", "verdict", "tier", "explanation", "window",
	"score", "date", "date_provenance", "date_approximate", "ocr_summary", "run_id",
	"processed_at",
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
