// Package dates infers a best-effort publication (month, year) for a fetched
// resource, recording which strategy produced it.
//
// When only a year is known the month is taken from the clock. That month is
// an approximation, not a publication date, and the estimate is flagged
// YearOnly.
package dates

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

var headingTags = []string{"title", "h1", "h2", "h3"}

const footerScopeSelector = `[id*="footer"], [class*="footer"], [id*="copyright"], [class*="copyright"]`

// Engine runs the date cascade. It holds no per-call state.
type Engine struct {
	selectors []string
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the current time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine.
func New(cfg Config, opts ...Option) *Engine {
	cfg = cfg.WithDefaults()
	e := &Engine{
		selectors: cfg.Selectors,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Infer returns the first date found by, in order: PDF metadata, date
// selectors, title and headings, copyright notices, the URL, and the body
// text. It returns a none-found estimate when all of them fail.
func (e *Engine) Infer(res *domain.Resource) domain.DateEstimate {
	if res == nil || res.Kind.IsFailure() {
		return domain.NoDate()
	}

	s := scanner{now: e.now()}

	if est, ok := e.fromMetadata(s, res.Meta); ok {
		return est
	}

	var doc *goquery.Document
	if strings.TrimSpace(res.HTML) != "" {
		if parsed, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML)); err == nil {
			doc = parsed
		}
	}

	if doc != nil {
		if est, ok := e.fromSelectors(s, doc); ok {
			return est
		}
		if est, ok := fromHeadings(s, doc); ok {
			return est
		}
	}

	bodyText := res.Text
	if strings.TrimSpace(bodyText) == "" && doc != nil {
		bodyText = doc.Find("body").Text()
	}

	if est, ok := fromCopyright(s, doc, bodyText); ok {
		return est
	}

	if m, ok := s.urlDate(res.URL); ok {
		return estimate(m, domain.ProvenanceURL, "url")
	}

	if m, ok := s.scan(bodyText); ok {
		return estimate(m, domain.ProvenanceBodyText, "body")
	}

	return domain.NoDate()
}

func (e *Engine) fromMetadata(s scanner, meta map[string]string) (domain.DateEstimate, bool) {
	for _, key := range []string{domain.MetaModDate, domain.MetaCreationDate} {
		value := strings.TrimSpace(meta[key])
		if value == "" {
			continue
		}
		if m, ok := s.pdfDate(value); ok {
			return estimate(m, domain.ProvenancePDFMetadata, key), true
		}
	}
	return domain.DateEstimate{}, false
}

func (e *Engine) fromSelectors(s scanner, doc *goquery.Document) (domain.DateEstimate, bool) {
	for _, selector := range e.selectors {
		var (
			found domain.DateEstimate
			ok    bool
		)
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			for _, value := range selectionValues(sel) {
				if m, matched := s.scan(value); matched {
					found, ok = estimate(m, domain.ProvenanceSelector, selector), true
					return false
				}
			}
			return true
		})
		if ok {
			return found, true
		}
	}
	return domain.DateEstimate{}, false
}

// selectionValues returns the candidate strings of one element in the order
// they should be tried.
func selectionValues(sel *goquery.Selection) []string {
	switch goquery.NodeName(sel) {
	case "meta":
		content, _ := sel.Attr("content")
		return []string{content}
	case "time":
		datetime, _ := sel.Attr("datetime")
		return []string{datetime, sel.Text()}
	default:
		return []string{sel.Text()}
	}
}

func fromHeadings(s scanner, doc *goquery.Document) (domain.DateEstimate, bool) {
	for _, tag := range headingTags {
		var (
			found domain.DateEstimate
			ok    bool
		)
		doc.Find(tag).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if m, matched := s.scan(sel.Text()); matched {
				found, ok = estimate(m, domain.ProvenanceHeading, tag), true
				return false
			}
			return true
		})
		if ok {
			return found, true
		}
	}
	return domain.DateEstimate{}, false
}

// fromCopyright looks for copyright notices in footers first, then in
// footer-like containers, then anywhere in the text.
func fromCopyright(s scanner, doc *goquery.Document, wholeText string) (domain.DateEstimate, bool) {
	type scope struct {
		detail string
		text   string
	}

	var scopes []scope
	if doc != nil {
		scopes = append(scopes,
			scope{detail: "footer", text: doc.Find("footer").Text()},
			scope{detail: "footer-class", text: doc.Find(footerScopeSelector).Text()},
		)
	}
	scopes = append(scopes, scope{detail: "text", text: wholeText})

	for _, sc := range scopes {
		if year, ok := s.latestCopyright(sc.text); ok {
			return estimate(s.yearOnly(year), domain.ProvenanceCopyright, sc.detail), true
		}
	}
	return domain.DateEstimate{}, false
}

func estimate(m match, provenance domain.Provenance, detail string) domain.DateEstimate {
	return domain.DateEstimate{
		Month:      m.month,
		Year:       m.year,
		Provenance: provenance,
		Detail:     detail,
		YearOnly:   m.yearOnly,
	}
}
