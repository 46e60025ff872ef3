// Package pipeline wires fetching, crawling and classification into
// per-URL analysis, per-company investigation and whole runs.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/evidence/internal/capability"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/metrics"
	"github.com/jonesrussell/north-cloud/evidence/internal/relevance"
	"github.com/jonesrussell/north-cloud/evidence/internal/scoring"
	"github.com/jonesrussell/north-cloud/evidence/internal/vocabulary"
)

// Gate explanations produced by the analyzer.
const (
	ExplainInvalidPDF       = "Invalid PDF file detected."
	ExplainUnsupported      = "Unsupported content type."
	ExplainNoWindows        = "No relevant text chunks found around keyword or no general terms."
	ExplainNoScoredWindows  = "No semantically relevant chunks found after filtering."
	ExplainKeywordNotFound  = "Keyword not found on any crawled page."
	ExplainBudgetReached    = "Result budget reached before keyword was investigated."
	explainLoadFailedFormat = "Content loading failed: %s."
	ocrNotePrefix           = " (Note: OCR detected keywords in images: "
)

// defaultNonLatinRatio applies when WithTranslator is given no ratio.
const defaultNonLatinRatio = 0.3

// WindowExtractor carves evidence windows around a keyword.
type WindowExtractor interface {
	Extract(text, keyword string) []domain.EvidenceWindow
}

// WindowScorer ranks windows against the company/keyword question.
type WindowScorer interface {
	Score(ctx context.Context, company, keyword string, windows []domain.EvidenceWindow) ([]scoring.Scored, error)
}

// DateInferrer estimates a resource's publication date.
type DateInferrer interface {
	Infer(res *domain.Resource) domain.DateEstimate
}

// ImageScanner finds keywords in page images.
type ImageScanner interface {
	Scan(ctx context.Context, pageURL string, keywords []string) (capability.ImageMatches, error)
}

// Input is one (company, keyword, resource) triple.
type Input struct {
	Company  domain.Company
	Keyword  domain.Keyword
	Resource *domain.Resource
}

// Analyzer decides the evidence for a single fetched resource.
type Analyzer struct {
	extractor     WindowExtractor
	scorer        WindowScorer
	classifier    *relevance.Classifier
	dates         DateInferrer
	acronyms      []string
	translator    capability.Translator
	images        ImageScanner
	nonLatinRatio float64
	metrics       *metrics.Metrics
	log           logger.Logger
}

// AnalyzerOption configures optional collaborators.
type AnalyzerOption func(*Analyzer)

// WithTranslator enables translation of non-English text.
func WithTranslator(t capability.Translator, nonLatinRatio float64) AnalyzerOption {
	return func(a *Analyzer) {
		a.translator = t
		if nonLatinRatio > 0 {
			a.nonLatinRatio = nonLatinRatio
		}
	}
}

// WithImageScanner enables OCR of page images.
func WithImageScanner(s ImageScanner) AnalyzerOption {
	return func(a *Analyzer) { a.images = s }
}

// WithMetrics records verdicts and failures.
func WithMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

// NewAnalyzer creates an Analyzer. vocab supplies the acronym keys that are
// looked for in images alongside the keyword.
func NewAnalyzer(
	extractor WindowExtractor,
	scorer WindowScorer,
	classifier *relevance.Classifier,
	dates DateInferrer,
	vocab vocabulary.Vocabulary,
	log logger.Logger,
	opts ...AnalyzerOption,
) *Analyzer {
	a := &Analyzer{
		extractor:     extractor,
		scorer:        scorer,
		classifier:    classifier,
		dates:         dates,
		acronyms:      vocab.AcronymKeys(),
		nonLatinRatio: defaultNonLatinRatio,
		log:           log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the gates and, when they pass, classifies the best-scoring
// window. It always returns a well-formed Evidence.
func (a *Analyzer) Analyze(ctx context.Context, in Input) domain.Evidence {
	res := in.Resource
	ev := domain.Evidence{
		Keyword:  in.Keyword.Term,
		Provider: in.Keyword.Provider,
		Date:     domain.NoDate(),
	}
	if res == nil {
		ev.Verdict = domain.GateVerdict(loadFailed(nil))
		return a.finish(ev)
	}
	ev.URL = res.URL
	ev.Kind = res.Kind

	if res.Kind.IsFailure() || res.Kind == domain.KindUnsupported {
		ev.Verdict = domain.GateVerdict(failureExplanation(res))
		return a.finish(ev)
	}

	ev.Date = a.dates.Infer(res)

	text := res.Text
	if v, short := a.classifier.TooShort(text); short {
		ev.Verdict = v
		return a.finish(ev)
	}

	text = a.translate(ctx, res.URL, text)

	if v, wrong := a.classifier.WrongExpansion(text, in.Keyword.Term); wrong {
		ev.Verdict = v
		return a.finish(ev)
	}

	ocr := a.scanImages(ctx, res, in.Keyword.Term)
	ev.OCRSummary = ocr.Summary()

	windows := a.extractor.Extract(text, in.Keyword.Term)
	if len(windows) == 0 {
		ev.Verdict = domain.GateVerdict(ExplainNoWindows)
		return a.finish(ev)
	}
	for i := range windows {
		windows[i].URL = res.URL
	}

	scored, err := a.scorer.Score(ctx, in.Company.Name, in.Keyword.Term, windows)
	if err != nil {
		a.log.Warn("Scoring failed",
			logger.URL(res.URL),
			logger.Keyword(in.Keyword.Term),
			logger.Error(err))
		a.metrics.RecordFailure(domain.FailureScoring)
	}
	best, ok := scoring.Best(scored)
	if !ok {
		ev.Verdict = domain.GateVerdict(ExplainNoScoredWindows)
		return a.finish(ev)
	}

	site := a.classifier.ClassifySite(res.URL)
	v := a.classifier.Classify(best.Window.Text, in.Company.Name, in.Keyword.Term, best.Similarity, site)
	v.Window = best.Window
	if v.Verdict == domain.NotRelevant && len(ocr) > 0 {
		v.Explanation += ocrNotePrefix + ev.OCRSummary + ")"
	}
	ev.Verdict = v

	return a.finish(ev)
}

func (a *Analyzer) finish(ev domain.Evidence) domain.Evidence {
	if ev.OCRSummary == "" {
		ev.OCRSummary = domain.Placeholder
	}
	return ev
}

// translate returns English text, or text unchanged when translation is
// disabled, unnecessary or failed.
func (a *Analyzer) translate(ctx context.Context, pageURL, text string) string {
	if a.translator == nil || !capability.NeedsTranslation(text, a.nonLatinRatio) {
		return text
	}
	out, err := a.translator.TranslateToEnglish(ctx, text)
	if err != nil {
		a.log.Warn("Translation failed, using original text", logger.URL(pageURL), logger.Error(err))
		a.metrics.RecordFailure(domain.FailureCapability)
		return text
	}
	return out
}

func (a *Analyzer) scanImages(ctx context.Context, res *domain.Resource, keyword string) capability.ImageMatches {
	if a.images == nil || res.Kind != domain.KindHTML {
		return nil
	}
	keywords := append([]string{keyword}, a.acronyms...)
	matches, err := a.images.Scan(ctx, res.URL, keywords)
	if err != nil {
		a.log.Debug("Image scan failed", logger.URL(res.URL), logger.Error(err))
		a.metrics.RecordFailure(domain.FailureCapability)
		return nil
	}
	return matches
}

// failureExplanation describes a resource that carries no usable content.
func failureExplanation(res *domain.Resource) string {
	switch res.Kind {
	case domain.KindInvalidPDF:
		return ExplainInvalidPDF
	case domain.KindUnsupported:
		return ExplainUnsupported
	default:
		return loadFailed(res.Failure)
	}
}

func loadFailed(f *domain.Failure) string {
	reason := "unknown error"
	if f != nil && strings.TrimSpace(f.Reason) != "" {
		reason = strings.TrimSuffix(strings.TrimSpace(f.Reason), ".")
	}
	return fmt.Sprintf(explainLoadFailedFormat, reason)
}
