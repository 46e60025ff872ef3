package pipeline

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/evidence/internal/discovery"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/frontier"
	"github.com/jonesrussell/north-cloud/evidence/internal/input"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/metrics"
)

// Crawler walks a company's pages.
type Crawler interface {
	Crawl(ctx context.Context, seeds []string, opts frontier.Options) (*frontier.Result, error)
}

// SeedDiscoverer proposes crawl seeds for a company.
type SeedDiscoverer interface {
	Discover(ctx context.Context, company domain.Company, keywords []string) (discovery.Seeds, error)
}

// ResourceAnalyzer decides the evidence for one resource.
type ResourceAnalyzer interface {
	Analyze(ctx context.Context, in Input) domain.Evidence
}

// Investigator gathers one Evidence per keyword for a company.
type Investigator struct {
	cfg        Config
	crawler    Crawler
	discoverer SeedDiscoverer
	analyzer   ResourceAnalyzer
	metrics    *metrics.Metrics
	log        logger.Logger
}

// NewInvestigator creates an Investigator. discoverer may be nil, in which
// case the company URL is the only seed.
func NewInvestigator(
	cfg Config,
	crawler Crawler,
	discoverer SeedDiscoverer,
	analyzer ResourceAnalyzer,
	m *metrics.Metrics,
	log logger.Logger,
) *Investigator {
	return &Investigator{
		cfg:        cfg.WithDefaults(),
		crawler:    crawler,
		discoverer: discoverer,
		analyzer:   analyzer,
		metrics:    m,
		log:        log,
	}
}

type seedPlan struct {
	seeds      []string
	thirdParty bool
}

// Investigate crawls the company's seeds and picks the strongest verdict per
// keyword. The record holds exactly one Evidence per keyword, in keyword
// order. A non-nil error means ctx ended and the record is incomplete.
func (inv *Investigator) Investigate(ctx context.Context, company domain.Company, keywords []domain.Keyword) (*domain.CompanyRecord, error) {
	record := domain.NewCompanyRecord(company)
	log := inv.log.With(logger.Company(company.Name))

	terms := input.Terms(keywords)
	plan := inv.seeds(ctx, company, terms, log)

	opts := frontier.Options{
		DomainFilter: company.Domain,
		Keywords:     terms,
		ResultBudget: len(terms),
		SeedsOnly:    plan.thirdParty,
	}
	if plan.thirdParty {
		opts.DomainFilter = ""
	}

	result, err := inv.crawler.Crawl(ctx, plan.seeds, opts)
	if err != nil {
		return record, fmt.Errorf("investigate %s: %w", company.Name, err)
	}
	log.Debug("Crawl finished",
		logger.Int("pages", len(result.Pages)),
		logger.Int("skipped", result.Skipped),
		logger.Int("matched_keywords", result.MatchedKeywords()))

	seedFailure := inv.seedFailure(result)

	relevant := 0
	for _, kw := range keywords {
		if inv.cfg.ResultBudget > 0 && relevant >= inv.cfg.ResultBudget {
			record.Add(placeholder(kw, domain.GateVerdict(ExplainBudgetReached)))
			continue
		}

		ev, found, kwErr := inv.investigateKeyword(ctx, company, kw, result, plan.thirdParty)
		if kwErr != nil {
			return record, fmt.Errorf("investigate %s: %w", company.Name, kwErr)
		}
		if !found {
			ev = inv.notFound(kw, seedFailure)
		}
		if ev.Verdict.Verdict == domain.Relevant {
			relevant++
		}
		record.Add(ev)
	}

	return record, nil
}

// seeds resolves the crawl entry points: discovered own-site pages, then
// discovered third-party pages, then the company URL.
func (inv *Investigator) seeds(ctx context.Context, company domain.Company, terms []string, log logger.Logger) seedPlan {
	fallback := seedPlan{seeds: []string{company.URL}}
	if inv.discoverer == nil {
		return fallback
	}

	found, err := inv.discoverer.Discover(ctx, company, terms)
	if err != nil {
		log.Warn("Discovery failed, crawling company URL", logger.Error(err))
		inv.metrics.RecordFailure(domain.FailureCapability)
	}

	switch {
	case len(found.OwnSite) > 0:
		return seedPlan{seeds: found.OwnSite}
	case len(found.ThirdParty) > 0:
		return seedPlan{seeds: found.ThirdParty, thirdParty: true}
	default:
		return fallback
	}
}

// investigateKeyword analyzes up to MaxPagesPerKeyword pages that mention kw
// and returns the strongest evidence.
func (inv *Investigator) investigateKeyword(
	ctx context.Context,
	company domain.Company,
	kw domain.Keyword,
	result *frontier.Result,
	thirdParty bool,
) (domain.Evidence, bool, error) {
	var (
		best     domain.Evidence
		found    bool
		analyzed int
	)

	for _, pageURL := range result.Matches[kw.Term] {
		if analyzed >= inv.cfg.MaxPagesPerKeyword {
			break
		}
		if err := ctx.Err(); err != nil {
			return best, found, err
		}

		res, ok := result.Resource(pageURL)
		if !ok {
			continue
		}
		if thirdParty && !discovery.IsRelevantThirdParty(res.Text, company.Name) {
			continue
		}
		analyzed++

		ev := inv.analyzer.Analyze(ctx, Input{Company: company, Keyword: kw, Resource: res})
		if !found || ev.Verdict.Stronger(best.Verdict) {
			best = ev
			found = true
		}
	}

	return best, found, nil
}

func (inv *Investigator) seedFailure(result *frontier.Result) *domain.Resource {
	for _, p := range result.Pages {
		if p.Resource.OK() {
			return nil
		}
	}
	if res, ok := result.FirstFailure(); ok {
		return res
	}
	return nil
}

// notFound builds the placeholder for a keyword no page mentioned. When every
// seed failed to load, the load failure is the explanation.
func (inv *Investigator) notFound(kw domain.Keyword, seedFailure *domain.Resource) domain.Evidence {
	if seedFailure == nil {
		return placeholder(kw, domain.GateVerdict(ExplainKeywordNotFound))
	}
	ev := placeholder(kw, domain.GateVerdict(failureExplanation(seedFailure)))
	ev.URL = seedFailure.URL
	ev.Kind = seedFailure.Kind
	return ev
}

func placeholder(kw domain.Keyword, v domain.RelevanceVerdict) domain.Evidence {
	return domain.Evidence{
		Keyword:    kw.Term,
		Provider:   kw.Provider,
		Verdict:    v,
		Date:       domain.NoDate(),
		OCRSummary: domain.Placeholder,
	}
}
