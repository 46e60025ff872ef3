package common

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/evidence/internal/capability"
	"github.com/jonesrussell/north-cloud/evidence/internal/config"
	"github.com/jonesrussell/north-cloud/evidence/internal/dates"
	"github.com/jonesrussell/north-cloud/evidence/internal/discovery"
	"github.com/jonesrussell/north-cloud/evidence/internal/fetcher"
	"github.com/jonesrussell/north-cloud/evidence/internal/frontier"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/metrics"
	"github.com/jonesrussell/north-cloud/evidence/internal/pipeline"
	"github.com/jonesrussell/north-cloud/evidence/internal/relevance"
	"github.com/jonesrussell/north-cloud/evidence/internal/scoring"
	"github.com/jonesrussell/north-cloud/evidence/internal/vocabulary"
	"github.com/jonesrussell/north-cloud/evidence/internal/windows"
)

// Components is the wired analysis stack shared by run, analyze and serve.
type Components struct {
	Fetcher      *fetcher.Fetcher
	Analyzer     *pipeline.Analyzer
	Investigator *pipeline.Investigator
	Metrics      *metrics.Metrics
	// RenderEnabled reports whether a headless browser is configured.
	RenderEnabled bool

	closers []func() error
}

// BuildComponents wires every collaborator from cfg. Optional capabilities
// (cache, discovery, OCR, translation) are attached only when configured.
func BuildComponents(cfg *config.Config, log logger.Logger) (*Components, error) {
	c := &Components{Metrics: metrics.New()}

	vocab := vocabulary.Default()
	if cfg.Relevance.VocabularyFile != "" {
		loaded, err := vocabulary.Load(cfg.Relevance.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		vocab = loaded
	}
	terms := vocabulary.NewMatcher(vocab)

	fetchOpts := []fetcher.Option{fetcher.WithObserver(c.Metrics.ObserveFetch)}
	if !cfg.Render.Disabled {
		renderer := fetcher.NewChromeRenderer(cfg.Render, cfg.Fetcher.UserAgent, !cfg.Fetcher.StrictTLS)
		c.closers = append(c.closers, func() error { renderer.Close(); return nil })
		fetchOpts = append(fetchOpts, fetcher.WithRenderer(renderer))
		c.RenderEnabled = true
	}
	if cfg.Cache.Enabled {
		cache, err := fetcher.NewRedisCache(cfg.Cache)
		if err != nil {
			log.Warn("Fetch cache unavailable, continuing without it", logger.Error(err))
		} else {
			c.closers = append(c.closers, cache.Close)
			fetchOpts = append(fetchOpts, fetcher.WithCache(cache))
		}
	}
	c.Fetcher = fetcher.New(cfg.Fetcher, log, fetchOpts...)

	var robots frontier.RobotsPolicy
	if !cfg.Fetcher.DisableRobots {
		robots = fetcher.NewRobots(c.Fetcher.Client(), c.Fetcher.UserAgent(), cfg.Fetcher.RobotsCacheTTL)
	}
	crawler := frontier.New(crawlConfig(cfg.Crawl, vocab), c.Fetcher, robots, log)

	embedder, err := scoring.NewEmbedder(cfg.Scoring)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	scorer := scoring.NewScorer(cfg.Scoring, embedder, log)
	c.closers = append(c.closers, scorer.Close)

	var analyzerOpts []pipeline.AnalyzerOption
	analyzerOpts = append(analyzerOpts, pipeline.WithMetrics(c.Metrics))
	if cfg.Translation.Enabled() {
		analyzerOpts = append(analyzerOpts,
			pipeline.WithTranslator(capability.NewAnthropicTranslator(cfg.Translation), cfg.Translation.NonLatinRatio))
	}
	if cfg.OCR.Enabled() && !cfg.Pipeline.DisableOCR {
		ocr := capability.NewOCRClient(cfg.OCR, log)
		scanner := capability.NewImageScanner(cfg.OCR, ocr, c.Fetcher.Client(), c.Fetcher.UserAgent(), log)
		analyzerOpts = append(analyzerOpts, pipeline.WithImageScanner(scanner))
	}

	c.Analyzer = pipeline.NewAnalyzer(
		windows.New(cfg.Windows, terms),
		scorer,
		relevance.New(cfg.Relevance, vocab, terms),
		dates.New(cfg.Dates),
		vocab,
		log,
		analyzerOpts...,
	)

	var discoverer pipeline.SeedDiscoverer
	if cfg.Discovery.Enabled() {
		discoverer = discovery.NewDiscoverer(discovery.NewClient(cfg.Discovery, log), log)
	}
	c.Investigator = pipeline.NewInvestigator(cfg.Pipeline, crawler, discoverer, c.Analyzer, c.Metrics, log)

	return c, nil
}

// crawlConfig falls back to the vocabulary's career tokens when the crawl
// section sets no skip tokens of its own.
func crawlConfig(crawl frontier.Config, vocab vocabulary.Vocabulary) frontier.Config {
	if len(crawl.SkipTokens) == 0 && len(vocab.CareerURLTokens) > 0 {
		crawl.SkipTokens = vocab.CareerURLTokens
	}
	return crawl
}

// Close releases the browser, cache connection and embedding model.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
