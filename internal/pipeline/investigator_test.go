package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/evidence/internal/discovery"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/fetcher"
	"github.com/jonesrussell/north-cloud/evidence/internal/frontier"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/pipeline"
)

type fakeCrawler struct {
	result *frontier.Result
	err    error
	seeds  []string
	opts   frontier.Options
}

func (c *fakeCrawler) Crawl(_ context.Context, seeds []string, opts frontier.Options) (*frontier.Result, error) {
	c.seeds = seeds
	c.opts = opts
	return c.result, c.err
}

type fakeDiscoverer struct {
	seeds discovery.Seeds
	err   error
}

func (d fakeDiscoverer) Discover(context.Context, domain.Company, []string) (discovery.Seeds, error) {
	return d.seeds, d.err
}

// verdictAnalyzer returns a preset verdict per URL.
type verdictAnalyzer struct {
	mu       sync.Mutex
	verdicts map[string]domain.RelevanceVerdict
	analyzed []string
}

func (a *verdictAnalyzer) Analyze(_ context.Context, in pipeline.Input) domain.Evidence {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.analyzed = append(a.analyzed, in.Keyword.Term+"@"+in.Resource.URL)
	return domain.Evidence{
		Keyword:  in.Keyword.Term,
		Provider: in.Keyword.Provider,
		URL:      in.Resource.URL,
		Kind:     in.Resource.Kind,
		Verdict:  a.verdicts[in.Resource.URL],
	}
}

func relevantAt(tier domain.Tier, score float64) domain.RelevanceVerdict {
	return domain.RelevanceVerdict{Verdict: domain.Relevant, Tier: tier, Score: score}
}

func htmlPage(url, text string) frontier.Page {
	return frontier.Page{Resource: fetcher.NewHTMLResource(url, "<p>"+text+"</p>", domain.ViaHTTP)}
}

var acme = domain.Company{Name: "Acme", Domain: "acme.com", URL: "https://acme.com"}

func keywords(terms ...string) []domain.Keyword {
	out := make([]domain.Keyword, len(terms))
	for i, t := range terms {
		out[i] = domain.Keyword{Term: t, Provider: "p-" + t}
	}
	return out
}

func TestInvestigate_StrongestVerdictPerKeyword(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{result: &frontier.Result{
		Pages: []frontier.Page{
			htmlPage("https://acme.com/1", "widgetly"),
			htmlPage("https://acme.com/2", "widgetly"),
			htmlPage("https://acme.com/3", "widgetly"),
			htmlPage("https://acme.com/4", "widgetly"),
		},
		Matches: map[string][]string{
			"widgetly": {"https://acme.com/1", "https://acme.com/2", "https://acme.com/3", "https://acme.com/4"},
		},
	}}
	analyzer := &verdictAnalyzer{verdicts: map[string]domain.RelevanceVerdict{
		"https://acme.com/1": domain.GateVerdict("nothing"),
		"https://acme.com/2": relevantAt(domain.TierMedium, 0.3),
		"https://acme.com/3": relevantAt(domain.TierMedium, 0.5),
		"https://acme.com/4": relevantAt(domain.TierHigh, 0.9),
	}}

	inv := pipeline.NewInvestigator(pipeline.Config{}, crawler, nil, analyzer, nil, logger.NewNop())
	record, err := inv.Investigate(context.Background(), acme, keywords("widgetly", "gizmo"))

	require.NoError(t, err)
	require.Len(t, record.Evidence, 2)

	best := record.Evidence[0]
	assert.Equal(t, "https://acme.com/3", best.URL)
	assert.Equal(t, "p-widgetly", best.Provider)
	assert.Len(t, analyzer.analyzed, 3)

	missing := record.Evidence[1]
	assert.Equal(t, "gizmo", missing.Keyword)
	assert.Equal(t, pipeline.ExplainKeywordNotFound, missing.Verdict.Explanation)
	assert.Equal(t, domain.NotRelevant, missing.Verdict.Verdict)
	assert.Empty(t, missing.URL)

	assert.Equal(t, []string{"https://acme.com"}, crawler.seeds)
	assert.Equal(t, "acme.com", crawler.opts.DomainFilter)
	assert.Equal(t, []string{"widgetly", "gizmo"}, crawler.opts.Keywords)
	assert.Equal(t, 2, crawler.opts.ResultBudget)
	assert.False(t, crawler.opts.SeedsOnly)
}

func TestInvestigate_SeedFailureExplainsMissingKeywords(t *testing.T) {
	t.Parallel()

	failed := domain.FailedResource("https://acme.com", domain.ViaHTTP, domain.NewFetchFailure("http", "http status 503", nil))
	crawler := &fakeCrawler{result: &frontier.Result{
		Pages:   []frontier.Page{{Resource: failed}},
		Matches: map[string][]string{},
	}}

	inv := pipeline.NewInvestigator(pipeline.Config{}, crawler, nil, &verdictAnalyzer{}, nil, logger.NewNop())
	record, err := inv.Investigate(context.Background(), acme, keywords("widgetly"))

	require.NoError(t, err)
	require.Len(t, record.Evidence, 1)
	ev := record.Evidence[0]
	assert.Equal(t, "Content loading failed: http status 503.", ev.Verdict.Explanation)
	assert.Equal(t, "https://acme.com", ev.URL)
	assert.Equal(t, domain.KindFetchFailed, ev.Kind)
}

func TestInvestigate_ResultBudget(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{result: &frontier.Result{
		Pages: []frontier.Page{htmlPage("https://acme.com/a", "a b c")},
		Matches: map[string][]string{
			"a": {"https://acme.com/a"},
			"b": {"https://acme.com/a"},
			"c": {"https://acme.com/a"},
		},
	}}
	analyzer := &verdictAnalyzer{verdicts: map[string]domain.RelevanceVerdict{
		"https://acme.com/a": relevantAt(domain.TierHigh, 0.5),
	}}

	inv := pipeline.NewInvestigator(pipeline.Config{ResultBudget: 2}, crawler, nil, analyzer, nil, logger.NewNop())
	record, err := inv.Investigate(context.Background(), acme, keywords("a", "b", "c"))

	require.NoError(t, err)
	require.Len(t, record.Evidence, 3)
	assert.Equal(t, 2, record.RelevantCount())
	assert.Equal(t, pipeline.ExplainBudgetReached, record.Evidence[2].Verdict.Explanation)
	assert.Equal(t, "p-c", record.Evidence[2].Provider)
	assert.Len(t, analyzer.analyzed, 2)
}

func TestInvestigate_DiscoveredSeeds(t *testing.T) {
	t.Parallel()

	t.Run("own site", func(t *testing.T) {
		t.Parallel()

		crawler := &fakeCrawler{result: &frontier.Result{Matches: map[string][]string{}}}
		discoverer := fakeDiscoverer{seeds: discovery.Seeds{OwnSite: []string{"https://acme.com/partners"}}}

		inv := pipeline.NewInvestigator(pipeline.Config{}, crawler, discoverer, &verdictAnalyzer{}, nil, logger.NewNop())
		_, err := inv.Investigate(context.Background(), acme, keywords("widgetly"))

		require.NoError(t, err)
		assert.Equal(t, []string{"https://acme.com/partners"}, crawler.seeds)
		assert.Equal(t, "acme.com", crawler.opts.DomainFilter)
		assert.False(t, crawler.opts.SeedsOnly)
	})

	t.Run("third party pages must name the company", func(t *testing.T) {
		t.Parallel()

		crawler := &fakeCrawler{result: &frontier.Result{
			Pages: []frontier.Page{
				htmlPage("https://news.example/a", "Widgetly ships a new release"),
				htmlPage("https://news.example/b", "Acme and Widgetly announce a partnership"),
			},
			Matches: map[string][]string{"widgetly": {"https://news.example/a", "https://news.example/b"}},
		}}
		discoverer := fakeDiscoverer{seeds: discovery.Seeds{ThirdParty: []string{"https://news.example/a", "https://news.example/b"}}}
		analyzer := &verdictAnalyzer{verdicts: map[string]domain.RelevanceVerdict{
			"https://news.example/a": relevantAt(domain.TierHigh, 0.9),
			"https://news.example/b": relevantAt(domain.TierHigh, 0.4),
		}}

		inv := pipeline.NewInvestigator(pipeline.Config{}, crawler, discoverer, analyzer, nil, logger.NewNop())
		record, err := inv.Investigate(context.Background(), acme, keywords("widgetly"))

		require.NoError(t, err)
		assert.True(t, crawler.opts.SeedsOnly)
		assert.Empty(t, crawler.opts.DomainFilter)
		assert.Equal(t, []string{"widgetly@https://news.example/b"}, analyzer.analyzed)
		assert.Equal(t, "https://news.example/b", record.Evidence[0].URL)
	})

	t.Run("discovery failure falls back to company url", func(t *testing.T) {
		t.Parallel()

		crawler := &fakeCrawler{result: &frontier.Result{Matches: map[string][]string{}}}
		discoverer := fakeDiscoverer{err: domain.NewCapabilityFailure("discovery", "search failed", errors.New("401"))}

		inv := pipeline.NewInvestigator(pipeline.Config{}, crawler, discoverer, &verdictAnalyzer{}, nil, logger.NewNop())
		_, err := inv.Investigate(context.Background(), acme, keywords("widgetly"))

		require.NoError(t, err)
		assert.Equal(t, []string{"https://acme.com"}, crawler.seeds)
	})
}

func TestInvestigate_CrawlCancelled(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{
		result: &frontier.Result{Matches: map[string][]string{}},
		err:    context.Canceled,
	}
	inv := pipeline.NewInvestigator(pipeline.Config{}, crawler, nil, &verdictAnalyzer{}, nil, logger.NewNop())

	_, err := inv.Investigate(context.Background(), acme, keywords("widgetly"))

	require.ErrorIs(t, err, context.Canceled)
}
