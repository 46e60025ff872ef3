package frontier

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/fetcher"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/retry"
	"github.com/jonesrussell/north-cloud/evidence/internal/vocabulary"
)

// skippedLinkPrefixes never lead to crawlable pages.
var skippedLinkPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// Fetcher is the subset of the content fetcher the crawler needs.
type Fetcher interface {
	FetchStatic(ctx context.Context, url string) *domain.Resource
	FetchRendered(ctx context.Context, url string) *domain.Resource
}

// RobotsPolicy answers robots.txt questions. A nil policy allows everything.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) bool
	CrawlDelay(host string) time.Duration
}

// Options bound a single crawl.
type Options struct {
	// DomainFilter restricts followed links to this host and its subdomains.
	// When empty, links are followed only within the host they were found on.
	DomainFilter string
	MaxDepth     int
	// ResultBudget stops the crawl once this many distinct keywords matched.
	// Zero disables the budget.
	ResultBudget int
	Keywords     []string
	MaxPages     int
	// SeedsOnly fetches the seeds without following any of their links.
	SeedsOnly bool
}

// Page is one fetched URL.
type Page struct {
	Resource *domain.Resource
	Depth    int
}

// Result holds the outcome of a crawl.
type Result struct {
	// Pages are in fetch order, failures included.
	Pages []Page
	// Matches maps each matched keyword to the URLs mentioning it, in fetch order.
	Matches map[string][]string
	// Skipped counts URLs dropped by robots.txt or the recruitment filter.
	Skipped int
}

// MatchedKeywords returns the number of distinct keywords found.
func (r *Result) MatchedKeywords() int { return len(r.Matches) }

// Resource returns the fetched resource for url, if any.
func (r *Result) Resource(rawURL string) (*domain.Resource, bool) {
	for _, p := range r.Pages {
		if p.Resource.URL == rawURL {
			return p.Resource, true
		}
	}
	return nil, false
}

// FirstFailure returns the first failed seed page, if any.
func (r *Result) FirstFailure() (*domain.Resource, bool) {
	for _, p := range r.Pages {
		if p.Depth == 0 && p.Resource.Failure != nil {
			return p.Resource, true
		}
	}
	return nil, false
}

// Crawler walks pages breadth first.
type Crawler struct {
	cfg       Config
	fetcher   Fetcher
	robots    RobotsPolicy
	scheduler *Scheduler
	log       logger.Logger
}

// New creates a Crawler. robots may be nil.
func New(cfg Config, f Fetcher, robots RobotsPolicy, log logger.Logger) *Crawler {
	cfg = cfg.WithDefaults()
	return &Crawler{
		cfg:       cfg,
		fetcher:   f,
		robots:    robots,
		scheduler: NewScheduler(cfg.MinInterval),
		log:       log,
	}
}

type queued struct {
	url   string
	depth int
}

// Crawl fetches seeds and the links reachable from them. It returns the
// partial result together with the context error when ctx ends early.
func (c *Crawler) Crawl(ctx context.Context, seeds []string, opts Options) (*Result, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = c.cfg.MaxDepth
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}

	patterns := make(map[string]*regexp.Regexp, len(opts.Keywords))
	for _, kw := range opts.Keywords {
		patterns[kw] = vocabulary.WordPattern(kw)
	}

	result := &Result{Matches: make(map[string][]string)}
	visited := make(map[string]struct{})
	queue := make([]queued, 0, len(seeds))
	for _, seed := range seeds {
		queue = append(queue, queued{url: fetcher.NormalizeInput(seed)})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("crawl: %w", err)
		}
		if len(result.Pages) >= maxPages {
			break
		}
		if opts.ResultBudget > 0 && result.MatchedKeywords() >= opts.ResultBudget {
			break
		}

		item := queue[0]
		queue = queue[1:]

		key, err := NormalizeURL(item.url)
		if err != nil {
			continue
		}
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		if c.skip(ctx, item.url) {
			result.Skipped++
			continue
		}

		if err := c.wait(ctx, item.url); err != nil {
			return result, fmt.Errorf("crawl: %w", err)
		}

		res := c.fetch(ctx, item)
		result.Pages = append(result.Pages, Page{Resource: res, Depth: item.depth})
		c.log.Debug("Crawled page",
			logger.URL(res.URL),
			logger.Int("depth", item.depth),
			logger.String("kind", string(res.Kind)),
		)

		if !res.OK() {
			continue
		}

		for _, kw := range opts.Keywords {
			if patterns[kw].MatchString(res.Text) {
				result.Matches[kw] = append(result.Matches[kw], res.URL)
			}
		}

		if opts.SeedsOnly || item.depth+1 > maxDepth || res.Kind != domain.KindHTML {
			continue
		}
		filter := opts.DomainFilter
		if filter == "" {
			filter = CanonicalHost(res.URL)
		}
		for _, link := range ExtractLinks(res.URL, res.HTML) {
			if linkHost, ok := hostOf(link); ok && HostMatches(linkHost, filter) {
				queue = append(queue, queued{url: link, depth: item.depth + 1})
			}
		}
	}

	return result, nil
}

// skip reports whether a URL is a recruitment page or disallowed by robots.txt.
func (c *Crawler) skip(ctx context.Context, rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, token := range c.cfg.SkipTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return c.robots != nil && !c.robots.Allowed(ctx, rawURL)
}

func (c *Crawler) wait(ctx context.Context, rawURL string) error {
	host, ok := hostOf(rawURL)
	if !ok {
		return nil
	}
	var delay time.Duration
	if c.robots != nil {
		delay = c.robots.CrawlDelay(host)
	}
	return c.scheduler.Wait(ctx, host, delay)
}

// fetch loads a page statically, rendering it when the static body had no
// text. Seeds get one retry on transient failures.
func (c *Crawler) fetch(ctx context.Context, item queued) *domain.Resource {
	var res *domain.Resource
	if item.depth == 0 {
		policy := retry.Once(c.cfg.SeedRetryDelay)
		policy.OnRetry = func(attempt int, err error) {
			c.log.Info("Retrying seed fetch",
				logger.URL(item.url),
				logger.Int("attempt", attempt),
				logger.Error(err),
			)
		}
		_ = retry.Retry(ctx, policy, func() error {
			res = c.fetcher.FetchStatic(ctx, item.url)
			if res.Failure != nil && res.Kind == domain.KindFetchFailed {
				return res.Failure
			}
			return nil
		})
	} else {
		res = c.fetcher.FetchStatic(ctx, item.url)
	}

	if c.needsRender(res) {
		rendered := c.fetcher.FetchRendered(ctx, item.url)
		if rendered.OK() || !res.OK() {
			res = rendered
		}
	}
	return res
}

func (c *Crawler) needsRender(res *domain.Resource) bool {
	if c.cfg.DisableRenderFallback || fetcher.IsDocumentURL(res.URL) {
		return false
	}
	if strings.TrimSpace(res.Text) != "" {
		return false
	}
	return res.Kind == domain.KindHTML || res.Kind == domain.KindFetchFailed
}

// ExtractLinks returns the absolute http(s) links of an HTML page, resolved
// against pageURL, without fragments and in document order.
func ExtractLinks(pageURL, markup string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || hasSkippedPrefix(href) {
			return
		}
		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		links = append(links, abs.String())
	})
	return links
}

func hasSkippedPrefix(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range skippedLinkPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.Host, true
}
