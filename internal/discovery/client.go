// Package discovery finds candidate evidence pages through a web search API.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/evidence/internal/circuitbreaker"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/httpclient"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/retry"
)

const maxErrorBody = 2048

// resultKeys are the response fields that may carry the result list.
var resultKeys = []string{"organic_results", "organic_data", "results", "items"}

// ErrDisabled is returned when searching without an API key.
var ErrDisabled = errors.New("discovery: no api key configured")

// Searcher runs a web search and returns result links in rank order.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Seeds are the candidate pages for one company.
type Seeds struct {
	OwnSite    []string
	ThirdParty []string
}

// All returns own-site seeds followed by third-party seeds.
func (s Seeds) All() []string {
	return append(append([]string(nil), s.OwnSite...), s.ThirdParty...)
}

// Client talks to the ScrapingDog Google search endpoint.
type Client struct {
	cfg     Config
	client  *http.Client
	breaker *circuitbreaker.Breaker
	retry   retry.Config
	log     logger.Logger
}

// NewClient creates a search client.
func NewClient(cfg Config, log logger.Logger) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		cfg:    cfg,
		client: httpclient.New(httpclient.Config{Timeout: cfg.Timeout}),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "discovery",
			FailureThreshold: cfg.BreakerFailures,
			Timeout:          cfg.BreakerOpenDelay,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state change",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			},
		}),
		retry: retry.DefaultConfig(),
		log:   log,
	}
}

// Search runs query and returns up to MaxResults links.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	if !c.cfg.Enabled() {
		return nil, ErrDisabled
	}

	var links []string
	err := retry.Retry(ctx, c.retry, func() error {
		return c.breaker.Execute(ctx, func() error {
			var searchErr error
			links, searchErr = c.search(ctx, query)
			return searchErr
		})
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	if len(links) > c.cfg.MaxResults {
		links = links[:c.cfg.MaxResults]
	}
	return links, nil
}

func (c *Client) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("api_key", c.cfg.APIKey)
	params.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("search api status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload map[string]json.RawMessage
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return extractLinks(payload), nil
}

type searchResult struct {
	Link string `json:"link"`
}

// extractLinks reads links from the first result field holding any.
func extractLinks(payload map[string]json.RawMessage) []string {
	for _, key := range resultKeys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var results []searchResult
		if err := json.Unmarshal(raw, &results); err != nil {
			continue
		}
		links := make([]string, 0, len(results))
		for _, r := range results {
			if r.Link != "" {
				links = append(links, r.Link)
			}
		}
		if len(links) > 0 {
			return links
		}
	}
	return nil
}

// Discoverer turns search results into crawl seeds.
type Discoverer struct {
	searcher Searcher
	log      logger.Logger
}

// NewDiscoverer creates a Discoverer over searcher.
func NewDiscoverer(searcher Searcher, log logger.Logger) *Discoverer {
	return &Discoverer{searcher: searcher, log: log}
}

// Discover searches the company's own site first and falls back to third-party
// pages when the own-site search yields nothing. Recruitment links are
// dropped. A search error is returned as a capability failure only when no
// seeds were found at all.
func (d *Discoverer) Discover(ctx context.Context, company domain.Company, keywords []string) (Seeds, error) {
	var seeds Seeds

	own, ownErr := d.searcher.Search(ctx, OwnSiteQuery(company.Domain, keywords))
	if ownErr != nil {
		d.log.Warn("Own-site search failed", logger.Company(company.Name), logger.Error(ownErr))
	}
	for _, link := range own {
		if !IsJobLink(link) {
			seeds.OwnSite = append(seeds.OwnSite, link)
		}
	}
	if len(seeds.OwnSite) > 0 {
		return seeds, nil
	}

	third, thirdErr := d.searcher.Search(ctx, ThirdPartyQuery(company.Name, company.Domain, keywords))
	if thirdErr != nil {
		d.log.Warn("Third-party search failed", logger.Company(company.Name), logger.Error(thirdErr))
	}
	for _, link := range third {
		if !IsJobLink(link) && IsThirdParty(link, company.Domain) {
			seeds.ThirdParty = append(seeds.ThirdParty, link)
		}
	}

	if len(seeds.ThirdParty) == 0 {
		if err := errors.Join(ownErr, thirdErr); err != nil {
			return seeds, domain.NewCapabilityFailure("discovery", "search failed", err)
		}
	}
	return seeds, nil
}
