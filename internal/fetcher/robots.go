package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const maxRobotsBodyBytes = 512 * 1024

// Robots answers robots.txt questions for the crawler, caching one parsed
// file per host. Any failure to obtain or parse robots.txt allows everything.
type Robots struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	hosts map[string]*robotsEntry
}

type robotsEntry struct {
	group     *robotstxt.Group
	fetchedAt time.Time
}

// NewRobots creates a robots.txt cache.
func NewRobots(client *http.Client, userAgent string, ttl time.Duration) *Robots {
	if ttl <= 0 {
		ttl = defaultRobotsCacheTTL
	}
	return &Robots{
		client:    client,
		userAgent: userAgent,
		ttl:       ttl,
		now:       time.Now,
		hosts:     make(map[string]*robotsEntry),
	}
}

// Allowed reports whether the user agent may fetch rawURL.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	entry := r.entry(ctx, u)
	if entry.group == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return entry.group.Test(path)
}

// CrawlDelay returns the host's crawl-delay once its robots.txt is cached.
func (r *Robots) CrawlDelay(host string) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.hosts[strings.ToLower(host)]
	if !ok || entry.group == nil {
		return 0
	}
	return entry.group.CrawlDelay
}

func (r *Robots) entry(ctx context.Context, u *url.URL) *robotsEntry {
	host := strings.ToLower(u.Host)

	r.mu.RLock()
	entry, ok := r.hosts[host]
	r.mu.RUnlock()
	if ok && r.now().Sub(entry.fetchedAt) <= r.ttl {
		return entry
	}

	entry = &robotsEntry{fetchedAt: r.now(), group: r.fetchGroup(ctx, u.Scheme, host)}

	r.mu.Lock()
	r.hosts[host] = entry
	r.mu.Unlock()

	return entry
}

// fetchGroup returns nil (allow all) for network errors, non-2xx statuses
// and unparseable files.
func (r *Robots) fetchGroup(ctx context.Context, scheme, host string) *robotstxt.Group {
	if scheme == "" {
		scheme = "https"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+host+"/robots.txt", http.NoBody)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data.FindGroup(r.userAgent)
}
