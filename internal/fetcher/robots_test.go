package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/evidence/internal/fetcher"
)

func TestRobots_AllowedAndCrawlDelay(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		requests.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\nCrawl-delay: 2\n"))
	}))
	t.Cleanup(srv.Close)

	robots := fetcher.NewRobots(srv.Client(), "evidence-test", time.Hour)
	ctx := context.Background()

	assert.True(t, robots.Allowed(ctx, srv.URL+"/about"))
	assert.False(t, robots.Allowed(ctx, srv.URL+"/private/deals"))
	assert.Equal(t, 2*time.Second, robots.CrawlDelay(srv.Listener.Addr().String()))
	assert.Equal(t, int32(1), requests.Load())
}

func TestRobots_AllowAllOnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	robots := fetcher.NewRobots(srv.Client(), "evidence-test", time.Hour)

	assert.True(t, robots.Allowed(context.Background(), srv.URL+"/private"))
	assert.Zero(t, robots.CrawlDelay(srv.Listener.Addr().String()))
	assert.True(t, robots.Allowed(context.Background(), "::not a url"))
}
