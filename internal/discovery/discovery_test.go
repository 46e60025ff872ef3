package discovery_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/evidence/internal/discovery"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

func TestQueries(t *testing.T) {
	t.Parallel()

	kws := []string{"aws", " azure ", ""}

	assert.Equal(t,
		`site:acme.com ("aws" OR "azure") (partnership OR collaboration OR customer OR "case study" OR deal)`,
		discovery.OwnSiteQuery("www.acme.com", kws))
	assert.Equal(t,
		`"Acme Corp" ("aws" OR "azure") (partnership OR collaboration OR customer OR "case study" OR deal) -site:acme.com`,
		discovery.ThirdPartyQuery("Acme Corp", "https://acme.com/", kws))
}

func TestLinkFilters(t *testing.T) {
	t.Parallel()

	assert.True(t, discovery.IsJobLink("https://acme.com/Careers/engineer"))
	assert.True(t, discovery.IsJobLink("https://jobs.acme.com/"))
	assert.False(t, discovery.IsJobLink("https://acme.com/partners"))

	assert.False(t, discovery.IsThirdParty("https://www.acme.com/news", "acme.com"))
	assert.False(t, discovery.IsThirdParty("https://blog.acme.com/news", "acme.com"))
	assert.True(t, discovery.IsThirdParty("https://press.example.org/acme", "acme.com"))
}

func TestIsRelevantThirdParty(t *testing.T) {
	t.Parallel()

	assert.True(t, discovery.IsRelevantThirdParty("Acme Corp announced a partnership with Widgetly.", "Acme Corp"))
	assert.True(t, discovery.IsRelevantThirdParty("Acme is a customer of Widgetly.", "acme"))
	assert.False(t, discovery.IsRelevantThirdParty("Acme Corp released earnings.", "Acme Corp"))
	assert.False(t, discovery.IsRelevantThirdParty("Acmeco has a partnership with Widgetly.", "Acme"))
}

func TestClient_Search(t *testing.T) {
	t.Parallel()

	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic_results":[],"organic_data":[{"link":"https://acme.com/a"},{"title":"no link"},{"link":"https://acme.com/b"},{"link":"https://acme.com/c"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := discovery.NewClient(discovery.Config{APIKey: "secret", BaseURL: srv.URL, MaxResults: 2}, logger.NewNop())

	links, err := client.Search(context.Background(), `site:acme.com "aws"`)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com/a", "https://acme.com/b"}, links)
	assert.Equal(t, `site:acme.com "aws"`, gotQuery)
	assert.Equal(t, "secret", gotKey)
}

func TestClient_SearchFallbackKeys(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"link":"https://x.com/1"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := discovery.NewClient(discovery.Config{APIKey: "k", BaseURL: srv.URL}, logger.NewNop())

	links, err := client.Search(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://x.com/1"}, links)
}

func TestClient_SearchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"link":"https://acme.com/ok"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := discovery.NewClient(discovery.Config{APIKey: "k", BaseURL: srv.URL}, logger.NewNop())

	links, err := client.Search(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com/ok"}, links)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_SearchClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := discovery.NewClient(discovery.Config{APIKey: "bad", BaseURL: srv.URL}, logger.NewNop())

	_, err := client.Search(context.Background(), "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Disabled(t *testing.T) {
	t.Parallel()

	client := discovery.NewClient(discovery.Config{}, logger.NewNop())

	_, err := client.Search(context.Background(), "q")
	require.ErrorIs(t, err, discovery.ErrDisabled)
}

type fakeSearcher struct {
	results map[string][]string
	errs    map[string]error
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, query string) ([]string, error) {
	s.queries = append(s.queries, query)
	for prefix, err := range s.errs {
		if strings.HasPrefix(query, prefix) {
			return nil, err
		}
	}
	for prefix, links := range s.results {
		if strings.HasPrefix(query, prefix) {
			return links, nil
		}
	}
	return nil, nil
}

func TestDiscoverer_OwnSiteFirst(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: map[string][]string{
		"site:": {"https://acme.com/careers/aws", "https://acme.com/partners/aws"},
	}}
	company := domain.Company{Name: "Acme", Domain: "acme.com"}

	seeds, err := discovery.NewDiscoverer(searcher, logger.NewNop()).Discover(context.Background(), company, []string{"aws"})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.com/partners/aws"}, seeds.OwnSite)
	assert.Empty(t, seeds.ThirdParty)
	assert.Len(t, searcher.queries, 1)
}

func TestDiscoverer_ThirdPartyFallback(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: map[string][]string{
		`"Acme"`: {"https://news.example.com/acme-aws", "https://acme.com/self", "https://jobs.example.com/acme"},
	}}
	company := domain.Company{Name: "Acme", Domain: "acme.com"}

	seeds, err := discovery.NewDiscoverer(searcher, logger.NewNop()).Discover(context.Background(), company, []string{"aws"})

	require.NoError(t, err)
	assert.Empty(t, seeds.OwnSite)
	assert.Equal(t, []string{"https://news.example.com/acme-aws"}, seeds.ThirdParty)
	assert.Equal(t, seeds.ThirdParty, seeds.All())
	assert.Len(t, searcher.queries, 2)
}

func TestDiscoverer_SearchFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("search api status 500")
	searcher := &fakeSearcher{errs: map[string]error{"site:": boom, `"Acme"`: boom}}
	company := domain.Company{Name: "Acme", Domain: "acme.com"}

	_, err := discovery.NewDiscoverer(searcher, logger.NewNop()).Discover(context.Background(), company, []string{"aws"})

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FailureCapability))
	require.ErrorIs(t, err, boom)
}
