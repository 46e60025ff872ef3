// Package fetcher turns a URL into a domain.Resource. Documents (PDF, DOCX,
// XLSX) are downloaded directly and decoded; other pages are rendered in a
// headless browser and reduced to visible text.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/httpclient"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

const (
	mimePDF  = "application/pdf"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// documentExtensions maps URL path extensions to the document kinds they carry.
var documentExtensions = map[string]domain.ContentKind{
	".pdf":  domain.KindPDF,
	".docx": domain.KindDocx,
	".xlsx": domain.KindSpreadsheet,
}

// Observer is notified after every fetch with the produced resource.
type Observer func(res *domain.Resource, elapsed time.Duration)

// Fetcher loads resources over HTTP or through a Renderer.
type Fetcher struct {
	cfg      Config
	client   *http.Client
	renderer Renderer
	cache    Cache
	observe  Observer
	log      logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRenderer sets the renderer used by FetchRendered. Without one,
// rendering falls back to the static path.
func WithRenderer(r Renderer) Option {
	return func(f *Fetcher) { f.renderer = r }
}

// WithCache enables caching of successful static fetches.
func WithCache(c Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithObserver registers a callback run after every fetch.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observe = o }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New creates a Fetcher.
func New(cfg Config, log logger.Logger, opts ...Option) *Fetcher {
	cfg = cfg.WithDefaults()
	f := &Fetcher{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = httpclient.New(httpclient.Config{
			Timeout:            cfg.RequestTimeout,
			MaxRedirects:       cfg.MaxRedirects,
			InsecureSkipVerify: !cfg.StrictTLS,
		})
	}
	return f
}

// Client returns the HTTP client used for static fetches.
func (f *Fetcher) Client() *http.Client { return f.client }

// UserAgent returns the configured user agent.
func (f *Fetcher) UserAgent() string { return f.cfg.UserAgent }

// NormalizeInput prefixes scheme-less input with https://.
func NormalizeInput(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}

// Fetch routes rawURL to the static path when it names a document, by
// extension or by the content type a HEAD probe reports, and renders it
// otherwise.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *domain.Resource {
	target := NormalizeInput(rawURL)

	if _, ok := kindFromExtension(target); ok {
		return f.FetchStatic(ctx, target)
	}
	if !f.cfg.SkipContentTypeProbe && f.probeDocument(ctx, target) {
		return f.FetchStatic(ctx, target)
	}
	return f.FetchRendered(ctx, target)
}

// FetchStatic downloads rawURL with a plain GET and decodes it by content type.
func (f *Fetcher) FetchStatic(ctx context.Context, rawURL string) *domain.Resource {
	target := NormalizeInput(rawURL)
	start := time.Now()

	if f.cache != nil {
		if res, ok := f.cache.Get(ctx, target); ok {
			f.done(res, start)
			return res
		}
	}

	res := f.fetchStatic(ctx, target)
	if f.cache != nil {
		f.cache.Put(ctx, res)
	}
	f.done(res, start)
	return res
}

// FetchRendered loads rawURL in the headless browser.
func (f *Fetcher) FetchRendered(ctx context.Context, rawURL string) *domain.Resource {
	if f.renderer == nil {
		return f.FetchStatic(ctx, rawURL)
	}

	target := NormalizeInput(rawURL)
	start := time.Now()

	markup, err := f.renderer.Render(ctx, target)
	var res *domain.Resource
	if err != nil {
		res = domain.FailedResource(target, domain.ViaRender,
			domain.NewFetchFailure("render", failureReason(err), err))
	} else {
		res = NewHTMLResource(target, markup, domain.ViaRender)
	}

	f.done(res, start)
	return res
}

func (f *Fetcher) done(res *domain.Resource, start time.Time) {
	elapsed := time.Since(start)
	if res.Failure != nil {
		f.log.Debug("Fetch failed",
			logger.URL(res.URL),
			logger.String("via", string(res.Via)),
			logger.String("reason", res.Failure.Reason),
			logger.Duration("elapsed", elapsed),
		)
	}
	if f.observe != nil {
		f.observe(res, elapsed)
	}
}

func (f *Fetcher) fetchStatic(ctx context.Context, target string) *domain.Resource {
	resp, err := f.do(ctx, http.MethodGet, target)
	if err != nil {
		return domain.FailedResource(target, domain.ViaHTTP,
			domain.NewFetchFailure("http", failureReason(err), err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.FailedResource(target, domain.ViaHTTP,
			domain.NewFetchFailure("http", fmt.Sprintf("http status %d", resp.StatusCode), nil))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return domain.FailedResource(target, domain.ViaHTTP,
			domain.NewFetchFailure("http", "read body: "+failureReason(err), err))
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return domain.FailedResource(target, domain.ViaHTTP,
			domain.NewFetchFailure("http", fmt.Sprintf("response body exceeds %d bytes", f.cfg.MaxBodyBytes), nil))
	}

	contentType := resp.Header.Get("Content-Type")
	return decode(target, detectKind(target, contentType, body), contentType, body)
}

// probeDocument reports whether a HEAD request names a document content type.
// Probe failures route the URL to the renderer.
func (f *Fetcher) probeDocument(ctx context.Context, target string) bool {
	resp, err := f.do(ctx, http.MethodHead, target)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	_, ok := kindFromContentType(resp.Header.Get("Content-Type"))
	return ok
}

func (f *Fetcher) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	return resp, nil
}

// decode turns a downloaded payload into a resource of the given kind.
func decode(target string, kind domain.ContentKind, contentType string, body []byte) *domain.Resource {
	switch kind {
	case domain.KindPDF:
		if !IsPDF(body) {
			return domain.InvalidPDFResource(target, domain.ViaHTTP)
		}
		text, meta, err := ExtractPDF(body)
		if err != nil {
			return domain.FailedResource(target, domain.ViaHTTP,
				domain.NewInvalidDocument("pdf", "pdf processing: "+err.Error(), err))
		}
		return documentResource(target, kind, contentType, body, text, meta)

	case domain.KindSpreadsheet:
		text, err := ExtractSpreadsheet(body)
		if err != nil {
			return domain.FailedResource(target, domain.ViaHTTP,
				domain.NewInvalidDocument("xlsx", "xlsx processing: "+err.Error(), err))
		}
		return documentResource(target, kind, contentType, body, text, nil)

	case domain.KindDocx:
		text, err := ExtractDocx(body)
		if err != nil {
			return domain.FailedResource(target, domain.ViaHTTP,
				domain.NewInvalidDocument("docx", "docx processing: "+err.Error(), err))
		}
		return documentResource(target, kind, contentType, body, text, nil)

	case domain.KindHTML:
		res := NewHTMLResource(target, string(body), domain.ViaHTTP)
		if contentType != "" {
			res.ContentType = contentType
		}
		return res

	default:
		return &domain.Resource{
			URL:         target,
			Kind:        domain.KindUnsupported,
			ContentType: contentType,
			Via:         domain.ViaHTTP,
		}
	}
}

func documentResource(
	target string, kind domain.ContentKind, contentType string, body []byte, text string, meta map[string]string,
) *domain.Resource {
	return &domain.Resource{
		URL:         target,
		Kind:        kind,
		ContentType: contentType,
		Via:         domain.ViaHTTP,
		Raw:         body,
		Text:        text,
		Meta:        meta,
	}
}

// detectKind prefers the URL extension, then the declared content type, then
// sniffs the payload.
func detectKind(target, contentType string, body []byte) domain.ContentKind {
	if kind, ok := kindFromExtension(target); ok {
		return kind
	}
	if kind, ok := kindFromContentType(contentType); ok {
		return kind
	}
	if isHTMLType(contentType) {
		return domain.KindHTML
	}
	if contentType == "" {
		if IsPDF(body) {
			return domain.KindPDF
		}
		if isHTMLType(http.DetectContentType(body)) {
			return domain.KindHTML
		}
	}
	return domain.KindUnsupported
}

// IsDocumentURL reports whether the URL path ends in a document extension.
func IsDocumentURL(target string) bool {
	_, ok := kindFromExtension(target)
	return ok
}

func kindFromExtension(target string) (domain.ContentKind, bool) {
	u, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	kind, ok := documentExtensions[strings.ToLower(path.Ext(u.Path))]
	return kind, ok
}

func kindFromContentType(contentType string) (domain.ContentKind, bool) {
	mediaType := mediaTypeOf(contentType)
	switch mediaType {
	case mimePDF:
		return domain.KindPDF, true
	case mimeDocx:
		return domain.KindDocx, true
	case mimeXlsx:
		return domain.KindSpreadsheet, true
	}
	return "", false
}

func isHTMLType(contentType string) bool {
	mediaType := mediaTypeOf(contentType)
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func mediaTypeOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mediaType
}

// failureReason shortens transport errors into the reason users see.
func failureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, httpclient.ErrTooManyRedirects):
		return "too many redirects"
	case errors.Is(err, ErrNetworkIdleTimeout):
		return "network idle timeout"
	default:
		return err.Error()
	}
}
