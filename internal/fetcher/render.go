package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
)

// ErrNetworkIdleTimeout is returned when a page keeps loading resources past
// the idle wait.
var ErrNetworkIdleTimeout = errors.New("network idle timeout")

// Renderer executes a page's scripts and returns the resulting markup.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close()
}

// networkIdle reports true once the document has loaded and two consecutive
// polls saw the same number of resource entries.
const networkIdle = `() => {
	const seen = performance.getEntriesByType('resource').length;
	const idle = document.readyState === 'complete' && window.__evidenceResources === seen;
	window.__evidenceResources = seen;
	return idle;
}`

// ChromeRenderer renders pages in tabs of one shared headless browser.
// At most Concurrency tabs are open at any time.
type ChromeRenderer struct {
	cfg RenderConfig
	sem chan struct{}

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	startOnce sync.Once
	startErr  error
}

// NewChromeRenderer prepares a browser allocator. The browser process is
// started on the first Render call.
func NewChromeRenderer(cfg RenderConfig, userAgent string, ignoreCertErrors bool) *ChromeRenderer {
	cfg = cfg.WithDefaults()

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.DisableGPU,
			chromedp.UserAgent(userAgent),
		)
		if ignoreCertErrors {
			opts = append(opts, chromedp.IgnoreCertErrors)
		}
		if cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &ChromeRenderer{
		cfg:           cfg,
		sem:           make(chan struct{}, cfg.Concurrency),
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
}

// Render navigates a fresh tab to url, waits for network idleness and
// returns the document's outer HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-r.sem }()

	if err := r.start(); err != nil {
		return "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	navCtx, cancelNav := context.WithTimeout(tabCtx, r.cfg.NavigationTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	var idle bool
	err := chromedp.Run(tabCtx, chromedp.PollFunction(networkIdle, &idle,
		chromedp.WithPollingInterval(r.cfg.IdleInterval),
		chromedp.WithPollingTimeout(r.cfg.IdleTimeout),
	))
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		return "", ErrNetworkIdleTimeout
	}
	if err != nil {
		return "", fmt.Errorf("wait for network idle: %w", err)
	}

	var markup string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read rendered html: %w", err)
	}

	return markup, nil
}

// Close shuts the browser down.
func (r *ChromeRenderer) Close() {
	r.browserCancel()
	r.allocCancel()
}

// start launches the browser once so that every tab shares it.
func (r *ChromeRenderer) start() error {
	r.startOnce.Do(func() {
		if err := chromedp.Run(r.browserCtx); err != nil {
			r.startErr = fmt.Errorf("start browser: %w", err)
		}
	})
	return r.startErr
}
