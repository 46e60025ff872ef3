package capability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/vocabulary"
)

// ImageMatch lists the keywords OCR found in one image.
type ImageMatch struct {
	Image    string
	Keywords []string
}

// ImageMatches are ordered by the image's position in the page.
type ImageMatches []ImageMatch

// Summary renders "img: kw1, kw2; img2: kw3", or "-" when nothing was found.
func (m ImageMatches) Summary() string {
	if len(m) == 0 {
		return domain.Placeholder
	}
	parts := make([]string, 0, len(m))
	for _, match := range m {
		parts = append(parts, match.Image+": "+strings.Join(match.Keywords, ", "))
	}
	return strings.Join(parts, "; ")
}

// ImageScanner finds keywords in the images of a page.
type ImageScanner struct {
	cfg       OCRConfig
	ocr       OCR
	client    *http.Client
	userAgent string
	log       logger.Logger
}

// NewImageScanner creates a scanner. client may be nil.
func NewImageScanner(cfg OCRConfig, ocr OCR, client *http.Client, userAgent string, log logger.Logger) *ImageScanner {
	return &ImageScanner{
		cfg:       cfg.WithDefaults(),
		ocr:       ocr,
		client:    client,
		userAgent: userAgent,
		log:       log,
	}
}

// Scan collects up to MaxImages <img src> URLs from pageURL, OCRs each image
// and matches keywords as whole words. Images that fail to download or OCR
// are skipped; an error is returned only when the page itself fails.
func (s *ImageScanner) Scan(ctx context.Context, pageURL string, keywords []string) (ImageMatches, error) {
	images, err := s.collectImages(ctx, pageURL)
	if err != nil {
		return nil, domain.NewCapabilityFailure("ocr", "image scan failed", err)
	}
	if len(images) == 0 {
		return nil, nil
	}

	found := s.ocrImages(ctx, images, keywords)

	var matches ImageMatches
	for _, img := range images {
		if kws, ok := found[img]; ok {
			matches = append(matches, ImageMatch{Image: img, Keywords: kws})
		}
	}
	return matches, nil
}

func (s *ImageScanner) newCollector(ctx context.Context, opts ...colly.CollectorOption) *colly.Collector {
	base := []colly.CollectorOption{colly.StdlibContext(ctx)}
	if s.userAgent != "" {
		base = append(base, colly.UserAgent(s.userAgent))
	}
	c := colly.NewCollector(append(base, opts...)...)
	if s.client != nil {
		c.SetClient(s.client)
	}
	return c
}

func (s *ImageScanner) collectImages(ctx context.Context, pageURL string) ([]string, error) {
	c := s.newCollector(ctx)

	seen := make(map[string]struct{})
	var images []string
	c.OnHTML("img[src]", func(e *colly.HTMLElement) {
		if len(images) >= s.cfg.MaxImages {
			return
		}
		abs := e.Request.AbsoluteURL(strings.TrimSpace(e.Attr("src")))
		if !strings.HasPrefix(abs, "http://") && !strings.HasPrefix(abs, "https://") {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		images = append(images, abs)
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", pageURL, err)
	}
	return images, nil
}

// imageKey carries the <img src> URL through redirects.
const imageKey = "image"

// ocrImages downloads images in parallel and returns the keywords found per
// image URL as it appeared on the page.
func (s *ImageScanner) ocrImages(ctx context.Context, images, keywords []string) map[string][]string {
	c := s.newCollector(ctx, colly.Async(true), colly.MaxBodySize(s.cfg.MaxImageBytes))
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: s.cfg.Parallelism}); err != nil {
		s.log.Debug("Image limit rule rejected", logger.Error(err))
	}

	var mu sync.Mutex
	found := make(map[string][]string)

	c.OnResponse(func(r *colly.Response) {
		img := r.Ctx.Get(imageKey)
		text, err := s.ocr.ExtractText(ctx, r.Body)
		if err != nil {
			s.log.Debug("Image OCR failed", logger.URL(img), logger.Error(err))
			return
		}
		if kws := MatchKeywords(text, keywords); len(kws) > 0 {
			mu.Lock()
			found[img] = kws
			mu.Unlock()
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		s.log.Debug("Image download failed", logger.URL(r.Request.URL.String()), logger.Error(err))
	})

	for _, img := range images {
		imgCtx := colly.NewContext()
		imgCtx.Put(imageKey, img)
		if err := c.Request(http.MethodGet, img, nil, imgCtx, nil); err != nil {
			s.log.Debug("Image visit rejected", logger.URL(img), logger.Error(err))
		}
	}
	c.Wait()

	return found
}

// MatchKeywords returns the keywords present in text as whole words, in
// keyword order and without duplicates.
func MatchKeywords(text string, keywords []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, kw := range keywords {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if vocabulary.ContainsWord(text, kw) {
			seen[key] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}
