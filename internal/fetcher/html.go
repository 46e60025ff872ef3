package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

// invisibleNodes never contribute visible text.
var invisibleNodes = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "template": {}, "svg": {}, "#comment": {},
}

// NewHTMLResource parses markup into a resource with its title and visible text.
func NewHTMLResource(pageURL, markup string, via domain.FetchPath) *domain.Resource {
	res := &domain.Resource{
		URL:         pageURL,
		Kind:        domain.KindHTML,
		ContentType: "text/html",
		Via:         via,
		HTML:        markup,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err == nil {
		res.Title = pageTitle(doc)
		res.Text = VisibleText(doc)
	}

	if strings.TrimSpace(res.Text) == "" {
		title, text := readabilityFallback(markup, pageURL)
		res.Text = text
		if res.Title == "" {
			res.Title = title
		}
	}

	return res
}

// VisibleText returns the document's text nodes joined by single spaces,
// skipping scripts, styles and other non-rendered content.
func VisibleText(doc *goquery.Document) string {
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var parts []string
	collectText(root, &parts)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		if _, skip := invisibleNodes[name]; skip {
			return
		}
		if name == "#text" {
			if t := strings.TrimSpace(child.Text()); t != "" {
				*parts = append(*parts, t)
			}
			return
		}
		collectText(child, parts)
	})
}

// pageTitle prefers <title>, then og:title.
func pageTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

// readabilityFallback runs a readability extractor over the whole document.
// It returns empty strings when the page has no readable article.
func readabilityFallback(markup, pageURL string) (title, text string) {
	markup = strings.TrimSpace(markup)
	if markup == "" {
		return "", ""
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", ""
	}

	article, err := readability.FromReader(strings.NewReader(markup), parsedURL)
	if err != nil {
		return "", ""
	}

	return strings.TrimSpace(article.Title), strings.Join(strings.Fields(article.TextContent), " ")
}
