package relevance

import (
	"strings"

	"github.com/jonesrussell/north-cloud/evidence/internal/vocabulary"
)

// SiteType describes the editorial nature of a URL. A URL may be both.
type SiteType struct {
	News   bool
	Course bool
}

// Editorial reports whether the site is news or course content.
func (s SiteType) Editorial() bool {
	return s.News || s.Course
}

// ClassifySite inspects the URL string only. News tokens must appear as whole
// words; course tokens may appear anywhere.
func (c *Classifier) ClassifySite(rawURL string) SiteType {
	lower := strings.ToLower(rawURL)

	var site SiteType
	for _, token := range c.vocab.NewsTokens {
		if vocabulary.ContainsWord(lower, token) {
			site.News = true
			break
		}
	}
	for _, token := range c.vocab.CourseTokens {
		if token != "" && strings.Contains(lower, strings.ToLower(token)) {
			site.Course = true
			break
		}
	}

	return site
}
