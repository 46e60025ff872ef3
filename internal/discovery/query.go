package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/evidence/internal/frontier"
	"github.com/jonesrussell/north-cloud/evidence/internal/vocabulary"
)

const evidenceTerms = `(partnership OR collaboration OR customer OR "case study" OR deal)`

// JobTokens mark recruitment links, which never count as evidence.
var JobTokens = []string{"career", "jobs", "hiring", "recruitment", "apply"}

// RelationshipTerms are the words a third-party page must use next to the
// company name to count as evidence.
var RelationshipTerms = []string{
	"partnership", "relationship", "collaboration", "customer", "case study", "deal", "using",
}

// OwnSiteQuery searches the company's own site for the keywords.
func OwnSiteQuery(domain string, keywords []string) string {
	return fmt.Sprintf("site:%s (%s) %s", frontier.CanonicalHost(domain), orKeywords(keywords), evidenceTerms)
}

// ThirdPartyQuery searches the rest of the web for pages naming the company
// together with the keywords.
func ThirdPartyQuery(company, domain string, keywords []string) string {
	return fmt.Sprintf(`"%s" (%s) %s -site:%s`, company, orKeywords(keywords), evidenceTerms, frontier.CanonicalHost(domain))
}

func orKeywords(keywords []string) string {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			quoted = append(quoted, `"`+kw+`"`)
		}
	}
	return strings.Join(quoted, " OR ")
}

// IsJobLink reports whether a URL looks like a recruitment page.
func IsJobLink(link string) bool {
	lower := strings.ToLower(link)
	for _, token := range JobTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// IsThirdParty reports whether link is hosted outside domain and its subdomains.
func IsThirdParty(link, domain string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return true
	}
	return !frontier.HostMatches(u.Host, domain)
}

// IsRelevantThirdParty reports whether a third-party page names the company
// and uses one of the relationship terms, both as whole words.
func IsRelevantThirdParty(text, company string) bool {
	if !vocabulary.ContainsWord(text, company) {
		return false
	}
	for _, term := range RelationshipTerms {
		if vocabulary.ContainsWord(text, term) {
			return true
		}
	}
	return false
}
