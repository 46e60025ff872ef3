// Package frontier crawls outward from seed URLs, breadth first, looking for
// pages that mention the keywords under investigation.
package frontier

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// trackingParams are stripped from visit keys; they never change page content.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"gclsrc":       {},
	"dclid":        {},
	"msclkid":      {},
	"mc_cid":       {},
	"mc_eid":       {},
	"_ga":          {},
	"_hsenc":       {},
	"_hsmi":        {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	errEmptyInput          = errors.New("normalize url: empty input")
	errMissingSchemeOrHost = errors.New("normalize url: missing scheme or host")
	errUnsupportedScheme   = errors.New("normalize url: unsupported scheme")
)

// NormalizeURL returns the visit key of rawURL. Equivalent spellings of a page
// share one key: scheme and host are lowercased, http is treated as https,
// default ports, "www." prefixes, fragments, trailing slashes and tracking
// parameters are removed, dot-segments are resolved and the remaining query
// parameters are sorted.
func NormalizeURL(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errEmptyInput
	}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errMissingSchemeOrHost
	}

	originalScheme := strings.ToLower(parsed.Scheme)
	if originalScheme != "http" && originalScheme != "https" {
		return "", errUnsupportedScheme
	}

	parsed.Scheme = "https"
	parsed.Host = normalizeHost(parsed, originalScheme)
	parsed.User = nil
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.RawQuery = cleanQuery(parsed.Query())
	parsed.Path = normalizePath(parsed.Path)
	parsed.RawPath = ""

	return parsed.String(), nil
}

// CanonicalHost lowercases a host or URL and strips the port and "www.".
func CanonicalHost(hostOrURL string) string {
	s := strings.ToLower(strings.TrimSpace(hostOrURL))
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Host
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i:], "]") {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "www.")
}

// HostMatches reports whether host is filter or one of its subdomains.
// Both sides ignore a leading "www.".
func HostMatches(host, filter string) bool {
	host = CanonicalHost(host)
	filter = CanonicalHost(filter)
	if host == "" || filter == "" {
		return false
	}
	return host == filter || strings.HasSuffix(host, "."+filter)
}

func normalizeHost(u *url.URL, originalScheme string) string {
	hostname := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	port := u.Port()
	if port == "" || defaultPorts[originalScheme] == port || defaultPorts[u.Scheme] == port {
		return hostname
	}
	return hostname + ":" + port
}

func cleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if _, tracking := trackingParams[strings.ToLower(key)]; !tracking {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, val := range values[key] {
			pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(val))
		}
	}
	return strings.Join(pairs, "&")
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	cleaned := path.Clean(p)
	if cleaned == "/" {
		return cleaned
	}
	return strings.TrimRight(cleaned, "/")
}
