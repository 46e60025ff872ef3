// Package vocabulary holds the curated domain-term lists that gate evidence
// windows and drive rule-based relevance classification.
//
// A Vocabulary is plain configuration data. It is built once, optionally
// overridden from YAML, and injected into the window extractor and the
// classifier. Nothing in this package holds global mutable state.
package vocabulary

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyVocabulary is returned when no category holds any term.
var ErrEmptyVocabulary = errors.New("vocabulary has no terms")

// Vocabulary is the set of term lists used by the pipeline.
type Vocabulary struct {
	Partnership []string `yaml:"partnership"`
	Usage       []string `yaml:"usage"`
	Hiring      []string `yaml:"hiring"`
	Discussion  []string `yaml:"discussion"`

	// NewsTokens mark a URL as editorial content (whole-word match).
	NewsTokens []string `yaml:"news_tokens"`
	// CourseTokens mark a URL as training content (substring match).
	CourseTokens []string `yaml:"course_tokens"`
	// CareerURLTokens mark a URL as a job posting the crawler never fetches.
	CareerURLTokens []string `yaml:"career_url_tokens"`

	// Acronyms maps a lowercase keyword to its only accepted expansion.
	Acronyms map[string]string `yaml:"acronyms"`
}

// Default returns a fresh copy of the built-in vocabulary.
func Default() Vocabulary {
	return Vocabulary{
		Partnership: []string{
			"partnership", "collaborate", "collaboration", "joint venture", "alliance", "acquired by",
			"integrates with", "integration", "powered by", "customer", "client", "implements",
			"adopts", "leverages", "agreement", "solution", "product launch", "go-to-market",
		},
		Usage: []string{
			"partnership", "partner", "offering", "product", "solution",
			"service", "platform", "tool", "launch", "introduce",
			"release", "sell", "expertise", "specialize", "collaboration",
			"alliance", "joint venture", "integrate", "ecosystem",
			"acquisition", "investment", "use", "implement", "adopt",
			"leverage", "case study", "solution brief", "powered by",
			"built with", "trusted by", "api", "sdk", "saas", "paas",
			"iaas", "cloud native", "digital transformation",
			"turnkey solution", "managed service", "white label",
			"value proposition", "roi", "tco", "kpi", "compliance",
			"security", "sla", "uptime", "scalability", "high availability",
			"resiliency", "cost optimization", "best in class",
			"plug and play", "innovative", "disruptive", "oem",
			"press kit", "white paper", "partner portal",
		},
		Hiring: []string{
			"career", "hiring", "join our team", "job", "apply",
			"opportunity", "vacancy", "position", "role", "engineer",
			"developer", "recruitment", "staffing", "internship",
			"campus", "walk in", "talent acquisition", "diversity",
			"equal opportunity", "inclusion", "culture", "compensation",
			"salary", "benefits", "perks", "engagement", "job fair",
			"campus recruitment", "recruitment drive", "walk-in interview",
		},
		Discussion: []string{
			"blog", "news", "report", "insight", "article", "review",
			"compare", "vs", "what is", "how to", "explore", "future of",
			"analysis", "tutorial", "guide", "explained", "trend",
			"research", "study", "whitepaper", "ebook", "webinar",
			"podcast", "deep dive", "breakdown", "opinion", "editorial",
			"perspective", "best practice", "how it works", "faq",
			"overview", "company", "corporate", "leadership", "announcement",
			"press release", "news release", "quarterly report", "annual report",
			"investor relations", "financial results", "earnings call",
			"webcast", "newsletter", "media coverage", "public relations", "stakeholder",
		},
		NewsTokens: []string{
			"news", "blog", "press", "release", "media", "journal", "article", "newsletter",
		},
		CourseTokens: []string{
			"course", "training", "certification", "academy", "bootcamp", "class", "learn",
		},
		CareerURLTokens: []string{
			"career", "jobs", "hiring", "recruitment", "apply",
		},
		Acronyms: map[string]string{
			"aws":   "amazon web services",
			"gcp":   "google cloud platform",
			"azure": "microsoft azure",
			"sap":   "systems, applications & products in data processing",
			"nsx":   "vmware nsx",
			"esxi":  "vmware esxi",
		},
	}
}

// Load reads a YAML override file. Lists present in the file replace the
// built-in ones; omitted lists keep their defaults.
func Load(path string) (Vocabulary, error) {
	v := Default()
	if path == "" {
		return v, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary file: %w", err)
	}

	if err = yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary file: %w", err)
	}

	v.Acronyms = lowerKeys(v.Acronyms)

	if err = v.Validate(); err != nil {
		return Vocabulary{}, err
	}

	return v, nil
}

// Validate checks that the vocabulary can drive classification.
func (v Vocabulary) Validate() error {
	if len(v.Partnership)+len(v.Usage)+len(v.Hiring)+len(v.Discussion) == 0 {
		return ErrEmptyVocabulary
	}
	return nil
}

// Expansion returns the accepted expansion for an acronym keyword.
func (v Vocabulary) Expansion(keyword string) (string, bool) {
	exp, ok := v.Acronyms[strings.ToLower(strings.TrimSpace(keyword))]
	return exp, ok && exp != ""
}

// AcronymKeys returns the acronym keywords, sorted.
func (v Vocabulary) AcronymKeys() []string {
	keys := make([]string, 0, len(v.Acronyms))
	for k := range v.Acronyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = val
	}
	return out
}
