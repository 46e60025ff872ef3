package frontier

import "time"

const (
	defaultMaxDepth       = 2
	defaultMaxPages       = 50
	defaultMinInterval    = 1500 * time.Millisecond
	defaultSeedRetryDelay = 2 * time.Second
)

// DefaultSkipTokens mark recruitment pages, which are skipped without fetching.
var DefaultSkipTokens = []string{"career", "jobs", "hiring", "recruitment", "apply"}

// Config holds crawl configuration.
type Config struct {
	MaxDepth       int           `env:"EVIDENCE_CRAWL_MAX_DEPTH"    yaml:"max_depth"`
	MaxPages       int           `env:"EVIDENCE_CRAWL_MAX_PAGES"    yaml:"max_pages"`
	MinInterval    time.Duration `env:"EVIDENCE_CRAWL_MIN_INTERVAL" yaml:"min_interval"`
	SeedRetryDelay time.Duration `yaml:"seed_retry_delay"`
	SkipTokens     []string      `yaml:"skip_tokens"`
	// DisableRenderFallback keeps pages whose static fetch produced no text
	// from being rendered.
	DisableRenderFallback bool `env:"EVIDENCE_CRAWL_DISABLE_RENDER_FALLBACK" yaml:"disable_render_fallback"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.MaxPages <= 0 {
		c.MaxPages = defaultMaxPages
	}
	if c.MinInterval <= 0 {
		c.MinInterval = defaultMinInterval
	}
	if c.SeedRetryDelay <= 0 {
		c.SeedRetryDelay = defaultSeedRetryDelay
	}
	if len(c.SkipTokens) == 0 {
		c.SkipTokens = DefaultSkipTokens
	}
	return c
}
