package discovery

import "time"

const (
	defaultBaseURL          = "https://api.scrapingdog.com/google"
	defaultTimeout          = 30 * time.Second
	defaultMaxResults       = 10
	defaultBreakerFailures  = 5
	defaultBreakerOpenDelay = 60 * time.Second
)

// Config holds search API configuration. Discovery is disabled without an API key.
type Config struct {
	APIKey           string        `env:"SCRAPINGDOG_API_KEY"          yaml:"api_key"`
	BaseURL          string        `env:"EVIDENCE_DISCOVERY_BASE_URL"  yaml:"base_url"`
	Timeout          time.Duration `env:"EVIDENCE_DISCOVERY_TIMEOUT"   yaml:"timeout"`
	MaxResults       int           `env:"EVIDENCE_DISCOVERY_MAX_RESULTS" yaml:"max_results"`
	BreakerFailures  int           `yaml:"breaker_failures"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay"`
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool { return c.APIKey != "" }

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxResults <= 0 {
		c.MaxResults = defaultMaxResults
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = defaultBreakerFailures
	}
	if c.BreakerOpenDelay <= 0 {
		c.BreakerOpenDelay = defaultBreakerOpenDelay
	}
	return c
}
