package fetcher

import "time"

// Default configuration values.
const (
	defaultUserAgent         = "Mozilla/5.0 (compatible; NorthCloud-Evidence/1.0)"
	defaultRequestTimeout    = 30 * time.Second
	defaultNavigationTimeout = 45 * time.Second
	defaultIdleTimeout       = 30 * time.Second
	defaultIdleInterval      = 500 * time.Millisecond
	defaultMaxBodyBytes      = 25 * 1024 * 1024
	defaultMaxRedirects      = 10
	defaultRenderConcurrency = 2
	defaultRobotsCacheTTL    = 24 * time.Hour
	defaultCacheTTL          = 24 * time.Hour
)

// Config holds fetcher configuration.
type Config struct {
	UserAgent      string        `env:"EVIDENCE_USER_AGENT"      yaml:"user_agent"`
	RequestTimeout time.Duration `env:"EVIDENCE_REQUEST_TIMEOUT" yaml:"request_timeout"`
	MaxBodyBytes   int64         `env:"EVIDENCE_MAX_BODY_BYTES"  yaml:"max_body_bytes"`
	MaxRedirects   int           `env:"EVIDENCE_MAX_REDIRECTS"   yaml:"max_redirects"`
	// StrictTLS enables certificate verification. It is off by default
	// because many corporate sites serve incomplete chains.
	StrictTLS bool `env:"EVIDENCE_STRICT_TLS" yaml:"strict_tls"`
	// SkipContentTypeProbe disables the HEAD request that routes documents
	// served without a file extension to the direct HTTP path.
	SkipContentTypeProbe bool          `env:"EVIDENCE_SKIP_CONTENT_TYPE_PROBE" yaml:"skip_content_type_probe"`
	DisableRobots        bool          `env:"EVIDENCE_DISABLE_ROBOTS"          yaml:"disable_robots"`
	RobotsCacheTTL       time.Duration `yaml:"robots_cache_ttl"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = defaultMaxRedirects
	}
	if c.RobotsCacheTTL <= 0 {
		c.RobotsCacheTTL = defaultRobotsCacheTTL
	}
	return c
}

// RenderConfig holds headless browser configuration.
type RenderConfig struct {
	// Disabled turns every rendering fetch into a static fetch.
	Disabled bool   `env:"EVIDENCE_RENDER_DISABLED"    yaml:"disabled"`
	ExecPath string `env:"EVIDENCE_CHROME_PATH"        yaml:"exec_path"`
	// RemoteURL points at an already running browser's DevTools websocket
	// instead of launching a local one.
	RemoteURL         string        `env:"EVIDENCE_CHROME_REMOTE_URL"  yaml:"remote_url"`
	NavigationTimeout time.Duration `env:"EVIDENCE_NAVIGATION_TIMEOUT" yaml:"navigation_timeout"`
	IdleTimeout       time.Duration `env:"EVIDENCE_IDLE_TIMEOUT"       yaml:"idle_timeout"`
	IdleInterval      time.Duration `yaml:"idle_interval"`
	Concurrency       int           `env:"EVIDENCE_RENDER_CONCURRENCY" yaml:"concurrency"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c RenderConfig) WithDefaults() RenderConfig {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = defaultNavigationTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = defaultIdleInterval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultRenderConcurrency
	}
	return c
}

// CacheConfig holds the optional redis fetch cache configuration.
type CacheConfig struct {
	Enabled  bool          `env:"EVIDENCE_CACHE_ENABLED"  yaml:"enabled"`
	Address  string        `env:"EVIDENCE_REDIS_ADDRESS"  yaml:"address"`
	Password string        `env:"EVIDENCE_REDIS_PASSWORD" yaml:"password"`
	DB       int           `env:"EVIDENCE_REDIS_DB"       yaml:"db"`
	TTL      time.Duration `env:"EVIDENCE_CACHE_TTL"      yaml:"ttl"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c CacheConfig) WithDefaults() CacheConfig {
	if c.Address == "" {
		c.Address = "localhost:6379"
	}
	if c.TTL <= 0 {
		c.TTL = defaultCacheTTL
	}
	return c
}
