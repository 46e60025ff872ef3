package scoring

import "time"

// Default configuration values.
const (
	defaultProvider         = ProviderFastEmbed
	defaultModel            = "sentence-transformers/all-MiniLM-L6-v2"
	defaultCacheDir         = "local_cache"
	defaultMaxLength        = 512
	defaultTEIURL           = "http://localhost:8080"
	defaultTimeout          = 30 * time.Second
	defaultMinSimilarity    = 0.1
	defaultBreakerFailures  = 5
	defaultBreakerOpenDelay = 60 * time.Second
)

// Config holds embedding and scoring configuration.
type Config struct {
	Provider  string        `env:"EVIDENCE_EMBEDDING_PROVIDER"  yaml:"provider"`
	Model     string        `env:"EVIDENCE_EMBEDDING_MODEL"     yaml:"model"`
	CacheDir  string        `env:"EVIDENCE_EMBEDDING_CACHE_DIR" yaml:"cache_dir"`
	MaxLength int           `env:"EVIDENCE_EMBEDDING_MAX_LENGTH" yaml:"max_length"`
	BaseURL   string        `env:"EVIDENCE_EMBEDDING_URL"       yaml:"base_url"`
	Timeout   time.Duration `env:"EVIDENCE_EMBEDDING_TIMEOUT"   yaml:"timeout"`
	// MinSimilarity is the prefilter: windows at or below it are dropped.
	MinSimilarity    float64       `env:"EVIDENCE_MIN_SIMILARITY"  yaml:"min_similarity"`
	BreakerFailures  int           `yaml:"breaker_failures"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.Provider == "" {
		c.Provider = defaultProvider
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.MaxLength <= 0 {
		c.MaxLength = defaultMaxLength
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultTEIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MinSimilarity <= 0 {
		c.MinSimilarity = defaultMinSimilarity
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = defaultBreakerFailures
	}
	if c.BreakerOpenDelay <= 0 {
		c.BreakerOpenDelay = defaultBreakerOpenDelay
	}
	return c
}
