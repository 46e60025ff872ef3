package capability

import "time"

const (
	defaultOCRTimeout       = 30 * time.Second
	defaultMaxImages        = 20
	defaultMaxImageBytes    = 5 * 1024 * 1024
	defaultImageParallelism = 4
	defaultBreakerFailures  = 5
	defaultBreakerOpenDelay = 60 * time.Second

	defaultTranslationModel     = "claude-haiku-4-5"
	defaultTranslationMaxChars  = 4000
	defaultTranslationMaxTokens = 4096
	defaultNonLatinRatio        = 0.3
	defaultTranslationTimeout   = 60 * time.Second
)

// OCRConfig configures the OCR sidecar and the image scanner.
// OCR is disabled when BaseURL is empty.
type OCRConfig struct {
	BaseURL          string        `env:"EVIDENCE_OCR_URL"        yaml:"base_url"`
	Timeout          time.Duration `env:"EVIDENCE_OCR_TIMEOUT"    yaml:"timeout"`
	MaxImages        int           `env:"EVIDENCE_OCR_MAX_IMAGES" yaml:"max_images"`
	MaxImageBytes    int           `yaml:"max_image_bytes"`
	Parallelism      int           `yaml:"parallelism"`
	BreakerFailures  int           `yaml:"breaker_failures"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay"`
}

// Enabled reports whether an OCR sidecar is configured.
func (c OCRConfig) Enabled() bool { return c.BaseURL != "" }

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c OCRConfig) WithDefaults() OCRConfig {
	if c.Timeout <= 0 {
		c.Timeout = defaultOCRTimeout
	}
	if c.MaxImages <= 0 {
		c.MaxImages = defaultMaxImages
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = defaultMaxImageBytes
	}
	if c.Parallelism <= 0 {
		c.Parallelism = defaultImageParallelism
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = defaultBreakerFailures
	}
	if c.BreakerOpenDelay <= 0 {
		c.BreakerOpenDelay = defaultBreakerOpenDelay
	}
	return c
}

// TranslationConfig configures machine translation. It is disabled without an API key.
type TranslationConfig struct {
	APIKey        string        `env:"ANTHROPIC_API_KEY"              yaml:"api_key"`
	BaseURL       string        `env:"EVIDENCE_TRANSLATION_BASE_URL"  yaml:"base_url"`
	Model         string        `env:"EVIDENCE_TRANSLATION_MODEL"     yaml:"model"`
	MaxChars      int           `yaml:"max_chars"`
	MaxTokens     int           `yaml:"max_tokens"`
	NonLatinRatio float64       `env:"EVIDENCE_NON_LATIN_RATIO"       yaml:"non_latin_ratio"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Enabled reports whether an API key is configured.
func (c TranslationConfig) Enabled() bool { return c.APIKey != "" }

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c TranslationConfig) WithDefaults() TranslationConfig {
	if c.Model == "" {
		c.Model = defaultTranslationModel
	}
	if c.MaxChars <= 0 {
		c.MaxChars = defaultTranslationMaxChars
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultTranslationMaxTokens
	}
	if c.NonLatinRatio <= 0 {
		c.NonLatinRatio = defaultNonLatinRatio
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTranslationTimeout
	}
	return c
}
