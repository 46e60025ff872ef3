package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonesrussell/north-cloud/evidence/internal/capability"
	"github.com/jonesrussell/north-cloud/evidence/internal/dates"
	"github.com/jonesrussell/north-cloud/evidence/internal/discovery"
	"github.com/jonesrussell/north-cloud/evidence/internal/fetcher"
	"github.com/jonesrussell/north-cloud/evidence/internal/frontier"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/output"
	"github.com/jonesrussell/north-cloud/evidence/internal/pipeline"
	"github.com/jonesrussell/north-cloud/evidence/internal/relevance"
	"github.com/jonesrussell/north-cloud/evidence/internal/scoring"
	"github.com/jonesrussell/north-cloud/evidence/internal/windows"
)

// DefaultConfigPath is read when neither --config nor EVIDENCE_CONFIG is set.
const DefaultConfigPath = "config.yml"

// Config is the complete evidence pipeline configuration.
type Config struct {
	Logging     logger.Config                `yaml:"logging"`
	Fetcher     fetcher.Config               `yaml:"fetcher"`
	Render      fetcher.RenderConfig         `yaml:"render"`
	Cache       fetcher.CacheConfig          `yaml:"cache"`
	Dates       dates.Config                 `yaml:"dates"`
	Windows     windows.Config               `yaml:"windows"`
	Scoring     scoring.Config               `yaml:"scoring"`
	Relevance   relevance.Config             `yaml:"relevance"`
	Crawl       frontier.Config              `yaml:"crawl"`
	Discovery   discovery.Config             `yaml:"discovery"`
	OCR         capability.OCRConfig         `yaml:"ocr"`
	Translation capability.TranslationConfig `yaml:"translation"`
	Output      output.Config                `yaml:"output"`
	Server      ServerConfig                 `yaml:"server"`
	Pipeline    pipeline.Config              `yaml:"pipeline"`
}

// ServerConfig holds the HTTP API configuration.
type ServerConfig struct {
	Host         string        `env:"EVIDENCE_SERVER_HOST" yaml:"host"`
	Port         int           `env:"EVIDENCE_SERVER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SetDefaults applies default values for ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		// Analysis of one URL can include a browser render.
		c.WriteTimeout = 120 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// SetDefaults fills every unset section.
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	c.Fetcher = c.Fetcher.WithDefaults()
	c.Render = c.Render.WithDefaults()
	c.Cache = c.Cache.WithDefaults()
	c.Dates = c.Dates.WithDefaults()
	c.Windows = c.Windows.WithDefaults()
	c.Scoring = c.Scoring.WithDefaults()
	c.Relevance = c.Relevance.WithDefaults()
	c.Crawl = c.Crawl.WithDefaults()
	c.Discovery = c.Discovery.WithDefaults()
	c.OCR = c.OCR.WithDefaults()
	c.Translation = c.Translation.WithDefaults()
	c.Output = c.Output.WithDefaults()
	c.Server.SetDefaults()
	c.Pipeline = c.Pipeline.WithDefaults()
}

// Validate checks a defaulted configuration. It returns every problem found,
// each as a *ValidationError.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(ValidateLogLevel(c.Logging.Level))
	add(validateUnitInterval("scoring.min_similarity", c.Scoring.MinSimilarity))
	add(validateUnitInterval("relevance.threshold", c.Relevance.Threshold))
	add(validateUnitInterval("translation.non_latin_ratio", c.Translation.NonLatinRatio))
	add(validatePositive("windows.window_words", c.Windows.WindowWords))
	add(validatePositive("crawl.max_depth", c.Crawl.MaxDepth))
	add(validatePositive("crawl.max_pages", c.Crawl.MaxPages))
	add(validatePositive("pipeline.workers", c.Pipeline.Workers))
	add(validatePositive("pipeline.max_pages_per_keyword", c.Pipeline.MaxPagesPerKeyword))

	if c.Scoring.MinSimilarity >= c.Relevance.Threshold {
		add(&ValidationError{
			Field:   "scoring.min_similarity",
			Message: fmt.Sprintf("must be below relevance.threshold (%.2f)", c.Relevance.Threshold),
		})
	}
	if c.Scoring.Provider != scoring.ProviderFastEmbed && c.Scoring.Provider != scoring.ProviderTEI {
		add(&ValidationError{Field: "scoring.provider", Message: "must be fastembed or tei"})
	}
	if c.Output.CSVPath == "" {
		add(&ValidationError{Field: "output.csv_path", Message: "is required"})
	}
	switch c.Output.SQL.Driver {
	case output.DriverPostgres, output.DriverSQLite:
	default:
		add(&ValidationError{Field: "output.sql.driver", Message: "must be postgres or sqlite3"})
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add(&ValidationError{Field: "server.port", Message: "must be between 1 and 65535"})
	}

	return errors.Join(errs...)
}

// LoadApp reads path (optional), applies defaults and validates.
func LoadApp(path string) (*Config, error) {
	cfg, err := Load[Config](path)
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validateErr)
	}
	return cfg, nil
}
