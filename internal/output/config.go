package output

const (
	defaultCSVPath     = "results.csv"
	defaultTable       = "evidence_records"
	defaultIndex       = "evidence_records"
	defaultWindowChars = 500
)

// Config selects where records are persisted. The CSV sink is always on;
// the SQL and Elasticsearch sinks are enabled by setting a DSN or addresses.
type Config struct {
	CSVPath     string `env:"EVIDENCE_OUTPUT"  yaml:"csv_path"`
	SummaryPath string `env:"EVIDENCE_SUMMARY" yaml:"summary_path"`
	// WindowChars truncates the evidence window stored with each record.
	WindowChars int `yaml:"window_chars"`
	// NoResume disables skipping companies already present in CSVPath.
	NoResume bool `yaml:"no_resume"`

	SQL           SQLConfig           `yaml:"sql"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
}

// SQLConfig configures the SQL sink.
type SQLConfig struct {
	// Driver is "postgres" or "sqlite3".
	Driver string `env:"EVIDENCE_SQL_DRIVER" yaml:"driver"`
	DSN    string `env:"EVIDENCE_SQL_DSN"    yaml:"dsn"`
	Table  string `yaml:"table"`
}

// ElasticsearchConfig configures the search index sink.
type ElasticsearchConfig struct {
	Addresses []string `env:"ELASTICSEARCH_URLS"     yaml:"addresses"`
	Username  string   `env:"ELASTICSEARCH_USERNAME" yaml:"username"`
	Password  string   `env:"ELASTICSEARCH_PASSWORD" yaml:"password"` //nolint:gosec // G117: ES credentials
	Index     string   `yaml:"index"`
}

// Enabled reports whether a DSN is configured.
func (c SQLConfig) Enabled() bool { return c.DSN != "" }

// Enabled reports whether any address is configured.
func (c ElasticsearchConfig) Enabled() bool { return len(c.Addresses) > 0 }

// WithDefaults returns a copy with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.CSVPath == "" {
		c.CSVPath = defaultCSVPath
	}
	if c.WindowChars <= 0 {
		c.WindowChars = defaultWindowChars
	}
	if c.SQL.Driver == "" {
		c.SQL.Driver = DriverPostgres
	}
	if c.SQL.Table == "" {
		c.SQL.Table = defaultTable
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = defaultIndex
	}
	return c
}
