package dates

// Config holds date inference configuration.
type Config struct {
	// Selectors are tried in order before headings. Meta elements read their
	// content attribute, time elements read datetime then text.
	Selectors []string `yaml:"selectors"`
}

// DefaultSelectors are the publication-date selectors seen on press and news pages.
var DefaultSelectors = []string{
	".local-date",
	".pr-date",
	"time",
	`meta[name="pubdate"]`,
	`meta[property="article:published_time"]`,
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if len(c.Selectors) == 0 {
		c.Selectors = append([]string(nil), DefaultSelectors...)
	}
	return c
}
