package relevance

// Default configuration values.
const (
	defaultThreshold    = 0.4
	defaultMinTextChars = 100
)

// Config holds relevance classification configuration.
type Config struct {
	// Threshold is the semantic score at which an unmatched window is upgraded
	// to RELEVANT/MEDIUM.
	Threshold    float64 `env:"EVIDENCE_RELEVANCE_THRESHOLD" yaml:"threshold"`
	MinTextChars int     `env:"EVIDENCE_MIN_TEXT_CHARS"      yaml:"min_text_chars"`
	// VocabularyFile optionally overrides the built-in term lists.
	VocabularyFile     string `env:"EVIDENCE_VOCABULARY_FILE"     yaml:"vocabulary_file"`
	DisableAcronymGate bool   `env:"EVIDENCE_DISABLE_ACRONYM_GATE" yaml:"disable_acronym_gate"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = defaultThreshold
	}
	if c.MinTextChars <= 0 {
		c.MinTextChars = defaultMinTextChars
	}
	return c
}
