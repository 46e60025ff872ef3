package pipeline

const (
	defaultWorkers            = 16
	defaultRenderWorkers      = 4
	defaultMaxPagesPerKeyword = 3
	defaultResultBudget       = 3
)

// Config holds orchestration settings.
type Config struct {
	// Workers is the number of companies investigated concurrently.
	Workers int `env:"EVIDENCE_WORKERS" yaml:"workers"`
	// RenderWorkers caps Workers when browser rendering is enabled.
	RenderWorkers      int `yaml:"render_workers"`
	MaxPagesPerKeyword int `yaml:"max_pages_per_keyword"`
	// ResultBudget stops an investigation after this many RELEVANT keywords.
	// Negative disables the budget.
	ResultBudget int  `yaml:"result_budget"`
	DisableOCR   bool `yaml:"disable_ocr"`
}

// WithDefaults returns a copy with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.RenderWorkers <= 0 {
		c.RenderWorkers = defaultRenderWorkers
	}
	if c.MaxPagesPerKeyword <= 0 {
		c.MaxPagesPerKeyword = defaultMaxPagesPerKeyword
	}
	if c.ResultBudget == 0 {
		c.ResultBudget = defaultResultBudget
	}
	return c
}

// EffectiveWorkers returns the pool size for a run.
func (c Config) EffectiveWorkers(renderEnabled bool) int {
	c = c.WithDefaults()
	if renderEnabled && c.Workers > c.RenderWorkers {
		return c.RenderWorkers
	}
	return c.Workers
}
