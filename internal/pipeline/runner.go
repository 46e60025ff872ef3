package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/metrics"
)

// CompanyInvestigator produces the evidence record of one company.
type CompanyInvestigator interface {
	Investigate(ctx context.Context, company domain.Company, keywords []domain.Keyword) (*domain.CompanyRecord, error)
}

// RecordSink persists flat records.
type RecordSink interface {
	Write(ctx context.Context, r domain.Record) error
}

// SummarySink persists one summary row per company.
type SummarySink interface {
	Write(s domain.Summary) error
}

// RunStats reports what a run did.
type RunStats struct {
	RunID     string
	Companies int
	// Skipped companies were already present in the output.
	Skipped   int
	Processed int
	// Incomplete companies were interrupted and nothing was written for them.
	Incomplete   int
	Records      int
	Relevant     int
	WriteErrors  int
	Elapsed      time.Duration
	Cancelled    bool
	StartedAt    time.Time
	FinishedAt   time.Time
	WorkersUsed  int
	KeywordCount int
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Workers int
	// WindowChars truncates the evidence window in written records.
	WindowChars int
	// Processed holds company names to skip.
	Processed map[string]struct{}
	Summary   SummarySink
	Metrics   *metrics.Metrics
	RunID     string
	Clock     func() time.Time
}

// Runner investigates companies concurrently and writes their records.
type Runner struct {
	investigator CompanyInvestigator
	sink         RecordSink
	opts         RunnerOptions
	log          logger.Logger
}

// NewRunner creates a Runner. A zero RunID gets a fresh UUID.
func NewRunner(investigator CompanyInvestigator, sink RecordSink, opts RunnerOptions, log logger.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Runner{
		investigator: investigator,
		sink:         sink,
		opts:         opts,
		log:          log.With(logger.String("run_id", opts.RunID)),
	}
}

// RunID returns the identifier stamped on every record of this runner.
func (r *Runner) RunID() string { return r.opts.RunID }

type outcome struct {
	processed  bool
	incomplete bool
	records    int
	relevant   int
	writeErrs  int
}

// Run investigates every company not already processed. Each company's
// records are written as soon as its investigation completes, followed by
// its summary row. Cancelling ctx stops new work; companies in progress are
// abandoned without partial output.
func (r *Runner) Run(ctx context.Context, companies []domain.Company, keywords []domain.Keyword) RunStats {
	start := r.opts.Clock()
	stats := RunStats{
		RunID:        r.opts.RunID,
		Companies:    len(companies),
		StartedAt:    start,
		KeywordCount: len(keywords),
	}

	pending := make([]domain.Company, 0, len(companies))
	for _, c := range companies {
		if _, done := r.opts.Processed[c.Name]; done {
			stats.Skipped++
			continue
		}
		pending = append(pending, c)
	}

	workers := min(r.opts.Workers, len(pending))
	stats.WorkersUsed = workers
	r.log.Info("Run started",
		logger.Int("companies", len(companies)),
		logger.Int("pending", len(pending)),
		logger.Int("keywords", len(keywords)),
		logger.Int("workers", workers))

	jobs := make(chan domain.Company)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- r.process(ctx, c, keywords)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range pending {
			select {
			case <-ctx.Done():
				return
			case jobs <- c:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for o := range results {
		if o.processed {
			stats.Processed++
		}
		if o.incomplete {
			stats.Incomplete++
		}
		stats.Records += o.records
		stats.Relevant += o.relevant
		stats.WriteErrors += o.writeErrs
	}

	stats.Cancelled = ctx.Err() != nil
	stats.FinishedAt = r.opts.Clock()
	stats.Elapsed = stats.FinishedAt.Sub(start)

	r.log.Info("Run finished",
		logger.Int("processed", stats.Processed),
		logger.Int("skipped", stats.Skipped),
		logger.Int("records", stats.Records),
		logger.Int("relevant", stats.Relevant),
		logger.Bool("cancelled", stats.Cancelled),
		logger.Duration("elapsed", stats.Elapsed))

	return stats
}

func (r *Runner) process(ctx context.Context, c domain.Company, keywords []domain.Keyword) outcome {
	if ctx.Err() != nil {
		return outcome{}
	}

	r.opts.Metrics.CompanyStarted()
	log := r.log.With(logger.Company(c.Name))
	log.Info("Investigating company", logger.String("domain", c.Domain))

	record, err := r.investigator.Investigate(ctx, c, keywords)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Investigation interrupted", logger.Error(err))
		} else {
			log.Error("Investigation failed", logger.Error(err))
		}
		r.opts.Metrics.CompanyAbandoned()
		return outcome{incomplete: true}
	}

	var o outcome
	o.processed = true
	at := r.opts.Clock()
	for _, ev := range record.Evidence {
		r.opts.Metrics.RecordEvidence(ev)
		rec := domain.NewRecord(r.opts.RunID, c, ev, r.opts.WindowChars, at)
		// A cancelled run still finishes writing the current company.
		if writeErr := r.sink.Write(context.WithoutCancel(ctx), rec); writeErr != nil {
			log.Error("Failed to write record", logger.Keyword(ev.Keyword), logger.Error(writeErr))
			o.writeErrs++
			continue
		}
		o.records++
		if ev.Verdict.Verdict == domain.Relevant {
			o.relevant++
		}
	}

	if r.opts.Summary != nil {
		summary := record.Summarize(at.Year())
		if sumErr := r.opts.Summary.Write(summary); sumErr != nil {
			log.Error("Failed to write summary", logger.Error(sumErr))
			o.writeErrs++
		}
	}

	r.opts.Metrics.CompanyDone()
	log.Info("Company done",
		logger.Int("records", o.records),
		logger.Int("relevant", o.relevant))
	return o
}
