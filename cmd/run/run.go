// Package run implements the batch command that investigates every company
// of an input file.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/evidence/cmd/common"
	"github.com/jonesrussell/north-cloud/evidence/internal/config"
	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
	"github.com/jonesrussell/north-cloud/evidence/internal/input"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
	"github.com/jonesrussell/north-cloud/evidence/internal/output"
	"github.com/jonesrussell/north-cloud/evidence/internal/pipeline"
	"github.com/jonesrussell/north-cloud/evidence/internal/report"
)

// Flags holds the run command's flags.
type Flags struct {
	Input    string
	Keywords string
	Output   string
	Summary  string
	Workers  int
	NoResume bool
	Schedule string
}

// Command returns the run command.
func Command() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Investigate every company of an input file",
		Long: `Crawl each company's site, evaluate every keyword and append one row per
(company, keyword) to the output CSV. Companies already present in the output
are skipped unless --no-resume is set.

Examples:
  evidence run --input companies.csv --keywords keywords.json
  evidence run --input companies.xlsx --keywords keywords.json --schedule "@daily"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			flags.apply(deps.Config)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			job, err := newJob(deps, flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() { _ = job.components.Close() }()

			if flags.Schedule != "" {
				return runScheduled(ctx, job, flags.Schedule)
			}
			_, err = job.Run(ctx)
			return err
		},
	}

	cmd.Flags().StringVarP(&flags.Input, "input", "i", "", "companies file (.csv, .txt or .xlsx)")
	cmd.Flags().StringVarP(&flags.Keywords, "keywords", "k", "", "keywords JSON file ({provider: [keywords]})")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "results CSV (overrides output.csv_path)")
	cmd.Flags().StringVar(&flags.Summary, "summary", "", "per-company summary CSV")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, "companies investigated concurrently")
	cmd.Flags().BoolVar(&flags.NoResume, "no-resume", false, "process companies already present in the output")
	cmd.Flags().StringVar(&flags.Schedule, "schedule", "", `re-run on a cron spec, e.g. "@daily" or "0 3 * * *"`)
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("keywords")

	return cmd
}

func (f Flags) apply(cfg *config.Config) {
	if f.Output != "" {
		cfg.Output.CSVPath = f.Output
	}
	if f.Summary != "" {
		cfg.Output.SummaryPath = f.Summary
	}
	if f.Workers > 0 {
		cfg.Pipeline.Workers = f.Workers
	}
	if f.NoResume {
		cfg.Output.NoResume = true
	}
}

// job is one configured batch that can run repeatedly.
type job struct {
	cfg        *config.Config
	log        logger.Logger
	components *common.Components
	companies  []domain.Company
	keywords   []domain.Keyword
	out        io.Writer
}

func newJob(deps common.CommandDeps, flags Flags, out io.Writer) (*job, error) {
	companies, err := input.LoadCompanies(flags.Input, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	keywords, err := input.LoadKeywords(flags.Keywords)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}

	components, err := common.BuildComponents(deps.Config, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("build components: %w", err)
	}

	return &job{
		cfg:        deps.Config,
		log:        deps.Logger,
		components: components,
		companies:  companies,
		keywords:   keywords,
		out:        out,
	}, nil
}

// Run performs one pass over the companies and prints its statistics.
func (j *job) Run(ctx context.Context) (pipeline.RunStats, error) {
	processed := map[string]struct{}{}
	if !j.cfg.Output.NoResume {
		done, err := output.ProcessedCompanies(j.cfg.Output.CSVPath)
		if err != nil {
			return pipeline.RunStats{}, fmt.Errorf("read processed companies: %w", err)
		}
		processed = done
	}

	sink, err := output.Open(ctx, j.cfg.Output, j.log)
	if err != nil {
		return pipeline.RunStats{}, fmt.Errorf("open output: %w", err)
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			j.log.Error("Failed to close output", logger.Error(closeErr))
		}
	}()

	opts := pipeline.RunnerOptions{
		Workers:     j.cfg.Pipeline.EffectiveWorkers(j.components.RenderEnabled),
		WindowChars: j.cfg.Output.WindowChars,
		Processed:   processed,
		Metrics:     j.components.Metrics,
	}
	if j.cfg.Output.SummaryPath != "" {
		summary, sumErr := output.NewSummaryWriter(j.cfg.Output.SummaryPath)
		if sumErr != nil {
			return pipeline.RunStats{}, fmt.Errorf("open summary: %w", sumErr)
		}
		defer func() { _ = summary.Close() }()
		opts.Summary = summary
	}

	runner := pipeline.NewRunner(j.components.Investigator, sink, opts, j.log)
	stats := runner.Run(ctx, j.companies, j.keywords)
	report.RenderStats(j.out, stats)

	if stats.Cancelled && !errors.Is(context.Cause(ctx), context.Canceled) {
		return stats, context.Cause(ctx)
	}
	return stats, nil
}
