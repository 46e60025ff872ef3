package run

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

// cronParser accepts five-field specs and descriptors such as "@daily".
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// runScheduled runs the job immediately and then on every tick of spec until
// ctx ends. Later passes re-evaluate every company. Overlapping passes are
// skipped.
func runScheduled(ctx context.Context, j *job, spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	if _, runErr := j.Run(ctx); runErr != nil {
		return runErr
	}
	j.cfg.Output.NoResume = true

	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger), cron.Recover(cron.DefaultLogger)),
	)
	if _, err := c.AddJob(spec, cron.FuncJob(func() {
		if _, runErr := j.Run(ctx); runErr != nil {
			j.log.Error("Scheduled run failed", logger.Error(runErr))
		}
	})); err != nil {
		return fmt.Errorf("schedule run: %w", err)
	}

	j.log.Info("Scheduler started", logger.String("schedule", spec))
	c.Start()

	<-ctx.Done()
	j.log.Info("Stopping scheduler")
	<-c.Stop().Done()
	return nil
}
