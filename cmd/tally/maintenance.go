package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"tally/internal/log"
)

// maintenanceJob is one periodic cleanup task. It returns the number of
// removed entries.
type maintenanceJob struct {
	name string
	spec string
	run  func(ctx context.Context) (int, error)
}

// newScheduler registers jobs on a cron scheduler that is not yet started.
func newScheduler(ctx context.Context, logger *log.Logger, jobs ...maintenanceJob) (*cron.Cron, error) {
	logger = logger.WithComponent(log.ComponentCron)
	c := cron.New()
	for _, job := range jobs {
		_, err := c.AddFunc(job.spec, func() {
			runJob(ctx, logger, job)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", job.name, err)
		}
		logger.Info("Maintenance job scheduled", "job", job.name, "schedule", job.spec)
	}
	return c, nil
}

func runJob(ctx context.Context, logger *log.Logger, job maintenanceJob) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	removed, err := job.run(ctx)
	if err != nil {
		log.NewStructuredLogger(logger).LogError(ctx, "Maintenance job failed", err, log.OpCleanup,
			log.NewFields().With("job", job.name))
		return
	}
	if removed > 0 {
		logger.InfoContext(ctx, "Maintenance job finished", "job", job.name, "removed", removed)
	}
}
