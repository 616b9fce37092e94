package api

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/stage"
)

// Cron triggers the default workflow on a schedule, for deployments without
// an external cron caller.
type Cron struct {
	scheduler *cron.Cron
	log       logger.Logger
}

// NewCron schedules the default workflow. spec uses standard five-field
// cron syntax.
func NewCron(spec string, exec Executor, build StepBuilder, defaultWorkflow string, log logger.Logger) (*Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(spec, func() {
		names, err := stage.ParseWorkflow(defaultWorkflow)
		if err != nil {
			log.Error("cron workflow spec invalid", logger.Error(err))
			return
		}
		steps, err := build(names)
		if err != nil {
			log.Error("cron step build failed", logger.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()

		report, err := exec.Execute(ctx, steps)
		if err != nil {
			log.Warn("scheduled run did not start", logger.Error(err))
			return
		}
		log.Info("scheduled run finished", logger.Bool("ok", report.OK))
	})
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", spec, err)
	}
	return &Cron{scheduler: scheduler, log: log}, nil
}

// Start begins firing the schedule in the background.
func (c *Cron) Start() {
	c.scheduler.Start()
}

// Stop halts the schedule, waiting for a running job to finish.
func (c *Cron) Stop() {
	<-c.scheduler.Stop().Done()
}
