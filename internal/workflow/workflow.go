// Package workflow chains pipeline steps into one locked invocation and
// reports per-step timing.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/gonews/internal/lock"
	"github.com/jonesrussell/gonews/internal/logger"
	"github.com/jonesrussell/gonews/internal/metrics"
)

// Step is one unit of a workflow run.
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

type stepFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (s stepFunc) Name() string                  { return s.name }
func (s stepFunc) Run(ctx context.Context) error { return s.fn(ctx) }

// NewStep wraps a function as a Step.
func NewStep(name string, fn func(ctx context.Context) error) Step {
	return stepFunc{name: name, fn: fn}
}

// BusyError means another invocation holds the pipeline lock.
type BusyError struct {
	Reason string
}

func (e *BusyError) Error() string {
	return "workflow busy: " + e.Reason
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step    string  `json:"step"`
	Seconds float64 `json:"seconds"`
	OK      bool    `json:"ok"`
	Error   string  `json:"error,omitempty"`
}

// Report summarizes a whole run.
type Report struct {
	OK      bool         `json:"ok"`
	Results []StepResult `json:"results"`
}

// Runner executes workflows under the pipeline lock.
type Runner struct {
	lock lock.Lock
	log  logger.Logger
}

// NewRunner creates a workflow runner.
func NewRunner(l lock.Lock, log logger.Logger) *Runner {
	return &Runner{lock: l, log: log}
}

// Execute runs the steps in order, stopping at the first failure. The lock
// is taken once for the whole run. A step failure is reported in the
// returned Report, not as an error; Execute errors only when the lock is
// busy or unreachable.
func (r *Runner) Execute(ctx context.Context, steps []Step) (Report, error) {
	acquired, reason, err := r.lock.Acquire(ctx)
	if err != nil {
		metrics.WorkflowRuns.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		metrics.WorkflowRuns.WithLabelValues("busy").Inc()
		return Report{}, &BusyError{Reason: reason}
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx)); err != nil {
			r.log.Warn("lock release failed", logger.Error(err))
		}
	}()

	report := Report{OK: true}
	for _, step := range steps {
		start := time.Now()
		r.log.Info("step starting", logger.String("step", step.Name()))

		err := step.Run(ctx)
		result := StepResult{
			Step:    step.Name(),
			Seconds: round(time.Since(start).Seconds()),
			OK:      err == nil,
		}
		if err != nil {
			result.Error = err.Error()
			report.OK = false
			report.Results = append(report.Results, result)
			r.log.Error("step failed, aborting workflow",
				logger.String("step", step.Name()),
				logger.Error(err))
			break
		}
		report.Results = append(report.Results, result)
		r.log.Info("step finished",
			logger.String("step", step.Name()),
			logger.Float64("seconds", result.Seconds))
	}

	if report.OK {
		metrics.WorkflowRuns.WithLabelValues("success").Inc()
	} else {
		metrics.WorkflowRuns.WithLabelValues("failure").Inc()
	}
	return report, nil
}

func round(seconds float64) float64 {
	return float64(int(seconds*1000)) / 1000
}
