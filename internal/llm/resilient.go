package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/gonews/internal/logger"
)

// ErrEmptyResponse is returned when the model answers with no usable text on
// every attempt.
var ErrEmptyResponse = errors.New("model returned empty response")

// Resilient wraps a Generator with fixed-delay retries and a fallback model.
// Each model gets up to Attempts tries; an empty response counts as a
// failure. When the primary model is exhausted the same request is replayed
// on the fallback model, if one is configured.
type Resilient struct {
	inner    Generator
	log      logger.Logger
	attempts int
	delay    time.Duration
	fallback string
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewResilient wraps inner. Attempts below 1 is treated as 1; fallback may
// be empty to disable the second model.
func NewResilient(inner Generator, log logger.Logger, attempts int, delay time.Duration, fallback string) *Resilient {
	if attempts < 1 {
		attempts = 1
	}
	return &Resilient{
		inner:    inner,
		log:      log,
		attempts: attempts,
		delay:    delay,
		fallback: fallback,
		sleep:    sleepCtx,
	}
}

// Generate retries the primary model, then the fallback.
func (r *Resilient) Generate(ctx context.Context, req Request) (string, error) {
	text, err := r.tryModel(ctx, req)
	if err == nil {
		return text, nil
	}
	if r.fallback == "" || r.fallback == req.Model || errors.Is(err, context.Canceled) {
		return "", err
	}

	r.log.Warn("primary model exhausted, switching to fallback",
		logger.String("fallback", r.fallback), logger.Error(err))

	fb := req
	fb.Model = r.fallback
	return r.tryModel(ctx, fb)
}

func (r *Resilient) tryModel(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		text, err := r.inner.Generate(ctx, req)
		if err == nil && text != "" {
			return text, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		r.log.Warn("generation attempt failed",
			logger.Int("attempt", attempt), logger.Error(err))

		if attempt < r.attempts {
			if serr := r.sleep(ctx, r.delay); serr != nil {
				return "", serr
			}
		}
	}
	return "", fmt.Errorf("generate after %d attempts: %w", r.attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
