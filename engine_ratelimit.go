package goAuthz

import (
	"context"
	"time"
)

// CheckCooldown gates operation for caller behind a cooldown of window. It
// returns a *RateLimitError carrying the seconds left when throttled.
func (e *Engine) CheckCooldown(ctx context.Context, operation, caller string, window time.Duration) error {
	if err := e.ready(); err != nil {
		return err
	}
	remaining, err := e.limiter.Cooldown(ctx, operation, caller, window)
	if err != nil {
		return storageErr(err)
	}
	if remaining > 0 {
		e.metricInc(MetricRateLimitHit)
		return &RateLimitError{Remaining: remaining}
	}
	return nil
}

// CheckWindow allows operation for caller at most maxCalls times per fixed
// window. It returns a *RateLimitError once the window is exhausted.
func (e *Engine) CheckWindow(ctx context.Context, operation, caller string, window time.Duration, maxCalls int) error {
	if err := e.ready(); err != nil {
		return err
	}
	limited, err := e.limiter.FixedWindow(ctx, operation, caller, window, maxCalls)
	if err != nil {
		return storageErr(err)
	}
	if limited {
		e.metricInc(MetricRateLimitHit)
		return &RateLimitError{}
	}
	return nil
}
