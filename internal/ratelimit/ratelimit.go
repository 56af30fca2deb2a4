// Package ratelimit provides a wrapper around golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter spends a per-minute budget of request weight. Venues such as
// Binance charge endpoints different weights against the same budget.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter refilling perMinute units every minute with a burst
// of a tenth of that. perMinute <= 0 disables limiting.
func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
	}
}

// Wait blocks until one unit is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// WaitN blocks until weight units are available. Weights above the burst are
// charged as a full burst.
func (l *Limiter) WaitN(ctx context.Context, weight int) error {
	if weight < 1 {
		weight = 1
	}
	if b := l.limiter.Burst(); weight > b {
		weight = b
	}
	return l.limiter.WaitN(ctx, weight)
}
