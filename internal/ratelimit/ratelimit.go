// Package ratelimit throttles NDJSON stream processing so continuous
// extraction over a live feed can be sampled at a fixed document rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or a negative limit for no throttling.
func New(docsPerSecond float64) *Limiter {
	if docsPerSecond <= 0 {
		return &Limiter{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	// Burst of 1: the first document is processed immediately, subsequent
	// ones wait out the configured rate.
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(docsPerSecond), 1),
	}
}

// Wait blocks until the next document may be processed or the context is
// cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow is non-blocking, for callers that prefer dropping documents over
// queueing them.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit reports the configured rate, 0 meaning unlimited.
func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}
