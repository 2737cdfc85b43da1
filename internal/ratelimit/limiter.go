// Package ratelimit provides the pacing primitives used when spawning
// synthetic traffic: a token-bucket cap for requests per second and a Pacer
// that spreads a fixed number of starts evenly across an interval.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter caps operations at a fixed rate per second.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter that allows rps operations per second.
// If rps is 0 or negative, returns nil (no limiting).
func NewRateLimiter(rps int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Wait blocks until the limiter allows an event or ctx is cancelled.
// Nil-safe: a nil limiter never blocks.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// SetRate updates the limit to a new rps value. Zero or negative disables
// limiting.
func (r *RateLimiter) SetRate(rps int) {
	if r == nil || r.limiter == nil {
		return
	}
	if rps <= 0 {
		r.limiter.SetLimit(rate.Inf)
		return
	}
	r.limiter.SetLimit(rate.Limit(rps))
	r.limiter.SetBurst(rps)
}

// Pacer spaces n starts evenly across an interval: the first Wait returns
// immediately, each subsequent Wait after a gap of interval/n. The n-th
// start therefore lands at interval*(n-1)/n.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer for n starts over interval. Non-positive inputs
// yield a pacer that never blocks.
func NewPacer(n int, interval time.Duration) *Pacer {
	if n <= 0 || interval <= 0 {
		return &Pacer{}
	}
	gap := interval / time.Duration(n)
	if gap <= 0 {
		return &Pacer{}
	}
	// Burst 1 with a full bucket: the first token is free, the rest are
	// spaced one gap apart.
	return &Pacer{limiter: rate.NewLimiter(rate.Every(gap), 1)}
}

// Wait blocks until the next start slot or ctx cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
