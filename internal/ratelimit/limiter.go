// Package ratelimit is a persisted fixed-window rate limiter keyed by
// (endpoint, identifier). Unlike the in-process httprate middleware, it
// survives restarts and is shared across replicas.
package ratelimit

import (
	"context"
	"time"
)

// Store persists window counters. Implemented by
// repository.RateLimitsRepository.
type Store interface {
	Bump(ctx context.Context, endpoint, identifier string, windowSize time.Duration) (attempts int, windowStart time.Time, err error)
}

// Result describes one limiting decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter enforces a per-(endpoint, identifier) attempt budget within a
// rolling window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// NewLimiter creates a limiter allowing limit attempts per window.
func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow records one attempt and decides whether it fits the budget.
// Each identifier is counted independently; the window resets
// automatically once it has elapsed.
func (l *Limiter) Allow(ctx context.Context, endpoint, identifier string) (Result, error) {
	attempts, windowStart, err := l.store.Bump(ctx, endpoint, identifier, l.window)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(attempts, windowStart, l.limit, l.window, time.Now()), nil
}

// Evaluate turns a bumped counter into a decision. Pure; now is passed
// in for testability.
func Evaluate(attempts int, windowStart time.Time, limit int, window time.Duration, now time.Time) Result {
	if attempts <= limit {
		return Result{
			Allowed:   true,
			Remaining: limit - attempts,
		}
	}

	retryAfter := window - now.Sub(windowStart)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Result{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: retryAfter,
	}
}
