package ratelimit

import (
	"sync"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

// Defaults applied when config leaves the limits unset.
const (
	DefaultMaxAttempts = 3
	DefaultLockout     = 30 * time.Second
)

// bucket tracks one principal's consecutive failures. Its mutex
// serializes attempts for that principal only, so a slow verification
// never blocks other principals.
type bucket struct {
	mu          sync.Mutex
	failures    int
	lockedUntil time.Time
}

// Limiter locks a principal out after too many consecutive failures.
// Expired lockouts reset lazily on the next Check, Record or Attempt;
// there is no background sweeper.
type Limiter struct {
	mu          sync.Mutex
	maxAttempts int
	lockout     time.Duration
	clock       core.Clock
	buckets     map[string]*bucket
}

// New builds a limiter. Non-positive values fall back to
// DefaultMaxAttempts and DefaultLockout; a nil clock means the wall
// clock.
func New(maxAttempts int, lockout time.Duration, clock core.Clock) *Limiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}
	if clock == nil {
		clock = core.SystemClock
	}
	return &Limiter{
		maxAttempts: maxAttempts,
		lockout:     lockout,
		clock:       clock,
		buckets:     make(map[string]*bucket),
	}
}

// bucket returns the principal's bucket, creating it on first use.
func (l *Limiter) bucket(principal string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[principal]
	if !ok {
		b = &bucket{}
		l.buckets[principal] = b
	}
	return b
}

// Check reports whether the principal may attempt right now.
// It never consumes an attempt.
func (l *Limiter) Check(principal string) core.LimitDecision {
	l.mu.Lock()
	b, ok := l.buckets[principal]
	l.mu.Unlock()
	if !ok {
		return core.LimitDecision{Allowed: true}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if remaining := l.remaining(b); remaining > 0 {
		return core.LimitDecision{RetryAfter: remaining}
	}
	return core.LimitDecision{Allowed: true}
}

// Attempt runs verify inside the principal's critical section. The
// lockout check, the verification and the outcome bookkeeping cannot
// interleave with another attempt for the same principal, so at most
// maxAttempts verifications ever run before the lockout takes hold.
func (l *Limiter) Attempt(principal string, verify core.AttemptFunc) (core.AttemptResult, error) {
	b := l.bucket(principal)
	b.mu.Lock()
	defer b.mu.Unlock()

	if remaining := l.remaining(b); remaining > 0 {
		return core.AttemptResult{RetryAfter: remaining}, nil
	}

	ok, err := verify()
	if err != nil {
		// No verdict was reached, so no attempt is consumed.
		return core.AttemptResult{Allowed: true}, err
	}
	l.record(b, ok)
	return core.AttemptResult{Allowed: true, OK: ok}, nil
}

// Record counts the outcome of a finished attempt.
func (l *Limiter) Record(principal string, success bool) core.LimitState {
	b := l.bucket(principal)
	b.mu.Lock()
	defer b.mu.Unlock()
	return l.record(b, success)
}

// record applies an outcome to a bucket. Callers must hold the bucket
// mutex.
func (l *Limiter) record(b *bucket, success bool) core.LimitState {
	if remaining := l.remaining(b); remaining > 0 {
		// Attempts during a lockout neither extend nor shorten it.
		return core.LimitState{Failures: b.failures, Locked: true, RetryAfter: remaining}
	}

	if success {
		b.failures = 0
		b.lockedUntil = time.Time{}
		return core.LimitState{}
	}

	b.failures++
	state := core.LimitState{Failures: b.failures}
	if b.failures >= l.maxAttempts {
		b.lockedUntil = l.clock.Now().Add(l.lockout)
		state.Locked = true
		state.RetryAfter = l.lockout
	}
	return state
}

// remaining returns the remaining lockout time, resetting the bucket
// when the lockout has expired. Callers must hold the bucket mutex.
func (l *Limiter) remaining(b *bucket) time.Duration {
	if b.lockedUntil.IsZero() {
		return 0
	}
	remaining := b.lockedUntil.Sub(l.clock.Now())
	if remaining > 0 {
		return remaining
	}
	b.failures = 0
	b.lockedUntil = time.Time{}
	return 0
}
