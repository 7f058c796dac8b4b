package core

import "time"

// LimitDecision is the limiter's answer to "may this principal attempt?".
type LimitDecision struct {
	// Allowed is true when the attempt may proceed.
	Allowed bool

	// RetryAfter is how long the caller must wait when not allowed.
	RetryAfter time.Duration
}

// LimitState reflects a principal's bucket after recording an attempt.
type LimitState struct {
	// Failures is the consecutive-failure count.
	Failures int

	// Locked is true when the principal is locked out.
	Locked bool

	// RetryAfter is the remaining lockout duration when Locked.
	RetryAfter time.Duration
}

// AttemptFunc is the verification step of a single attempt. It returns
// whether the presented credential matched.
type AttemptFunc func() (bool, error)

// AttemptResult reports what happened to a serialized attempt.
type AttemptResult struct {
	// Allowed is false when the principal was locked out and verify
	// never ran.
	Allowed bool

	// RetryAfter is the remaining lockout duration when not allowed.
	RetryAfter time.Duration

	// OK is the verification verdict when the attempt was allowed.
	OK bool
}

// AttemptLimiter throttles failed authentication attempts per principal.
// Implementations must be safe for concurrent use.
type AttemptLimiter interface {
	// Check reports whether the principal may attempt right now.
	// It never consumes an attempt.
	Check(principal string) LimitDecision

	// Attempt runs verify under the principal's exclusive attempt slot:
	// the lockout check, the verification and the outcome bookkeeping
	// form one critical section, so concurrent attempts for the same
	// principal cannot slip past the budget between checking and
	// recording. A locked principal is rejected without running verify,
	// and a verify error is returned as-is without consuming an attempt.
	Attempt(principal string, verify AttemptFunc) (AttemptResult, error)
}
