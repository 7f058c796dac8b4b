package core

import (
	"context"
	"time"
)

// FactorStatus classifies the outcome of a single factor attempt.
type FactorStatus string

const (
	// FactorPassed means the factor verified successfully.
	FactorPassed FactorStatus = "passed"

	// FactorFailed means the factor rejected the attempt.
	FactorFailed FactorStatus = "failed"

	// FactorTimedOut means the factor gave up waiting for input or for
	// an external capability.
	FactorTimedOut FactorStatus = "timeout"
)

// FactorResult is the verdict of one factor attempt.
type FactorResult struct {
	// Status is the pass/fail/timeout classification.
	Status FactorStatus `json:"status"`

	// Reason explains a failure or timeout in one short sentence.
	// Empty on success.
	Reason string `json:"reason,omitempty"`

	// RetryAfter is set when the failure is a lockout and tells the
	// caller how long until attempts are accepted again.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

func Passed() FactorResult {
	return FactorResult{Status: FactorPassed}
}

func Failed(reason string) FactorResult {
	return FactorResult{Status: FactorFailed, Reason: reason}
}

func TimedOut(reason string) FactorResult {
	return FactorResult{Status: FactorTimedOut, Reason: reason}
}

// Challenge is a prompt a factor sends to the caller.
type Challenge struct {
	// Factor is the name of the factor asking.
	Factor string

	// Principal the challenge is addressed to.
	Principal string

	// Prompt is the human-readable question.
	Prompt string

	// Sensitive marks challenges whose answer must not be echoed.
	Sensitive bool
}

// Responder delivers challenges to the caller and returns the answers.
// A terminal binding prompts on stdin; the HTTP binding answers from
// fields of the request body.
type Responder interface {
	Respond(ctx context.Context, challenge Challenge) (string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, challenge Challenge) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, challenge Challenge) (string, error) {
	return f(ctx, challenge)
}

// Exchange carries the per-session context a factor needs to run.
type Exchange struct {
	// SessionID of the enclosing authentication session.
	SessionID string

	// Principal being verified.
	Principal string

	// Responder used to challenge the caller for input.
	Responder Responder
}

// Factor is one step of the authentication chain.
// Implementations: secret (knowledge), biometric (inherence), OTP or
// TOTP (possession). A single Factor instance serves many sessions and
// must be safe for concurrent use.
type Factor interface {
	// Name returns the identifier of this factor (as used in config).
	Name() string

	// Attempt runs the factor once for the given exchange.
	// It returns a verdict rather than an error: operational problems
	// are folded into a failed or timed-out result so the chain can
	// audit them uniformly.
	Attempt(ctx context.Context, ex *Exchange) FactorResult
}
