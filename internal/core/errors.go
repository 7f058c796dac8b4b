package core

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors of the authentication taxonomy. The API and CLI
// layers map these onto status codes and exit codes.
var (
	// ErrUnknownPrincipal means the claimed principal has no stored
	// credential record.
	ErrUnknownPrincipal = errors.New("unknown principal")

	// ErrAuditUnavailable means the audit trail could not persist an
	// entry. Operations fail when the trail fails.
	ErrAuditUnavailable = errors.New("audit log unavailable")

	// ErrNoRoute means no destination accepts the authenticated role.
	ErrNoRoute = errors.New("no route for role")
)

// LockedOutError is returned while a principal is locked out after too
// many failed attempts.
type LockedOutError struct {
	// RetryAfter is the remaining lockout duration.
	RetryAfter time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("locked out, retry in %s", e.RetryAfter.Round(time.Second))
}

// FactorError is returned when a factor rejects or abandons an attempt.
type FactorError struct {
	// Factor is the name of the chain step that decided.
	Factor string

	// Reason is the factor's short explanation.
	Reason string

	// Timeout is true when the factor gave up waiting rather than
	// rejecting the input.
	Timeout bool
}

func (e *FactorError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("factor %q timed out: %s", e.Factor, e.Reason)
	}
	return fmt.Sprintf("factor %q failed: %s", e.Factor, e.Reason)
}
