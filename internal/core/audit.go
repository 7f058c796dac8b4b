package core

import (
	"context"
	"time"
)

// Outcome is the final disposition of an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Actions recorded in the audit trail.
const (
	ActionAuthenticate = "session.authenticate"
	ActionEvidenceTag  = "evidence.tag"
)

// AuditEntry is one record in the append-only audit trail.
//
// Seq, Prev and Chain are assigned by the trail when the entry is
// recorded; callers leave them zero.
type AuditEntry struct {
	// Seq is the strictly increasing, gap-free sequence number.
	Seq uint64 `json:"seq"`

	// ID is the unique entry ID. For session entries this is the
	// session correlation ID.
	ID string `json:"id"`

	// Time is the timestamp of the event.
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "session.authenticate").
	Action string `json:"action"`

	// Principal identifies who the entry is about.
	Principal string `json:"principal"`

	// Role of the principal, when resolved.
	Role Role `json:"role,omitempty"`

	// Outcome is the final disposition.
	Outcome Outcome `json:"outcome"`

	// Factor names the chain step that decided a failed session.
	Factor string `json:"factor,omitempty"`

	// Detail is a short human-readable explanation.
	Detail string `json:"detail,omitempty"`

	// Token is the minted session token, present on success only.
	Token string `json:"token,omitempty"`

	// Metadata contains action-specific fields (e.g. evidence IDs).
	Metadata map[string]any `json:"metadata,omitempty"`

	// Prev is the chain link of the previous entry, hex encoded.
	Prev string `json:"prev,omitempty"`

	// Chain is the keyed link over Prev and this entry, hex encoded.
	// Together with Prev it makes silent edits detectable.
	Chain string `json:"chain,omitempty"`
}

// Auditor is the append-only audit trail.
//
// Record assigns the next sequence number and persists the entry. A
// Record error means the entry is not durably stored; the enclosing
// operation has to surface that instead of swallowing it.
type Auditor interface {
	// Record appends the entry and returns its sequence number.
	Record(ctx context.Context, entry *AuditEntry) (uint64, error)

	// Close flushes and releases the underlying sinks.
	Close() error
}
