package core

import (
	"fmt"
	"strings"
	"time"
)

// Role is the clearance level assigned to a principal.
// Roles are fixed at configuration time; there is no runtime role management.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleAnalyst Role = "Analyst"
	RoleGuest   Role = "Guest"
)

// ParseRole maps a config or wire value onto a known Role.
// Matching is case-insensitive so "admin" and "Admin" both work.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "analyst":
		return RoleAnalyst, nil
	case "guest":
		return RoleGuest, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CredentialRecord is the stored identity material for a single principal.
type CredentialRecord struct {
	// Principal is the unique login name.
	Principal string

	// SecretHash is the hashed knowledge-factor secret.
	// The raw secret is never stored.
	SecretHash []byte

	// Role assigned to the principal on successful authentication.
	Role Role
}

// FactorOutcome captures the result of a single factor within a session.
type FactorOutcome struct {
	Factor string       `json:"factor"`
	Result FactorResult `json:"result"`
}

// Session is the ephemeral state of one authentication attempt.
// It lives for the duration of a single Authenticate call and is never
// persisted; the audit trail keeps the durable record.
type Session struct {
	// ID is the unique session identifier, doubling as the correlation ID.
	ID string

	// Principal is the login name the caller claimed.
	Principal string

	// Role is filled in once the principal is resolved.
	Role Role

	// StartedAt is when the session was opened.
	StartedAt time.Time

	// Outcomes holds the per-factor results in chain order.
	Outcomes []FactorOutcome
}

// Grant is the product of a fully verified session.
type Grant struct {
	// SessionID is the session that produced this grant.
	SessionID string `json:"session_id"`

	// Principal is the authenticated login name.
	Principal string `json:"principal"`

	// Role is the clearance attached to the principal.
	Role Role `json:"role"`

	// Token is the minted session token.
	Token TokenArtifact `json:"token"`
}

// RouteDecision tells the caller where an authenticated principal lands.
type RouteDecision struct {
	// Path is the destination, e.g. "/admin/dashboard".
	Path string `json:"path"`

	// Description is a human-readable summary of the destination.
	Description string `json:"description,omitempty"`
}
