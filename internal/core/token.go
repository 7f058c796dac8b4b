package core

import (
	"context"
	"time"
)

// MinterInfo is some additional information shown alongside a minted token.
type MinterInfo struct {
	// Type is the minter type (e.g., "random", "signed").
	Type string `json:"type"`

	// Version is the minter version (e.g., "v1").
	Version string `json:"version"`
}

// TokenArtifact is the result of a successful Mint operation.
type TokenArtifact struct {
	// Value is the actual session token string.
	Value string `json:"value"`

	// ExpiresAt indicates when this token becomes invalid.
	// Zero means the token carries no expiry of its own.
	ExpiresAt time.Time `json:"expires_at"`

	// Minter contains information about the issuing component.
	Minter MinterInfo `json:"minter"`

	// Metadata contains extra information (e.g. "alg": "HS256").
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TokenMinter creates session tokens for fully verified sessions.
type TokenMinter interface {
	// Name returns the identifier of this minter (as used in config).
	Name() string

	// Mint creates a new session token for the session's principal.
	Mint(ctx context.Context, session *Session) (*TokenArtifact, error)
}
