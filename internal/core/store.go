package core

import "context"

// CredentialStore resolves principals and verifies knowledge-factor secrets.
type CredentialStore interface {
	// Lookup returns the stored record for the principal.
	// It returns ErrUnknownPrincipal when no record exists.
	Lookup(ctx context.Context, principal string) (CredentialRecord, error)

	// VerifySecret checks a candidate secret against the stored hash.
	// The comparison takes the same time for right and wrong candidates
	// of equal length. It returns ErrUnknownPrincipal when no record
	// exists.
	VerifySecret(ctx context.Context, principal, candidate string) (bool, error)
}
