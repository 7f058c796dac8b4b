package service

import "github.com/darmiel/riegel/internal/core"

type AuthRequest struct {
	// Principal is the login name to authenticate.
	Principal string

	// Responder supplies the caller's answers to factor challenges.
	// Bindings: terminal prompts (CLI), request fields (API), scripted
	// answers (tests).
	Responder core.Responder
}

type AuthResponse struct {
	// SessionID identifies the authentication session. It matches the
	// ID of the session's audit entry.
	SessionID string

	// Principal that was authenticated.
	Principal string

	// Role resolved from the credential record.
	Role core.Role

	// Token is the minted session token artifact.
	Token *core.TokenArtifact

	// Route is the role-scoped landing destination. Zero when no route
	// accepts the role.
	Route core.RouteDecision
}
