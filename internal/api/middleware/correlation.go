package middleware

import (
	"context"
	"net/http"

	"github.com/rs/xid"

	"github.com/darmiel/riegel/internal/core"
)

const CorrelationIDHeader = "X-Correlation-ID"

const (
	principalKey = "auth_principal"
	roleKey      = "auth_role"
)

// PrincipalCtx retrieves the authenticated principal set by RequireRole.
func PrincipalCtx(ctx context.Context) string {
	principal, ok := ctx.Value(principalKey).(string)
	if !ok {
		return ""
	}
	return principal
}

// RoleCtx retrieves the verified role set by RequireRole.
func RoleCtx(ctx context.Context) core.Role {
	role, ok := ctx.Value(roleKey).(core.Role)
	if !ok {
		return ""
	}
	return role
}

// CorrelationIDMiddleware tags every request with a correlation ID. The
// same ID doubles as the session ID of an authentication attempt, so a
// trail entry can be traced back to its request.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		w.Header().Set(CorrelationIDHeader, id)

		ctx := core.WithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
