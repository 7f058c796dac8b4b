package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/riegel/internal/api/presenter"
	"github.com/darmiel/riegel/internal/core"
)

// RequireRole guards a handler behind a signed session token carrying
// one of the allowed roles. Tokens come from the signed minter, so only
// deployments with `token.type: signed` can use the guarded surface.
// TODO(future): this is a simple role gate; a real RBAC layer would replace it.
func RequireRole(signingKey []byte, allowed ...core.Role) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			tokenStr := strings.TrimPrefix(auth, "Bearer ")

			if tokenStr == "" {
				presenter.Error(w, r, "login required", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method")
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				presenter.Error(w, r, "invalid session token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				presenter.Error(w, r, "invalid claims", http.StatusUnauthorized)
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				presenter.Error(w, r, "invalid claims", http.StatusUnauthorized)
				return
			}

			hasPrivilege := false
			for _, role := range allowed {
				if roleStr == string(role) {
					hasPrivilege = true
					break
				}
			}
			if !hasPrivilege {
				presenter.Error(w, r, "insufficient privileges", http.StatusForbidden)
				return
			}

			// Stash the subject and role so handlers can attribute
			// their work.
			subject, _ := claims["sub"].(string)
			ctx := context.WithValue(r.Context(), principalKey, subject)
			ctx = context.WithValue(ctx, roleKey, core.Role(roleStr))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
