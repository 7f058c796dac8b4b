package api

import (
	"net/http"

	"github.com/darmiel/riegel/internal/api/middleware"
	"github.com/darmiel/riegel/internal/audit"
	"github.com/darmiel/riegel/internal/core"
	"github.com/darmiel/riegel/internal/routes"
	"github.com/darmiel/riegel/internal/service"
)

type Server struct {
	authService *service.AuthService
	searcher    audit.Searcher
	evidence    *routes.EvidenceLog
	table       *routes.Table
	auditKey    []byte
}

// NewServer wires the HTTP surface. The searcher may be nil when no
// queryable audit sink is configured; the admin read endpoints then
// report that instead of listing entries.
func NewServer(
	authService *service.AuthService,
	searcher audit.Searcher,
	evidence *routes.EvidenceLog,
	table *routes.Table,
	auditKey []byte,
) *Server {
	return &Server{
		authService: authService,
		searcher:    searcher,
		evidence:    evidence,
		table:       table,
		auditKey:    auditKey,
	}
}

// Routes assembles the handler tree. The signing key verifies session
// tokens on the guarded surfaces; the throttle may be nil.
func (s *Server) Routes(signingKey []byte, throttle *middleware.Throttle) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// the authentication gate itself
	mux.HandleFunc("POST "+AuthenticateRoute, s.handleAuthenticate)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudits)
	adminMux.HandleFunc("GET "+VerifyAuditsRoute, s.handleAdminVerify)
	adminMux.HandleFunc("GET "+ExplainRoute, s.handleExplainRoutes)
	mux.Handle(AdminParent, middleware.RequireRole(signingKey, core.RoleAdmin)(adminMux))

	// evidence tagging is open to analysts as well
	evidenceMux := http.NewServeMux()
	evidenceMux.HandleFunc("POST "+TagEvidenceRoute, s.handleTagEvidence)
	mux.Handle(EvidenceParent,
		middleware.RequireRole(signingKey, core.RoleAdmin, core.RoleAnalyst)(evidenceMux))

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				throttle.Middleware(
					mux))))
}
