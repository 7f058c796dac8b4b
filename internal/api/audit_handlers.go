package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/riegel/internal/api/middleware"
	"github.com/darmiel/riegel/internal/api/presenter"
	"github.com/darmiel/riegel/internal/audit"
	"github.com/darmiel/riegel/internal/core"
)

// handleAdminAudits processes requests to retrieve audit trail entries.
func (s *Server) handleAdminAudits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if s.searcher == nil {
		presenter.Error(w, r, "no queryable audit sink configured", http.StatusNotImplemented)
		return
	}

	// filters
	q := r.URL.Query()
	limitStr := q.Get("limit")

	filter := audit.Filter{
		ID:        q.Get("id"),
		Principal: q.Get("principal"),
		Outcome:   core.Outcome(q.Get("outcome")),
		Action:    q.Get("action"),
	}

	limit := 50
	if limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	entries, err := s.searcher.Find(ctx, filter, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit entries")
		presenter.Error(w, r, "failed to retrieve audit entries", http.StatusInternalServerError)
		return
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}

type VerifyResponse struct {
	// Entries is how many entries the check covered.
	Entries int `json:"entries"`

	// Intact reports whether every link of the chain held.
	Intact bool `json:"intact"`

	// Error names the first broken link when the chain did not hold.
	Error string `json:"error,omitempty"`
}

// handleAdminVerify replays the tamper-evidence chain over the stored
// entries and reports the first break, if any.
func (s *Server) handleAdminVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if s.searcher == nil {
		presenter.Error(w, r, "no queryable audit sink configured", http.StatusNotImplemented)
		return
	}

	entries, err := s.searcher.Recent(ctx, 0)
	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit entries")
		presenter.Error(w, r, "failed to retrieve audit entries", http.StatusInternalServerError)
		return
	}

	resp := VerifyResponse{Entries: len(entries), Intact: true}
	if err := audit.VerifyChain(s.auditKey, entries); err != nil {
		resp.Intact = false
		resp.Error = err.Error()
	}

	presenter.JSON(w, r, resp, http.StatusOK)
}

// handleExplainRoutes traces the routing table for a principal and role.
func (s *Server) handleExplainRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	role, err := core.ParseRole(q.Get("role"))
	if err != nil {
		presenter.Error(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	trace := s.table.Explain(q.Get("principal"), role)
	presenter.JSON(w, r, trace, http.StatusOK)
}

type TagEvidencePayload struct {
	// EvidenceID identifies the piece of evidence being annotated.
	EvidenceID string `json:"evidence_id"`

	// Note is the chain-of-custody note to attach.
	Note string `json:"note"`
}

// handleTagEvidence appends a forensic note to the audit trail. The
// principal is taken from the verified session token.
func (s *Server) handleTagEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload TagEvidencePayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode evidence payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.EvidenceID == "" {
		presenter.Error(w, r, "evidence_id is required", http.StatusBadRequest)
		return
	}

	principal := middleware.PrincipalCtx(ctx)
	seq, err := s.evidence.Tag(ctx, principal, middleware.RoleCtx(ctx), payload.EvidenceID, payload.Note)
	if err != nil {
		logger.Error().Err(err).Msg("failed to record evidence tag")
		presenter.Err(w, r, err, "failed to record evidence tag")
		return
	}

	logger.Info().
		Str("evidence_id", payload.EvidenceID).
		Uint64("seq", seq).
		Msg("evidence tagged")

	presenter.JSON(w, r, map[string]any{"seq": seq}, http.StatusCreated)
}
