package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/riegel/internal/core"
)

// AuthService drives a single authentication session through the
// factor chain: every factor has to pass, in order, before a session
// token is minted and the principal is routed.
type AuthService struct {
	store   core.CredentialStore
	factors []core.Factor
	minter  core.TokenMinter
	trail   core.Auditor
	router  core.Router
	clock   core.Clock
}

func NewAuthService(
	store core.CredentialStore,
	factors []core.Factor,
	minter core.TokenMinter,
	trail core.Auditor,
	router core.Router,
	clock core.Clock,
) *AuthService {
	if clock == nil {
		clock = core.SystemClock
	}
	return &AuthService{
		store:   store,
		factors: factors,
		minter:  minter,
		trail:   trail,
		router:  router,
		clock:   clock,
	}
}

// Authenticate runs the full chain for one session. The chain is
// fail-fast: the first factor that does not pass denies the session and
// the remaining factors never run.
//
// Every session ends with exactly one audit entry, granted or denied.
// If the trail cannot accept that entry the decision is withdrawn and
// the whole request fails, so no access is ever decided off the record.
func (s *AuthService) Authenticate(ctx context.Context, req AuthRequest) (resp *AuthResponse, err error) {
	logger := log.Ctx(ctx)

	sessionID := core.CorrelationID(ctx)
	if sessionID == "" {
		sessionID = xid.New().String()
	}

	session := &core.Session{
		ID:        sessionID,
		Principal: req.Principal,
		StartedAt: s.clock.Now(),
	}
	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("principal", req.Principal).Str("session_id", sessionID)
	})

	entry := &core.AuditEntry{
		ID:        sessionID,
		Action:    core.ActionAuthenticate,
		Principal: req.Principal,
		Outcome:   core.OutcomeFailure,
	}
	defer func() {
		if _, aerr := s.trail.Record(ctx, entry); aerr != nil {
			logger.Error().Err(aerr).Msg("failed to record the session outcome")
			resp = nil
			err = httpError(http.StatusServiceUnavailable,
				fmt.Errorf("recording session outcome: %w", aerr))
		}
	}()

	record, err := s.store.Lookup(ctx, req.Principal)
	if err != nil {
		if errors.Is(err, core.ErrUnknownPrincipal) {
			// Unknown principals never reach the factor chain and
			// never touch the attempt limiter.
			entry.Detail = "unknown principal"
			return nil, httpError(http.StatusUnauthorized, core.ErrUnknownPrincipal)
		}
		entry.Detail = "credential store error"
		return nil, httpError(http.StatusInternalServerError,
			fmt.Errorf("looking up principal: %w", err))
	}
	session.Role = record.Role
	entry.Role = record.Role

	exchange := &core.Exchange{
		SessionID: sessionID,
		Principal: req.Principal,
		Responder: req.Responder,
	}
	for _, factor := range s.factors {
		result := factor.Attempt(ctx, exchange)
		session.Outcomes = append(session.Outcomes, core.FactorOutcome{
			Factor: factor.Name(),
			Result: result,
		})
		if result.Status == core.FactorPassed {
			logger.Debug().Str("factor", factor.Name()).Msg("factor passed")
			continue
		}

		entry.Factor = factor.Name()
		entry.Detail = result.Reason
		logger.Info().
			Str("factor", factor.Name()).
			Str("reason", result.Reason).
			Msg("authentication denied")

		switch {
		case result.RetryAfter > 0:
			return nil, httpError(http.StatusTooManyRequests,
				&core.LockedOutError{RetryAfter: result.RetryAfter})
		case result.Status == core.FactorTimedOut:
			return nil, httpError(http.StatusRequestTimeout,
				&core.FactorError{Factor: factor.Name(), Reason: result.Reason, Timeout: true})
		default:
			return nil, httpError(http.StatusUnauthorized,
				&core.FactorError{Factor: factor.Name(), Reason: result.Reason})
		}
	}

	artifact, err := s.minter.Mint(ctx, session)
	if err != nil {
		entry.Detail = "minting session token failed"
		return nil, httpError(http.StatusInternalServerError,
			fmt.Errorf("minting session token: %w", err))
	}

	entry.Outcome = core.OutcomeSuccess
	entry.Token = artifact.Value

	// The route is presentation: a role without a landing route still
	// authenticates, the caller just gets nowhere to go.
	route, rerr := s.router.Route(ctx, &core.Grant{
		SessionID: sessionID,
		Principal: session.Principal,
		Role:      session.Role,
		Token:     *artifact,
	})
	if rerr != nil {
		logger.Warn().Err(rerr).Msg("no landing route resolved")
	}

	logger.Info().
		Str("role", string(session.Role)).
		Str("route", route.Path).
		Msg("authentication granted")

	return &AuthResponse{
		SessionID: sessionID,
		Principal: session.Principal,
		Role:      session.Role,
		Token:     artifact,
		Route:     route,
	}, nil
}
