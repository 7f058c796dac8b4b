package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/riegel/internal/api/presenter"
	"github.com/darmiel/riegel/internal/core"
	"github.com/darmiel/riegel/internal/service"
)

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	switch r.Header.Get("Content-Type") {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}

type AuthenticatePayload struct {
	// Principal is the login name to authenticate.
	Principal string `json:"principal"`

	// Responses answers the factor challenges by factor name, e.g.
	// {"secret": "4269", "biometric": "scan", "totp": "123456"}.
	// The whole chain is answered in one request; there is no
	// challenge round-trip.
	Responses map[string]string `json:"responses"`
}

type AuthenticateResponse struct {
	SessionID string              `json:"session_id"`
	Principal string              `json:"principal"`
	Role      core.Role           `json:"role"`
	Token     *core.TokenArtifact `json:"token"`
	Route     core.RouteDecision  `json:"route"`
}

// fieldsResponder answers factor challenges from the request payload.
// A factor asking for an answer the caller did not send fails that
// factor, it does not block the request.
type fieldsResponder map[string]string

func (f fieldsResponder) Respond(_ context.Context, c core.Challenge) (string, error) {
	answer, ok := f[c.Factor]
	if !ok {
		return "", fmt.Errorf("no answer for factor %q in request", c.Factor)
	}
	return answer, nil
}

// handleAuthenticate runs the full factor chain for one request.
func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload AuthenticatePayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode authenticate request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.Principal == "" {
		presenter.Error(w, r, "principal is required", http.StatusBadRequest)
		return
	}

	result, err := s.authService.Authenticate(ctx, service.AuthRequest{
		Principal: payload.Principal,
		Responder: fieldsResponder(payload.Responses),
	})
	if err != nil {
		presenter.Err(w, r, err, "authentication failed")
		return
	}

	presenter.JSON(w, r, AuthenticateResponse{
		SessionID: result.SessionID,
		Principal: result.Principal,
		Role:      result.Role,
		Token:     result.Token,
		Route:     result.Route,
	}, http.StatusOK)
}
