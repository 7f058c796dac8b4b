package client

import (
	"context"

	"github.com/darmiel/riegel/internal/api"
)

// Authenticate runs the full factor chain for a principal in a single request.
// The responses map must hold one answer per factor in the configured chain,
// keyed by factor name.
func (c *Client) Authenticate(
	ctx context.Context,
	principal string,
	responses map[string]string,
) (*api.AuthenticateResponse, string, error) {
	payload := api.AuthenticatePayload{
		Principal: principal,
		Responses: responses,
	}
	var resp api.AuthenticateResponse
	correlation, err := c.post(ctx, c.url().
		setPath(api.AuthenticateRoute).
		build(), payload, &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}
