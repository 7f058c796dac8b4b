package client

import (
	"context"

	"github.com/darmiel/riegel/internal/api"
	"github.com/darmiel/riegel/internal/core"
)

type ListAuditsOpts struct {
	Limit uint

	ID        string
	Principal string
	Outcome   string
	Action    string
}

// ListAudits retrieves the latest audit entries from the server, limited to the specified number.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		ub = ub.addQueryParam("limit", opts.Limit)
	}
	if opts.ID != "" {
		ub = ub.addQueryParam("id", opts.ID)
	}
	if opts.Principal != "" {
		ub = ub.addQueryParam("principal", opts.Principal)
	}
	if opts.Outcome != "" {
		ub = ub.addQueryParam("outcome", opts.Outcome)
	}
	if opts.Action != "" {
		ub = ub.addQueryParam("action", opts.Action)
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}

// VerifyAudits asks the server to re-check the hash chain over its trail.
func (c *Client) VerifyAudits(ctx context.Context) (*api.VerifyResponse, string, error) {
	var resp api.VerifyResponse
	correlation, err := c.get(ctx, c.url().
		setPath(api.VerifyAuditsRoute).
		build(), &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}

// ExplainRoutes retrieves the dispatch trace for a principal and role without
// running any factor.
func (c *Client) ExplainRoutes(
	ctx context.Context,
	principal string,
	role core.Role,
) (*core.RouteTrace, string, error) {
	var trace core.RouteTrace
	correlation, err := c.get(ctx, c.url().
		setPath(api.ExplainRoute).
		addQueryParam("principal", principal).
		addQueryParam("role", string(role)).
		build(), &trace)
	if err != nil {
		return nil, correlation, err
	}
	return &trace, correlation, err
}
