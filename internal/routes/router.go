package routes

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/riegel/internal/core"
)

var _ core.Router = (*Table)(nil)

// Table routes grants by role, in declaration order. The first route
// whose role matches and whose guard passes wins.
type Table struct {
	routes []core.Route
}

// NewTable creates a routing table over the given routes. Guards are
// expected to be compiled already (validation does that at load time).
func NewTable(routes []core.Route) *Table {
	return &Table{routes: routes}
}

func (t *Table) Route(ctx context.Context, grant *core.Grant) (core.RouteDecision, error) {
	for _, route := range t.routes {
		if matches(ctx, route, grant) {
			return core.RouteDecision{
				Path:        route.Path,
				Description: route.Description,
			}, nil
		}
	}
	return core.RouteDecision{}, fmt.Errorf("%w %q", core.ErrNoRoute, grant.Role)
}

func matches(ctx context.Context, route core.Route, grant *core.Grant) bool {
	if route.Role != grant.Role {
		return false
	}
	if route.CompiledGuard == nil {
		return true
	}
	out, err := expr.Run(route.CompiledGuard, guardEnv(grant))
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("path", route.Path).Msg("error evaluating route guard")
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// guardEnv is the environment route guard expressions run against.
func guardEnv(grant *core.Grant) map[string]any {
	return map[string]any{
		"principal": grant.Principal,
		"role":      string(grant.Role),
	}
}

// Explain evaluates every route against a hypothetical grant and
// reports why each one matched or was skipped.
func (t *Table) Explain(principal string, role core.Role) core.RouteTrace {
	trace := core.RouteTrace{
		Principal: principal,
		Role:      role,
	}
	grant := &core.Grant{Principal: principal, Role: role}

	for _, route := range t.routes {
		result := core.RouteResult{
			Path:        route.Path,
			Description: route.Description,
		}
		switch {
		case route.Role != role:
			result.Reason = fmt.Sprintf("role mismatch: route accepts %s", route.Role)
		case route.CompiledGuard != nil:
			out, err := expr.Run(route.CompiledGuard, guardEnv(grant))
			if err != nil {
				result.Reason = fmt.Sprintf("error evaluating guard: %v", err)
			} else if b, ok := out.(bool); !ok || !b {
				result.Reason = "guard evaluated to false"
			} else {
				result.Matched = true
			}
		default:
			result.Matched = true
		}

		if result.Matched && !trace.Matched {
			trace.Matched = true
			trace.Path = route.Path
		}
		trace.Results = append(trace.Results, result)
	}
	return trace
}
