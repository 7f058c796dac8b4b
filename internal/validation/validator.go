package validation

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/darmiel/riegel/internal/core"
)

// ValidateRoutes checks the routing table and compiles route guards.
// It returns the table with guards compiled, ready for evaluation.
func ValidateRoutes(routes []core.Route) ([]core.Route, error) {
	seenRoles := make(map[core.Role]struct{})
	var validRoutes []core.Route

	for i, route := range routes {
		if route.Path == "" {
			return nil, fmt.Errorf("route #%d missing path", i)
		}

		role, err := core.ParseRole(string(route.Role))
		if err != nil {
			return nil, fmt.Errorf("route '%s': %w", route.Path, err)
		}
		route.Role = role

		// Unguarded routes must not shadow each other. Guarded routes
		// may share a role since the guard decides between them.
		if route.Guard == "" {
			if _, exists := seenRoles[route.Role]; exists {
				return nil, fmt.Errorf("route '%s' duplicates unguarded role '%s'", route.Path, route.Role)
			}
			seenRoles[route.Role] = struct{}{}
		}

		if route.Guard != "" {
			out, err := expr.Compile(route.Guard, expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("compiling guard for route '%s': %w", route.Path, err)
			}
			route.CompiledGuard = out
		}

		validRoutes = append(validRoutes, route)
	}

	return validRoutes, nil
}
