package core

import (
	"context"

	"github.com/expr-lang/expr/vm"
)

// Route binds a role to its post-login destination.
type Route struct {
	// Role that this route accepts.
	Role Role `yaml:"role" json:"role"`

	// Path is the destination, e.g. "/admin/dashboard".
	Path string `yaml:"path" json:"path"`

	// Description explains the destination.
	Description string `yaml:"description" json:"description"`

	// Guard is an optional expression that must evaluate to true for
	// the route to accept a grant. Leaving this empty means the route
	// accepts every grant with a matching role.
	Guard string `yaml:"guard" json:"guard"`

	// CompiledGuard holds the pre-compiled form of Guard for efficient
	// evaluation.
	CompiledGuard *vm.Program `yaml:"-" json:"-"`
}

// Router decides where an authenticated principal is sent after login.
type Router interface {
	// Route maps a grant onto its landing destination.
	// It returns ErrNoRoute when no destination accepts the grant.
	Route(ctx context.Context, grant *Grant) (RouteDecision, error)
}
