package core

// RouteTrace captures the detailed trace of a routing evaluation.
type RouteTrace struct {
	// Principal being routed.
	Principal string `yaml:"principal" json:"principal"`

	// Role of the principal.
	Role Role `yaml:"role" json:"role"`

	// Results contains the result of every route considered, in table order.
	Results []RouteResult `yaml:"results" json:"results"`

	// Matched indicates whether any route accepted the grant.
	Matched bool `yaml:"matched" json:"matched"`

	// Path is the destination of the winning route, if any.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// RouteResult captures why a specific route matched or was skipped.
type RouteResult struct {
	Path        string `yaml:"path" json:"path"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Matched     bool   `yaml:"matched" json:"matched"`
	Reason      string `yaml:"reason,omitempty" json:"reason,omitempty"`
}
