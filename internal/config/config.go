package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/darmiel/riegel/internal/core"
	"github.com/darmiel/riegel/internal/validation"
)

type Config struct {
	Principals []PrincipalConfig `yaml:"principals"`
	Hashing    HashingConfig     `yaml:"hashing"`
	RateLimit  RateLimitConfig   `yaml:"rate_limit"`
	Factors    []FactorConfig    `yaml:"factors"`
	Token      TokenConfig       `yaml:"token"`
	Audit      AuditConfig       `yaml:"audit"`
	Routes     []core.Route      `yaml:"routes"`
	Server     ServerConfig      `yaml:"server"`
}

// PrincipalConfig seeds one credential record.
type PrincipalConfig struct {
	// Name is the unique login name.
	Name string `yaml:"name"`

	// Role assigned to the principal (Admin, Analyst or Guest).
	Role string `yaml:"role"`

	// Secret is the plain knowledge-factor secret. It is hashed at
	// load time and never kept around. Prefer SecretHash outside of
	// local setups.
	Secret string `yaml:"secret"`

	// SecretHash is the pre-hashed secret in the format of the
	// configured hashing algorithm: hex for sha256, the standard
	// cost-prefixed string for bcrypt.
	SecretHash string `yaml:"secret_hash"`
}

// HashingConfig selects how knowledge-factor secrets are hashed.
type HashingConfig struct {
	// Algorithm is "sha256" or "bcrypt". Defaults to "sha256".
	Algorithm string `yaml:"algorithm"`

	// Cost is the bcrypt cost. Zero means the bcrypt default.
	Cost int `yaml:"cost"`
}

// RateLimitConfig bounds consecutive failed attempts per principal.
type RateLimitConfig struct {
	// MaxAttempts is the number of consecutive failures before a
	// lockout. Zero means the default of 3.
	MaxAttempts int `yaml:"max_attempts"`

	// Lockout is how long a locked principal has to wait.
	// Zero means the default of 30s.
	Lockout time.Duration `yaml:"lockout"`
}

// FactorConfig declares one step of the authentication chain.
// Chain order follows declaration order.
type FactorConfig struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`    // e.g., "secret", "biometric", "otp", "totp"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// TokenConfig selects the session token minter.
type TokenConfig struct {
	Type   string         `yaml:"type"`    // e.g., "random", "signed"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// AuditConfig holds configuration for the audit trail.
type AuditConfig struct {
	// Key is the secret for the tamper-evident chain. Empty means a
	// random per-process key, so chains verify only within one run.
	Key string `yaml:"key"`

	// Sinks lists destinations entries are written to. With no sink
	// configured the trail refuses writes and every login fails.
	Sinks []AuditSinkConfig `yaml:"sinks"`
}

// AuditSinkConfig declares one audit destination.
type AuditSinkConfig struct {
	Type   string         `yaml:"type"`    // e.g., "file", "sqlite", "console", "memory"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// AdminKey signs and verifies admin API tokens. When empty, the
	// signed token minter's key is used if one is configured.
	AdminKey string `yaml:"admin_key"`

	// Throttle bounds request rates before they reach the handlers.
	Throttle ThrottleConfig `yaml:"throttle"`
}

// ThrottleConfig bounds request rates per client and globally.
type ThrottleConfig struct {
	// RPS is the sustained requests per second per client.
	// Zero disables throttling.
	RPS float64 `yaml:"rps"`

	// Burst is the number of requests a client may send at once.
	Burst int `yaml:"burst"`
}

// DefaultFactors is the chain used when none is configured: a secret
// check, a simulated biometric scan and a delivered one-time code.
func DefaultFactors() []FactorConfig {
	return []FactorConfig{
		{Name: "secret", Type: "secret"},
		{Name: "biometric", Type: "biometric"},
		{Name: "otp", Type: "otp"},
	}
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	seenPrincipals := make(map[string]struct{})
	for idx, p := range c.Principals {
		if p.Name == "" {
			return fmt.Errorf("principal at index %d has empty name", idx)
		}
		if _, exists := seenPrincipals[p.Name]; exists {
			return fmt.Errorf("principal name '%s' is not unique", p.Name)
		}
		seenPrincipals[p.Name] = struct{}{}

		if _, err := core.ParseRole(p.Role); err != nil {
			return fmt.Errorf("principal '%s': %w", p.Name, err)
		}
		if p.Secret == "" && p.SecretHash == "" {
			return fmt.Errorf("principal '%s' has neither secret nor secret_hash set", p.Name)
		}
		if p.Secret != "" && p.SecretHash != "" {
			return fmt.Errorf("principal '%s' has both secret and secret_hash set", p.Name)
		}
	}

	switch c.Hashing.Algorithm {
	case "", "sha256", "bcrypt":
	default:
		return fmt.Errorf("unknown hashing algorithm '%s'", c.Hashing.Algorithm)
	}

	if c.RateLimit.MaxAttempts < 0 {
		return fmt.Errorf("rate_limit.max_attempts must not be negative")
	}
	if c.RateLimit.Lockout < 0 {
		return fmt.Errorf("rate_limit.lockout must not be negative")
	}

	seenFactors := make(map[string]struct{})
	for idx, f := range c.Factors {
		if f.Name == "" {
			return fmt.Errorf("factor at index %d has empty name", idx)
		}
		if _, exists := seenFactors[f.Name]; exists {
			return fmt.Errorf("factor name '%s' is not unique", f.Name)
		}
		seenFactors[f.Name] = struct{}{}
		if f.Type == "" {
			return fmt.Errorf("factor '%s' has empty type", f.Name)
		}
	}

	// A declared chain keeps the fixed shape of the gate: the secret
	// check fronts the chain and a one-time code closes it. An empty
	// declaration falls back to the default chain.
	if len(c.Factors) > 0 {
		if len(c.Factors) != 3 {
			return fmt.Errorf("factor chain must declare exactly three factors, got %d", len(c.Factors))
		}
		if t := c.Factors[0].Type; t != "secret" {
			return fmt.Errorf("first factor must be of type secret, got '%s'", t)
		}
		if t := c.Factors[1].Type; t != "biometric" {
			return fmt.Errorf("second factor must be of type biometric, got '%s'", t)
		}
		if t := c.Factors[2].Type; t != "otp" && t != "totp" {
			return fmt.Errorf("third factor must be of type otp or totp, got '%s'", t)
		}
	}

	for idx, s := range c.Audit.Sinks {
		if s.Type == "" {
			return fmt.Errorf("audit sink at index %d has empty type", idx)
		}
	}

	validRoutes, err := validation.ValidateRoutes(c.Routes)
	if err != nil {
		return fmt.Errorf("validating routes: %w", err)
	}
	c.Routes = validRoutes

	return nil
}
