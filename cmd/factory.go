package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darmiel/riegel/internal/audit"
	"github.com/darmiel/riegel/internal/cliconfig"
	"github.com/darmiel/riegel/internal/config"
	"github.com/darmiel/riegel/internal/core"
	"github.com/darmiel/riegel/internal/credential"
	"github.com/darmiel/riegel/internal/factors"
	"github.com/darmiel/riegel/internal/ratelimit"
	"github.com/darmiel/riegel/internal/routes"
	"github.com/darmiel/riegel/internal/service"
	"github.com/darmiel/riegel/internal/token"
	"github.com/darmiel/riegel/pkg/client"
)

// f is the shared command factory. Flags bind into it from root.go and
// the commands that need the gate config.
var f = NewFactory()

type Factory struct {
	// RemoteAddr is the address of the riegel server to connect to.
	RemoteAddr string

	// Command-specific flags
	ConfigPath string // contains the "main" riegel configuration => principals, factors, audit, routes
}

func NewFactory() *Factory {
	return &Factory{}
}

// GetClient returns an authenticated HTTP client for remote operations.
func (f *Factory) GetClient() (*client.Client, error) {
	server := f.RemoteAddr // prio 1: command-line flag
	if server == "" {
		server = viper.GetString(RiegelAddrKey) // prio 2: config/env
	}
	if server == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set RIEGEL_ADDR)")
	}

	var sessionToken string
	if cfg, err := cliconfig.Load(); err == nil {
		if cred, err := cfg.GetCredential(server); err == nil { // token prio 1: saved credential
			sessionToken = cred.Token
		}
	}

	if envToken := os.Getenv("RIEGEL_TOKEN"); envToken != "" { // token prio 2: env var
		sessionToken = envToken
	}

	return client.New(server, client.WithAuthToken(sessionToken)), nil
}

func (f *Factory) LoadGateConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		return nil, fmt.Errorf("gate config not specified (use --config)")
	}
	return config.Load(f.ConfigPath)
}

// Gate bundles the locally assembled authentication stack.
type Gate struct {
	Config   *config.Config
	Service  *service.AuthService
	Minter   core.TokenMinter
	Trail    *audit.Trail
	Searcher audit.Searcher
	Table    *routes.Table
	Evidence *routes.EvidenceLog
}

// Close releases the audit sinks. Call it once the gate is done.
func (g *Gate) Close() error {
	return g.Trail.Close()
}

// BuildGate assembles the full authentication stack from the gate
// config: credential store, attempt limiter, factor chain, token
// minter, audit trail and routing table.
func (f *Factory) BuildGate(_ context.Context) (*Gate, error) {
	cfg, err := f.LoadGateConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gate config: %w", err)
	}

	hasher, err := credential.NewHasher(cfg.Hashing.Algorithm, cfg.Hashing.Cost)
	if err != nil {
		return nil, fmt.Errorf("building hasher: %w", err)
	}
	store, err := credential.NewStore(hasher, cfg.Principals)
	if err != nil {
		return nil, fmt.Errorf("building credential store: %w", err)
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Lockout, nil)

	chain, err := factors.BuildChain(cfg.Factors, factors.Deps{
		Store:   store,
		Limiter: limiter,
		Clock:   core.SystemClock,
		Logger:  log.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building factor chain: %w", err)
	}

	minter, err := token.NewFromConfig(cfg.Token, core.SystemClock)
	if err != nil {
		return nil, fmt.Errorf("building token minter: %w", err)
	}

	trail, searcher, err := audit.NewFromConfig(cfg.Audit, core.SystemClock, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("building audit trail: %w", err)
	}

	table := routes.NewTable(cfg.Routes)

	return &Gate{
		Config:   cfg,
		Service:  service.NewAuthService(store, chain, minter, trail, table, nil),
		Minter:   minter,
		Trail:    trail,
		Searcher: searcher,
		Table:    table,
		Evidence: routes.NewEvidenceLog(trail),
	}, nil
}

func (f *Factory) bindConfigFlag(flags *pflag.FlagSet) {
	flags.StringVarP(&f.ConfigPath, "config", "c", "", "The riegel gate config file to use")
}
