package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/riegel/internal/core"
)

const SignedType = "signed"

var signedInfo = core.MinterInfo{
	Type:    SignedType,
	Version: "v1",
}

var _ core.TokenMinter = (*SignedMinter)(nil)

// SignedMinter issues HS256-signed JWT session tokens carrying the
// principal, role and session ID. The admin API accepts these tokens.
type SignedMinter struct {
	issuer     string
	ttl        time.Duration
	signingKey []byte
	clock      core.Clock
}

// SignedConfig is the inline config of the signed minter.
type SignedConfig struct {
	// Issuer is the iss claim. Defaults to "riegel".
	Issuer string `mapstructure:"issuer"`

	// TTL is how long the token stays valid. Defaults to 1h.
	TTL time.Duration `mapstructure:"ttl"`

	// SigningKey is the HS256 secret.
	SigningKey string `mapstructure:"signing_key"`
}

func NewSignedMinter(cfg SignedConfig, clock core.Clock) (*SignedMinter, error) {
	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("signed minter requires a signing_key")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "riegel"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if clock == nil {
		clock = core.SystemClock
	}
	return &SignedMinter{
		issuer:     cfg.Issuer,
		ttl:        cfg.TTL,
		signingKey: []byte(cfg.SigningKey),
		clock:      clock,
	}, nil
}

func (m *SignedMinter) Name() string { return SignedType }

func (m *SignedMinter) Mint(_ context.Context, session *core.Session) (*core.TokenArtifact, error) {
	now := m.clock.Now()
	exp := now.Add(m.ttl)

	claims := jwt.MapClaims{
		"iss":  m.issuer,
		"sub":  session.Principal,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
		"role": string(session.Role),
		"sid":  session.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	return &core.TokenArtifact{
		Value:     signed,
		ExpiresAt: exp,
		Minter:    signedInfo,
		Metadata: map[string]any{
			"alg": "HS256",
		},
	}, nil
}

// SigningKey exposes the key for components that verify these tokens.
func (m *SignedMinter) SigningKey() []byte {
	return m.signingKey
}
