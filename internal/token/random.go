package token

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/darmiel/riegel/internal/core"
)

const RandomType = "random"

var randomInfo = core.MinterInfo{
	Type:    RandomType,
	Version: "v1",
}

var _ core.TokenMinter = (*RandomMinter)(nil)

// RandomMinter issues opaque random session tokens (UUIDv4).
type RandomMinter struct {
	ttl   time.Duration
	clock core.Clock
}

// RandomConfig is the inline config of the random minter.
type RandomConfig struct {
	// TTL is how long the session token stays valid. Zero means the
	// token carries no expiry of its own.
	TTL time.Duration `mapstructure:"ttl"`
}

func NewRandomMinter(ttl time.Duration, clock core.Clock) *RandomMinter {
	if clock == nil {
		clock = core.SystemClock
	}
	return &RandomMinter{ttl: ttl, clock: clock}
}

func (m *RandomMinter) Name() string { return RandomType }

func (m *RandomMinter) Mint(_ context.Context, session *core.Session) (*core.TokenArtifact, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	artifact := &core.TokenArtifact{
		Value:  id.String(),
		Minter: randomInfo,
		Metadata: map[string]any{
			"kind": "session",
		},
	}
	if m.ttl > 0 {
		artifact.ExpiresAt = m.clock.Now().Add(m.ttl)
	}
	return artifact, nil
}
