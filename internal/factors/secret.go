package factors

import (
	"context"
	"errors"
	"fmt"

	"github.com/darmiel/riegel/internal/core"
)

const TypeSecret = "secret"

var _ core.Factor = (*SecretFactor)(nil)

// SecretFactor verifies the knowledge factor against the credential
// store. It is the only factor that consults the attempt limiter: a
// locked principal fails here before any secret is checked, and every
// verification outcome is counted.
type SecretFactor struct {
	name    string
	store   core.CredentialStore
	limiter core.AttemptLimiter
}

func NewSecretFactor(name string, store core.CredentialStore, limiter core.AttemptLimiter) *SecretFactor {
	return &SecretFactor{name: name, store: store, limiter: limiter}
}

func (f *SecretFactor) Name() string { return f.name }

func (f *SecretFactor) Attempt(ctx context.Context, ex *core.Exchange) core.FactorResult {
	// Fail fast before prompting a locked principal for a secret. The
	// authoritative check happens again inside the attempt slot below.
	if decision := f.limiter.Check(ex.Principal); !decision.Allowed {
		result := core.Failed("locked out")
		result.RetryAfter = decision.RetryAfter
		return result
	}

	answer, err := ex.Responder.Respond(ctx, core.Challenge{
		Factor:    f.name,
		Principal: ex.Principal,
		Prompt:    "Enter secret",
		Sensitive: true,
	})
	if err != nil {
		// No secret was presented, so no attempt is consumed.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return core.TimedOut("no secret entered")
		}
		return core.Failed(fmt.Sprintf("reading secret: %v", err))
	}

	// The store is only consulted inside the principal's attempt slot,
	// so concurrent attempts cannot outrun the failure budget.
	res, err := f.limiter.Attempt(ex.Principal, func() (bool, error) {
		return f.store.VerifySecret(ctx, ex.Principal, answer)
	})
	if err != nil {
		return core.Failed(fmt.Sprintf("verifying secret: %v", err))
	}
	if !res.Allowed {
		result := core.Failed("locked out")
		result.RetryAfter = res.RetryAfter
		return result
	}
	if !res.OK {
		return core.Failed("incorrect secret")
	}
	return core.Passed()
}
