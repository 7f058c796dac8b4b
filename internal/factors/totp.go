package factors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/darmiel/riegel/internal/core"
)

const TypeTOTP = "totp"

var _ core.Factor = (*TOTPFactor)(nil)

// TOTPFactor verifies RFC 6238 authenticator codes against enrolled
// per-principal secrets. Unlike the delivered code, nothing is sent:
// the caller's device derives the code from the shared secret.
type TOTPFactor struct {
	name    string
	secrets map[string]string
	period  uint
	skew    uint
	digits  otp.Digits
	clock   core.Clock
}

// TOTPConfig is the inline config of the "totp" factor.
type TOTPConfig struct {
	// Secrets maps principals to their base32-encoded shared secrets.
	Secrets map[string]string `mapstructure:"secrets"`

	// Period is the code rotation window in seconds. Defaults to 30.
	Period uint `mapstructure:"period"`

	// Skew is how many adjacent windows are accepted. Defaults to 1.
	Skew uint `mapstructure:"skew"`

	// Digits is the code length. Defaults to 6.
	Digits int `mapstructure:"digits"`
}

func NewTOTPFactor(name string, cfg TOTPConfig, clock core.Clock) (*TOTPFactor, error) {
	if len(cfg.Secrets) == 0 {
		return nil, fmt.Errorf("totp factor '%s' has no enrolled secrets", name)
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}
	if cfg.Skew == 0 {
		cfg.Skew = 1
	}
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if clock == nil {
		clock = core.SystemClock
	}
	return &TOTPFactor{
		name:    name,
		secrets: cfg.Secrets,
		period:  cfg.Period,
		skew:    cfg.Skew,
		digits:  otp.Digits(cfg.Digits),
		clock:   clock,
	}, nil
}

func (f *TOTPFactor) Name() string { return f.name }

func (f *TOTPFactor) Attempt(ctx context.Context, ex *core.Exchange) core.FactorResult {
	secret, ok := f.secrets[ex.Principal]
	if !ok {
		return core.Failed("no authenticator enrolled")
	}

	answer, err := ex.Responder.Respond(ctx, core.Challenge{
		Factor:    f.name,
		Principal: ex.Principal,
		Prompt:    "Enter the authenticator code",
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return core.TimedOut("no code entered")
		}
		return core.Failed(fmt.Sprintf("reading authenticator code: %v", err))
	}

	valid, err := totp.ValidateCustom(strings.TrimSpace(answer), secret, f.clock.Now(), totp.ValidateOpts{
		Period:    f.period,
		Skew:      f.skew,
		Digits:    f.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return core.Failed(fmt.Sprintf("validating authenticator code: %v", err))
	}
	if !valid {
		return core.Failed("incorrect authenticator code")
	}
	return core.Passed()
}
