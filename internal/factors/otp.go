package factors

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/darmiel/riegel/internal/core"
)

const TypeOTP = "otp"

// Defaults of the delivered one-time code.
const (
	DefaultOTPDigits = 6
	DefaultOTPTTL    = 90 * time.Second
)

// Deliverer hands a one-time code to the principal over a side
// channel.
type Deliverer interface {
	Deliver(ctx context.Context, principal, code string) error
}

// LogDeliverer writes codes to the process log. It stands in for an
// out-of-band channel during local sessions.
type LogDeliverer struct {
	logger zerolog.Logger
}

func NewLogDeliverer(logger zerolog.Logger) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

func (d *LogDeliverer) Deliver(_ context.Context, principal, code string) error {
	d.logger.Info().
		Str("principal", principal).
		Str("code", code).
		Msg("one-time code issued")
	return nil
}

var _ core.Factor = (*OTPFactor)(nil)

// OTPFactor generates a fresh random code per session, delivers it and
// checks the caller's answer against it. The comparison is constant
// time and the code expires after the configured window.
type OTPFactor struct {
	name      string
	deliverer Deliverer
	digits    int
	ttl       time.Duration
	clock     core.Clock
}

func NewOTPFactor(name string, deliverer Deliverer, digits int, ttl time.Duration, clock core.Clock) *OTPFactor {
	if digits <= 0 {
		digits = DefaultOTPDigits
	}
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if clock == nil {
		clock = core.SystemClock
	}
	return &OTPFactor{
		name:      name,
		deliverer: deliverer,
		digits:    digits,
		ttl:       ttl,
		clock:     clock,
	}
}

func (f *OTPFactor) Name() string { return f.name }

func (f *OTPFactor) Attempt(ctx context.Context, ex *core.Exchange) core.FactorResult {
	code, err := generateCode(f.digits)
	if err != nil {
		return core.Failed(fmt.Sprintf("generating one-time code: %v", err))
	}

	if err := f.deliverer.Deliver(ctx, ex.Principal, code); err != nil {
		return core.Failed(fmt.Sprintf("delivering one-time code: %v", err))
	}
	issuedAt := f.clock.Now()

	answer, err := ex.Responder.Respond(ctx, core.Challenge{
		Factor:    f.name,
		Principal: ex.Principal,
		Prompt:    fmt.Sprintf("Enter the %d-digit one-time code", f.digits),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return core.TimedOut("no code entered")
		}
		return core.Failed(fmt.Sprintf("reading one-time code: %v", err))
	}

	if f.clock.Now().Sub(issuedAt) > f.ttl {
		return core.Failed("one-time code expired")
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(answer)), []byte(code)) != 1 {
		return core.Failed("incorrect one-time code")
	}
	return core.Passed()
}

// generateCode draws a uniformly random zero-padded numeric code from
// a CSPRNG.
func generateCode(digits int) (string, error) {
	bound := big.NewInt(1)
	for i := 0; i < digits; i++ {
		bound.Mul(bound, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
