package factors

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

// capturingDeliverer records the last code handed out so tests can echo
// or mangle it.
type capturingDeliverer struct {
	code string
	err  error
}

func (d *capturingDeliverer) Deliver(_ context.Context, _, code string) error {
	if d.err != nil {
		return d.err
	}
	d.code = code
	return nil
}

// echoResponder answers the one-time code challenge with a transform of
// the delivered code.
func echoResponder(deliverer *capturingDeliverer, transform func(string) string) core.Responder {
	return core.ResponderFunc(func(_ context.Context, _ core.Challenge) (string, error) {
		return transform(deliverer.code), nil
	})
}

func TestOTPFactorAcceptsDeliveredCode(t *testing.T) {
	deliverer := &capturingDeliverer{}
	factor := NewOTPFactor("otp", deliverer, 6, time.Minute, newFakeClock())

	responder := echoResponder(deliverer, func(code string) string { return " " + code + "\n" })
	result := factor.Attempt(context.Background(), exchange("guest", responder))
	if result.Status != core.FactorPassed {
		t.Fatalf("expected pass, got %+v", result)
	}
	if len(deliverer.code) != 6 {
		t.Errorf("expected a 6-digit code, got %q", deliverer.code)
	}
}

func TestOTPFactorRejectsWrongCode(t *testing.T) {
	deliverer := &capturingDeliverer{}
	factor := NewOTPFactor("otp", deliverer, 6, time.Minute, newFakeClock())

	// The delivered code could randomly be any value, so flip a digit
	// instead of guessing a wrong one.
	responder := echoResponder(deliverer, func(code string) string {
		wrong := []byte(code)
		wrong[0] = '0' + ('9'-wrong[0])%10
		return string(wrong)
	})

	result := factor.Attempt(context.Background(), exchange("guest", responder))
	if result.Status != core.FactorFailed {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Reason != "incorrect one-time code" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestOTPFactorExpiresCode(t *testing.T) {
	clock := newFakeClock()
	deliverer := &capturingDeliverer{}
	factor := NewOTPFactor("otp", deliverer, 6, 90*time.Second, clock)

	// The principal takes too long: the clock jumps past the window
	// while they type the correct code.
	responder := core.ResponderFunc(func(_ context.Context, _ core.Challenge) (string, error) {
		clock.Advance(91 * time.Second)
		return deliverer.code, nil
	})

	result := factor.Attempt(context.Background(), exchange("guest", responder))
	if result.Status != core.FactorFailed {
		t.Fatalf("expected failure, got %+v", result)
	}
	if result.Reason != "one-time code expired" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestOTPFactorDeliveryFailure(t *testing.T) {
	deliverer := &capturingDeliverer{err: errors.New("smtp down")}
	factor := NewOTPFactor("otp", deliverer, 6, time.Minute, newFakeClock())

	result := factor.Attempt(context.Background(), exchange("guest", scriptResponder{}))
	if result.Status != core.FactorFailed {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !strings.Contains(result.Reason, "delivering one-time code") {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestOTPFactorContextCancelTimesOut(t *testing.T) {
	deliverer := &capturingDeliverer{}
	factor := NewOTPFactor("otp", deliverer, 6, time.Minute, newFakeClock())

	responder := core.ResponderFunc(func(_ context.Context, _ core.Challenge) (string, error) {
		return "", context.Canceled
	})

	result := factor.Attempt(context.Background(), exchange("guest", responder))
	if result.Status != core.FactorTimedOut {
		t.Fatalf("expected timeout, got %+v", result)
	}
	if result.Reason != "no code entered" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestGenerateCode(t *testing.T) {
	for _, digits := range []int{4, 6, 8} {
		code, err := generateCode(digits)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != digits {
			t.Errorf("expected %d digits, got %q", digits, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Errorf("expected numeric code, got %q", code)
				break
			}
		}
	}
}
