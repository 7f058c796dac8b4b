package factors

import (
	"context"
	"testing"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

func TestBiometricFactorMapsReadings(t *testing.T) {
	tests := []struct {
		reading Reading
		want    core.FactorStatus
	}{
		{ReadingAccepted, core.FactorPassed},
		{ReadingRejected, core.FactorFailed},
		{ReadingTimeout, core.FactorTimedOut},
	}

	for _, tt := range tests {
		t.Run(string(tt.reading), func(t *testing.T) {
			provider, err := NewStaticProvider(tt.reading)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			factor := NewBiometricFactor("biometric", provider)

			result := factor.Attempt(context.Background(), exchange("guest", scriptResponder{}))
			if result.Status != tt.want {
				t.Errorf("expected %q, got %+v", tt.want, result)
			}
		})
	}
}

func TestStaticProviderRejectsUnknownReading(t *testing.T) {
	if _, err := NewStaticProvider("maybe"); err == nil {
		t.Error("expected error for unknown reading")
	}
}

func TestKeywordProviderAcceptsKeyword(t *testing.T) {
	provider := NewKeywordProvider("scan", 0, time.Second)

	tests := []struct {
		name   string
		answer string
		want   Reading
	}{
		{name: "exact keyword", answer: "scan", want: ReadingAccepted},
		{name: "case and whitespace", answer: "  SCAN ", want: ReadingAccepted},
		{name: "wrong word", answer: "skip", want: ReadingRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := provider.Capture(context.Background(), CaptureRequest{
				Factor:    "biometric",
				Principal: "guest",
				Responder: scriptResponder{"biometric": tt.answer},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reading != tt.want {
				t.Errorf("expected %q, got %q", tt.want, reading)
			}
		})
	}
}

func TestKeywordProviderTimesOut(t *testing.T) {
	provider := NewKeywordProvider("scan", 0, 10*time.Millisecond)

	// A responder that waits for the capture window to close.
	responder := core.ResponderFunc(func(ctx context.Context, _ core.Challenge) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	reading, err := provider.Capture(context.Background(), CaptureRequest{
		Factor:    "biometric",
		Principal: "guest",
		Responder: responder,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading != ReadingTimeout {
		t.Fatalf("expected timeout reading, got %q", reading)
	}

	factor := NewBiometricFactor("biometric", provider)
	result := factor.Attempt(context.Background(), exchange("guest", responder))
	if result.Status != core.FactorTimedOut {
		t.Errorf("expected factor timeout, got %+v", result)
	}
	if result.Reason != "biometric scan timed out" {
		t.Errorf("expected timeout reason, got %q", result.Reason)
	}
}
