package factors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

const TypeBiometric = "biometric"

// Reading is the verdict of a biometric capture.
type Reading string

const (
	ReadingAccepted Reading = "accepted"
	ReadingRejected Reading = "rejected"
	ReadingTimeout  Reading = "timeout"
)

// CaptureRequest carries what a provider needs to run one capture.
type CaptureRequest struct {
	// Factor is the name of the factor asking.
	Factor string

	// Principal whose biometric is captured.
	Principal string

	// Responder reaches the caller for simulated captures.
	Responder core.Responder
}

// BiometricProvider abstracts the external biometric capability.
// Implementations: KeywordProvider (interactive simulation),
// StaticProvider (fixed verdict).
type BiometricProvider interface {
	Capture(ctx context.Context, req CaptureRequest) (Reading, error)
}

var _ core.Factor = (*BiometricFactor)(nil)

// BiometricFactor maps a provider capture onto a factor verdict.
type BiometricFactor struct {
	name     string
	provider BiometricProvider
}

func NewBiometricFactor(name string, provider BiometricProvider) *BiometricFactor {
	return &BiometricFactor{name: name, provider: provider}
}

func (f *BiometricFactor) Name() string { return f.name }

func (f *BiometricFactor) Attempt(ctx context.Context, ex *core.Exchange) core.FactorResult {
	reading, err := f.provider.Capture(ctx, CaptureRequest{
		Factor:    f.name,
		Principal: ex.Principal,
		Responder: ex.Responder,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return core.TimedOut("biometric scan timed out")
		}
		return core.Failed(fmt.Sprintf("capturing biometric: %v", err))
	}

	switch reading {
	case ReadingAccepted:
		return core.Passed()
	case ReadingTimeout:
		return core.TimedOut("biometric scan timed out")
	default:
		return core.Failed("biometric scan rejected")
	}
}

// KeywordProvider simulates a biometric sensor: the caller has to type
// the confirmation keyword within the capture window.
type KeywordProvider struct {
	keyword string
	delay   time.Duration
	timeout time.Duration
}

func NewKeywordProvider(keyword string, delay, timeout time.Duration) *KeywordProvider {
	if keyword == "" {
		keyword = "scan"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &KeywordProvider{keyword: keyword, delay: delay, timeout: timeout}
}

func (p *KeywordProvider) Capture(ctx context.Context, req CaptureRequest) (Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	answer, err := req.Responder.Respond(ctx, core.Challenge{
		Factor:    req.Factor,
		Principal: req.Principal,
		Prompt:    fmt.Sprintf("Type '%s' to confirm the biometric scan", p.keyword),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ReadingTimeout, nil
		}
		return ReadingRejected, err
	}

	// Simulated sensor processing time.
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ReadingTimeout, nil
		}
	}

	if strings.EqualFold(strings.TrimSpace(answer), p.keyword) {
		return ReadingAccepted, nil
	}
	return ReadingRejected, nil
}

// StaticProvider always returns the same reading. It serves tests and
// deployments that stub the biometric stage out.
type StaticProvider struct {
	reading Reading
}

func NewStaticProvider(reading Reading) (*StaticProvider, error) {
	switch reading {
	case ReadingAccepted, ReadingRejected, ReadingTimeout:
		return &StaticProvider{reading: reading}, nil
	default:
		return nil, fmt.Errorf("unknown biometric reading %q", reading)
	}
}

func (p *StaticProvider) Capture(context.Context, CaptureRequest) (Reading, error) {
	return p.reading, nil
}
