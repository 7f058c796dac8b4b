package factors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

var testTime = time.Date(2025, 11, 8, 14, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testTime}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeStore is a credential store with observable verification calls.
type fakeStore struct {
	secrets     map[string]string
	verifyCalls int
}

func (s *fakeStore) Lookup(_ context.Context, principal string) (core.CredentialRecord, error) {
	if _, ok := s.secrets[principal]; !ok {
		return core.CredentialRecord{}, core.ErrUnknownPrincipal
	}
	return core.CredentialRecord{Principal: principal, Role: core.RoleGuest}, nil
}

func (s *fakeStore) VerifySecret(_ context.Context, principal, candidate string) (bool, error) {
	s.verifyCalls++
	secret, ok := s.secrets[principal]
	if !ok {
		return false, core.ErrUnknownPrincipal
	}
	return secret == candidate, nil
}

// scriptResponder answers challenges from a factor-name keyed script.
type scriptResponder map[string]string

func (r scriptResponder) Respond(_ context.Context, c core.Challenge) (string, error) {
	answer, ok := r[c.Factor]
	if !ok {
		return "", fmt.Errorf("no response for factor %q", c.Factor)
	}
	return answer, nil
}

func exchange(principal string, responder core.Responder) *core.Exchange {
	return &core.Exchange{
		SessionID: "session-1",
		Principal: principal,
		Responder: responder,
	}
}
