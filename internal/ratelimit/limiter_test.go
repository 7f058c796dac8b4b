package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 11, 8, 14, 0, 0, 0, time.UTC)}
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

func failTimes(l *Limiter, principal string, n int) core.LimitState {
	var state core.LimitState
	for i := 0; i < n; i++ {
		state = l.Record(principal, false)
	}
	return state
}

func TestLimiterAllowsUpToMaxAttempts(t *testing.T) {
	l := New(3, 30*time.Second, newFakeClock())

	for i := 0; i < 2; i++ {
		if state := l.Record("guest", false); state.Locked {
			t.Fatalf("locked after %d failures", i+1)
		}
		if d := l.Check("guest"); !d.Allowed {
			t.Fatalf("denied after %d failures", i+1)
		}
	}

	state := l.Record("guest", false)
	if !state.Locked {
		t.Fatal("expected lockout after third failure")
	}
	if state.RetryAfter != 30*time.Second {
		t.Errorf("expected retry after 30s, got %s", state.RetryAfter)
	}

	if d := l.Check("guest"); d.Allowed {
		t.Error("expected check to deny while locked")
	} else if d.RetryAfter != 30*time.Second {
		t.Errorf("expected retry after 30s, got %s", d.RetryAfter)
	}
}

func TestLimiterSuccessResetsFailures(t *testing.T) {
	l := New(3, 30*time.Second, newFakeClock())

	failTimes(l, "guest", 2)
	l.Record("guest", true)

	if state := failTimes(l, "guest", 2); state.Locked {
		t.Error("expected fresh budget after success")
	}
	if state := l.Record("guest", false); !state.Locked {
		t.Error("expected lockout on third failure of fresh budget")
	}
}

func TestLimiterLockoutExpires(t *testing.T) {
	clock := newFakeClock()
	l := New(3, 30*time.Second, clock)

	failTimes(l, "guest", 3)

	clock.Advance(29 * time.Second)
	if d := l.Check("guest"); d.Allowed {
		t.Fatal("expected denial one second before expiry")
	} else if d.RetryAfter != time.Second {
		t.Errorf("expected retry after 1s, got %s", d.RetryAfter)
	}

	clock.Advance(2 * time.Second)
	if d := l.Check("guest"); !d.Allowed {
		t.Fatal("expected allowance after expiry")
	}

	// The budget is fresh again after expiry.
	if state := failTimes(l, "guest", 2); state.Locked {
		t.Error("expected two failures to fit into the fresh budget")
	}
}

func TestLimiterRecordWhileLockedDoesNotExtend(t *testing.T) {
	clock := newFakeClock()
	l := New(3, 30*time.Second, clock)

	failTimes(l, "guest", 3)
	clock.Advance(10 * time.Second)

	state := l.Record("guest", false)
	if !state.Locked {
		t.Fatal("expected locked state")
	}
	if state.RetryAfter != 20*time.Second {
		t.Errorf("expected retry after 20s, got %s", state.RetryAfter)
	}

	// A success during lockout must not unlock either.
	if state := l.Record("guest", true); !state.Locked {
		t.Error("expected success during lockout to be ignored")
	}
}

func TestLimiterIsolatesPrincipals(t *testing.T) {
	l := New(3, 30*time.Second, newFakeClock())

	failTimes(l, "guest", 3)

	if d := l.Check("admin"); !d.Allowed {
		t.Error("expected other principals to be unaffected")
	}
}

func TestLimiterDefaults(t *testing.T) {
	l := New(0, 0, newFakeClock())

	state := failTimes(l, "guest", DefaultMaxAttempts)
	if !state.Locked {
		t.Fatal("expected default max attempts to lock")
	}
	if state.RetryAfter != DefaultLockout {
		t.Errorf("expected default lockout %s, got %s", DefaultLockout, state.RetryAfter)
	}
}

func TestLimiterAttemptSkipsVerifyWhileLocked(t *testing.T) {
	l := New(3, 30*time.Second, newFakeClock())

	failTimes(l, "guest", 3)

	ran := false
	res, err := l.Attempt("guest", func() (bool, error) {
		ran = true
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Error("expected verify to be skipped while locked")
	}
	if res.Allowed {
		t.Error("expected attempt to be denied while locked")
	}
	if res.RetryAfter != 30*time.Second {
		t.Errorf("expected retry after 30s, got %s", res.RetryAfter)
	}
}

func TestLimiterAttemptErrorConsumesNoAttempt(t *testing.T) {
	l := New(3, 30*time.Second, newFakeClock())

	for i := 0; i < 5; i++ {
		if _, err := l.Attempt("guest", func() (bool, error) {
			return false, context.DeadlineExceeded
		}); err == nil {
			t.Fatal("expected verify error to surface")
		}
	}

	if d := l.Check("guest"); !d.Allowed {
		t.Error("expected errored attempts to leave the budget untouched")
	}
}

func TestLimiterAttemptCapsConcurrentVerifications(t *testing.T) {
	l := New(3, 30*time.Second, newFakeClock())

	// All attempts race into the same principal's slot at once. The
	// bucket lock must admit verifications one at a time and stop at
	// the third failure, so the store never sees a fourth candidate.
	start := make(chan struct{})
	var verifications int32
	var denied int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := l.Attempt("guest", func() (bool, error) {
				atomic.AddInt32(&verifications, 1)
				return false, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !res.Allowed {
				atomic.AddInt32(&denied, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&verifications); got != 3 {
		t.Errorf("expected exactly 3 verifications, got %d", got)
	}
	if got := atomic.LoadInt32(&denied); got != 17 {
		t.Errorf("expected 17 denied attempts, got %d", got)
	}
	if d := l.Check("guest"); d.Allowed {
		t.Error("expected lockout after the burst")
	}
}

func TestLimiterConcurrentRecords(t *testing.T) {
	l := New(3, 30*time.Second, newFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Record("guest", false)
			}
		}()
	}
	wg.Wait()

	d := l.Check("guest")
	if d.Allowed {
		t.Error("expected lockout after concurrent failures")
	}
	// The storm locks once; later records must not move the deadline.
	if d.RetryAfter != 30*time.Second {
		t.Errorf("expected retry after 30s, got %s", d.RetryAfter)
	}
}
