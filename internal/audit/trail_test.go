package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

var testTime = time.Date(2025, 11, 8, 14, 0, 0, 0, time.UTC)

func testClock() core.Clock {
	return core.ClockFunc(func() time.Time { return testTime })
}

var testKey = []byte("test-chain-key")

func sessionEntry(principal string, outcome core.Outcome) *core.AuditEntry {
	return &core.AuditEntry{
		Action:    core.ActionAuthenticate,
		Principal: principal,
		Outcome:   outcome,
	}
}

// failingAppender rejects every append.
type failingAppender struct{}

func (failingAppender) Append(context.Context, core.AuditEntry) error {
	return errors.New("disk full")
}

func (failingAppender) Close() error { return nil }

// seededAppender pretends to already hold entries up to seq.
type seededAppender struct {
	DiscardAppender
	seq   uint64
	chain string
}

func (s seededAppender) LastState(context.Context) (uint64, string, error) {
	return s.seq, s.chain, nil
}

func TestTrailSequencesEntries(t *testing.T) {
	mem := NewMemoryAppender()
	trail, err := NewTrail(testKey, testClock(), mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		seq, err := trail.Record(ctx, sessionEntry("admin", core.OutcomeSuccess))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seq != uint64(i) {
			t.Errorf("expected seq %d, got %d", i, seq)
		}
	}

	entries, err := mem.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			t.Errorf("entry %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
		if e.ID == "" {
			t.Errorf("entry %d: missing ID", i)
		}
		if !e.Time.Equal(testTime) {
			t.Errorf("entry %d: expected time %s, got %s", i, testTime, e.Time)
		}
		if e.Chain == "" {
			t.Errorf("entry %d: missing chain link", i)
		}
	}
	if entries[0].Prev != "" {
		t.Errorf("expected empty prev on first entry, got %q", entries[0].Prev)
	}
	if entries[1].Prev != entries[0].Chain {
		t.Error("expected second entry to link to the first")
	}
}

func TestTrailGapFreeUnderConcurrency(t *testing.T) {
	mem := NewMemoryAppender()
	trail, err := NewTrail(testKey, testClock(), mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := trail.Record(context.Background(), sessionEntry("guest", core.OutcomeFailure)); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := mem.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != writers {
		t.Fatalf("expected %d entries, got %d", writers, len(entries))
	}
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			t.Fatalf("entry %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
	}
	if err := VerifyChain(testKey, entries); err != nil {
		t.Errorf("expected intact chain, got %v", err)
	}
}

func TestTrailWithoutSinksRefuses(t *testing.T) {
	trail, err := NewTrail(testKey, testClock())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := trail.Record(context.Background(), sessionEntry("admin", core.OutcomeSuccess)); !errors.Is(err, core.ErrAuditUnavailable) {
		t.Errorf("expected ErrAuditUnavailable, got %v", err)
	}
}

func TestTrailSinkOfRecordFailureReusesSeq(t *testing.T) {
	mem := NewMemoryAppender()
	trail, err := NewTrail(testKey, testClock(), failingAppender{}, mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if _, err := trail.Record(ctx, sessionEntry("admin", core.OutcomeSuccess)); !errors.Is(err, core.ErrAuditUnavailable) {
		t.Fatalf("expected ErrAuditUnavailable, got %v", err)
	}

	// The failed write must not leak into the mirror either.
	entries, err := mem.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no mirrored entries after record failure, got %d", len(entries))
	}
}

func TestTrailMirrorFailureAdvancesSeq(t *testing.T) {
	mem := NewMemoryAppender()
	trail, err := NewTrail(testKey, testClock(), mem, failingAppender{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if _, err := trail.Record(ctx, sessionEntry("admin", core.OutcomeSuccess)); !errors.Is(err, core.ErrAuditUnavailable) {
		t.Fatalf("expected ErrAuditUnavailable, got %v", err)
	}

	entries, err := mem.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Seq != 1 {
		t.Fatalf("expected the sink of record to keep seq 1, got %+v", entries)
	}
}

func TestTrailResumesFromStatefulSink(t *testing.T) {
	mem := NewMemoryAppender()
	trail, err := NewTrail(testKey, testClock(), seededAppender{seq: 41, chain: "abc"}, mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seq, err := trail.Record(context.Background(), sessionEntry("admin", core.OutcomeSuccess))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 42 {
		t.Errorf("expected resumed seq 42, got %d", seq)
	}

	entries, _ := mem.Recent(context.Background(), 0)
	if entries[0].Prev != "abc" {
		t.Errorf("expected resumed prev link, got %q", entries[0].Prev)
	}
}
