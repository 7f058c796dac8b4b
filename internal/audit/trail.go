package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"

	"github.com/darmiel/riegel/internal/core"
)

// Appender is one destination of the trail. Entries arrive already
// sequenced and chained, one at a time.
type Appender interface {
	Append(ctx context.Context, entry core.AuditEntry) error
	Close() error
}

// stateful is implemented by appenders that can report their last
// persisted entry, letting a restarted trail resume its sequence.
type stateful interface {
	LastState(ctx context.Context) (seq uint64, chain string, err error)
}

var _ core.Auditor = (*Trail)(nil)

// Trail is the append-only audit log. It owns the sequence counter and
// the chain key; every write passes through one mutex, so sequence
// numbers stay gap-free even under concurrent sessions.
//
// Sinks are written in order and the first sink is the sink of record:
// the sequence only advances once it has accepted the entry. A mirror
// failure still fails the operation, but leaves the sink of record
// consistent.
type Trail struct {
	mu    sync.Mutex
	key   []byte
	seq   uint64
	prev  string
	clock core.Clock
	sinks []Appender
}

// NewTrail builds a trail over the given sinks. An empty key means a
// random per-process key. When a sink knows its last persisted entry,
// the trail resumes from the highest one.
func NewTrail(key []byte, clock core.Clock, sinks ...Appender) (*Trail, error) {
	if len(key) == 0 {
		generated, err := randomKey()
		if err != nil {
			return nil, err
		}
		key = generated
	}
	if clock == nil {
		clock = core.SystemClock
	}

	t := &Trail{key: key, clock: clock, sinks: sinks}
	for _, sink := range sinks {
		st, ok := sink.(stateful)
		if !ok {
			continue
		}
		seq, chain, err := st.LastState(context.Background())
		if err != nil {
			return nil, fmt.Errorf("reading audit sink state: %w", err)
		}
		if seq > t.seq {
			t.seq = seq
			t.prev = chain
		}
	}
	return t, nil
}

// Key exposes the chain key, including a generated one, for components
// that verify the trail.
func (t *Trail) Key() []byte {
	return t.key
}

// Record assigns the next sequence number, fills in ID and Time when
// unset, chains the entry and appends it to every sink.
func (t *Trail) Record(ctx context.Context, entry *core.AuditEntry) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.sinks) == 0 {
		return 0, fmt.Errorf("%w: no sinks configured", core.ErrAuditUnavailable)
	}

	seq := t.seq + 1
	entry.Seq = seq
	if entry.ID == "" {
		entry.ID = xid.New().String()
	}
	if entry.Time.IsZero() {
		entry.Time = t.clock.Now()
	}
	entry.Time = entry.Time.UTC()
	entry.Prev = t.prev
	entry.Chain = computeLink(t.key, t.prev, entry)

	for i, sink := range t.sinks {
		if err := sink.Append(ctx, *entry); err != nil {
			if i == 0 {
				// The sink of record rejected the entry: the sequence
				// number stays unused and the write is retryable.
				return 0, fmt.Errorf("%w: %v", core.ErrAuditUnavailable, err)
			}
			t.seq = seq
			t.prev = entry.Chain
			return 0, fmt.Errorf("%w: %v", core.ErrAuditUnavailable, err)
		}
	}

	t.seq = seq
	t.prev = entry.Chain
	return seq, nil
}

func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, sink := range t.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
