package audit

import (
	"context"
	"sync"

	"github.com/darmiel/riegel/internal/core"
)

// Searcher is the read side some appenders offer. The admin API lists
// and filters trail entries through it.
type Searcher interface {
	// Recent returns the most recent entries in sequence order.
	// A non-positive limit means all entries.
	Recent(ctx context.Context, limit int) ([]core.AuditEntry, error)

	// Find returns the most recent entries matching the filter, in
	// sequence order. A non-positive limit means all matches.
	Find(ctx context.Context, filter Filter, limit int) ([]core.AuditEntry, error)
}

// Filter narrows a search over the trail. Zero fields match anything.
type Filter struct {
	ID        string
	Principal string
	Outcome   core.Outcome
	Action    string
}

func (f Filter) matches(e core.AuditEntry) bool {
	if f.ID != "" && e.ID != f.ID {
		return false
	}
	if f.Principal != "" && e.Principal != f.Principal {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}

var (
	_ Appender = (*MemoryAppender)(nil)
	_ Searcher = (*MemoryAppender)(nil)
)

// MemoryAppender keeps entries in memory. It serves tests and the
// admin API's read side when no queryable sink is configured.
type MemoryAppender struct {
	mu      sync.Mutex
	entries []core.AuditEntry
}

func NewMemoryAppender() *MemoryAppender {
	return &MemoryAppender{
		entries: make([]core.AuditEntry, 0),
	}
}

func (m *MemoryAppender) Append(_ context.Context, entry core.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryAppender) Recent(_ context.Context, limit int) ([]core.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	start := len(m.entries) - limit
	entries := make([]core.AuditEntry, limit)
	copy(entries, m.entries[start:])

	return entries, nil
}

func (m *MemoryAppender) Find(_ context.Context, filter Filter, limit int) ([]core.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []core.AuditEntry
	for _, entry := range m.entries {
		if filter.matches(entry) {
			matches = append(matches, entry)
		}
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}

	return matches, nil
}

func (m *MemoryAppender) Close() error {
	return nil // nothing to close :)
}
