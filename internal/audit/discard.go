package audit

import (
	"context"

	"github.com/darmiel/riegel/internal/core"
)

var _ Appender = DiscardAppender{}

// DiscardAppender accepts and drops every entry. It exists for local
// dry runs that must not touch a real trail; sequencing and chaining
// still happen in the trail above it.
type DiscardAppender struct{}

func (DiscardAppender) Append(context.Context, core.AuditEntry) error {
	// noop
	return nil
}

func (DiscardAppender) Close() error {
	// nothing to close
	return nil
}
