package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/darmiel/riegel/internal/core"
)

var _ Appender = (*ConsoleAppender)(nil)

// ConsoleAppender echoes entries to the process log so the operator
// sees the trail grow during interactive sessions. It keeps nothing
// and reports no state.
type ConsoleAppender struct {
	logger zerolog.Logger
}

func NewConsoleAppender(logger zerolog.Logger) *ConsoleAppender {
	return &ConsoleAppender{logger: logger}
}

func (c *ConsoleAppender) Append(_ context.Context, entry core.AuditEntry) error {
	evt := c.logger.Info()
	if entry.Outcome == core.OutcomeFailure {
		evt = c.logger.Warn()
	}

	evt = evt.
		Uint64("seq", entry.Seq).
		Str("action", entry.Action).
		Str("principal", entry.Principal).
		Str("outcome", string(entry.Outcome))
	if entry.Role != "" {
		evt = evt.Str("role", string(entry.Role))
	}
	if entry.Factor != "" {
		evt = evt.Str("factor", entry.Factor)
	}
	if entry.Detail != "" {
		evt = evt.Str("detail", entry.Detail)
	}
	evt.Msg("audit entry")

	return nil
}

func (c *ConsoleAppender) Close() error {
	return nil
}
