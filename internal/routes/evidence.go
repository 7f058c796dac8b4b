package routes

import (
	"context"
	"fmt"

	"github.com/darmiel/riegel/internal/core"
)

// EvidenceLog attaches chain-of-custody notes to the audit trail. It
// backs the analyst dashboard: every tagged piece of evidence becomes
// one immutable trail entry.
type EvidenceLog struct {
	trail core.Auditor
}

func NewEvidenceLog(trail core.Auditor) *EvidenceLog {
	return &EvidenceLog{trail: trail}
}

// Tag records a forensic note for a piece of evidence and returns the
// sequence number of the trail entry.
func (l *EvidenceLog) Tag(ctx context.Context, principal string, role core.Role, evidenceID, note string) (uint64, error) {
	if evidenceID == "" {
		return 0, fmt.Errorf("evidence ID is required")
	}
	return l.trail.Record(ctx, &core.AuditEntry{
		Action:    core.ActionEvidenceTag,
		Principal: principal,
		Role:      role,
		Outcome:   core.OutcomeSuccess,
		Detail:    "evidence tagged",
		Metadata: map[string]any{
			"evidence_id": evidenceID,
			"note":        note,
		},
	})
}
