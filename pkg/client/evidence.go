package client

import (
	"context"

	"github.com/darmiel/riegel/internal/api"
)

type tagEvidenceResult struct {
	Seq uint64 `json:"seq"`
}

// TagEvidence appends a forensic evidence marker to the server's audit trail.
// It returns the sequence number the entry was committed under.
func (c *Client) TagEvidence(ctx context.Context, evidenceID, note string) (uint64, string, error) {
	payload := api.TagEvidencePayload{
		EvidenceID: evidenceID,
		Note:       note,
	}
	var res tagEvidenceResult
	correlation, err := c.post(ctx, c.url().
		setPath(api.TagEvidenceRoute).
		build(), payload, &res)
	if err != nil {
		return 0, correlation, err
	}
	return res.Seq, correlation, nil
}
