package audit

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

// computeLink derives the chain link of an entry from the trail key,
// the previous link and the entry's recorded fields.
func computeLink(key []byte, prev string, entry *core.AuditEntry) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(prev))
	mac.Write([]byte(canonical(entry)))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonical renders the chained fields in a fixed order. String fields
// are quoted so values cannot alias field boundaries.
func canonical(e *core.AuditEntry) string {
	// json.Marshal sorts map keys, so metadata serializes stably.
	meta, _ := json.Marshal(e.Metadata)

	return strings.Join([]string{
		strconv.FormatUint(e.Seq, 10),
		strconv.Quote(e.ID),
		strconv.Quote(e.Time.UTC().Format(time.RFC3339Nano)),
		strconv.Quote(e.Action),
		strconv.Quote(e.Principal),
		strconv.Quote(string(e.Role)),
		strconv.Quote(string(e.Outcome)),
		strconv.Quote(e.Factor),
		strconv.Quote(e.Detail),
		strconv.Quote(e.Token),
		string(meta),
	}, "\n")
}

// VerifyChain replays the chain over entries in sequence order and
// reports the first entry that does not fit: a sequence gap, a broken
// previous link or a link that does not match the recomputed value.
//
// The first entry's Prev is taken as the trusted anchor, so a trail
// that resumed from an earlier store still verifies.
func VerifyChain(key []byte, entries []core.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	prev := entries[0].Prev
	lastSeq := entries[0].Seq - 1

	for i := range entries {
		e := &entries[i]
		if e.Seq != lastSeq+1 {
			return fmt.Errorf("sequence gap after %d: next entry is %d", lastSeq, e.Seq)
		}
		if e.Prev != prev {
			return fmt.Errorf("entry %d: previous link does not match the chain", e.Seq)
		}
		if expected := computeLink(key, prev, e); !hmac.Equal([]byte(expected), []byte(e.Chain)) {
			return fmt.Errorf("entry %d: chain link does not match its content", e.Seq)
		}
		prev = e.Chain
		lastSeq = e.Seq
	}
	return nil
}

// randomKey generates an ephemeral chain key for trails without a
// configured one. Chains keyed this way verify only within one run.
func randomKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating audit chain key: %w", err)
	}
	return key, nil
}
