package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/darmiel/riegel/internal/core"
)

// Formats for FileAppender.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// FileAppender writes entries to an append-only log file, one entry
// per line, either as JSON or as the legacy text line.
type FileAppender struct {
	mu        sync.Mutex
	file      *os.File
	format    string
	encoder   *json.Encoder
	lastSeq   uint64
	lastChain string
}

func NewFileAppender(path, format string) (*FileAppender, error) {
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatText:
	default:
		return nil, fmt.Errorf("unknown audit file format %q", format)
	}

	f := &FileAppender{format: format}

	// JSON files carry enough structure to resume the sequence from.
	if format == FormatJSON {
		last, err := lastEntryInFile(path)
		if err != nil {
			return nil, err
		}
		if last != nil {
			f.lastSeq = last.Seq
			f.lastChain = last.Chain
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file: %w", err)
	}
	f.file = file
	f.encoder = json.NewEncoder(file)
	return f, nil
}

func (f *FileAppender) Append(_ context.Context, entry core.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.format == FormatText {
		if _, err := fmt.Fprintln(f.file, FormatTextLine(entry)); err != nil {
			return fmt.Errorf("writing audit log entry: %w", err)
		}
		return nil
	}
	if err := f.encoder.Encode(entry); err != nil {
		return fmt.Errorf("writing audit log entry: %w", err)
	}
	return nil
}

// LastState reports the last JSON entry already in the file so a
// restarted trail can resume its sequence. Text files carry no chain
// fields and report no state.
func (f *FileAppender) LastState(context.Context) (uint64, string, error) {
	return f.lastSeq, f.lastChain, nil
}

func (f *FileAppender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

func lastEntryInFile(path string) (*core.AuditEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading audit log file: %w", err)
	}
	defer file.Close()

	var lastLine string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lastLine = line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log file: %w", err)
	}
	if lastLine == "" {
		return nil, nil
	}

	var entry core.AuditEntry
	if err := json.Unmarshal([]byte(lastLine), &entry); err != nil {
		return nil, fmt.Errorf("parsing last audit log entry: %w", err)
	}
	return &entry, nil
}

// ReadEntriesFile loads a complete JSON audit log file, e.g. for chain
// verification.
func ReadEntriesFile(path string) ([]core.AuditEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading audit log file: %w", err)
	}
	defer file.Close()

	var entries []core.AuditEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var entry core.AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("parsing audit log entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log file: %w", err)
	}
	return entries, nil
}

// FormatTextLine renders the legacy single-line form of an entry.
// Existing log parsers key on this shape; field order stays stable.
func FormatTextLine(e core.AuditEntry) string {
	if e.Action == core.ActionEvidenceTag {
		id, _ := e.Metadata["evidence_id"].(string)
		note, _ := e.Metadata["note"].(string)
		return fmt.Sprintf("[FORENSIC] Evidence ID: %s, Note: %s", id, note)
	}

	role := string(e.Role)
	if role == "" {
		role = "unknown"
	}
	line := fmt.Sprintf("[AUDIT] %s login for '%s' (%s) at %s",
		e.Outcome, e.Principal, role, e.Time.UTC().Format(time.RFC3339))
	if e.Token != "" {
		line += " | Token: " + e.Token
	}
	return line
}
