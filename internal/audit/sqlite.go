package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/darmiel/riegel/internal/core"
)

var (
	_ Appender = (*SQLiteAppender)(nil)
	_ Searcher = (*SQLiteAppender)(nil)
)

// SQLiteAppender persists entries in a SQLite database. It doubles as
// the queryable read side for the admin API and survives restarts, so
// the trail resumes its sequence from it.
type SQLiteAppender struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	seq       INTEGER PRIMARY KEY,
	id        TEXT NOT NULL,
	time      TEXT NOT NULL,
	action    TEXT NOT NULL,
	principal TEXT NOT NULL,
	role      TEXT NOT NULL DEFAULT '',
	outcome   TEXT NOT NULL,
	factor    TEXT NOT NULL DEFAULT '',
	detail    TEXT NOT NULL DEFAULT '',
	token     TEXT NOT NULL DEFAULT '',
	metadata  TEXT NOT NULL DEFAULT '',
	prev      TEXT NOT NULL DEFAULT '',
	chain     TEXT NOT NULL DEFAULT ''
);`

func NewSQLiteAppender(path string) (*SQLiteAppender, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	// A single connection keeps inserts ordered; WAL lets readers run
	// alongside the writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL on audit database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}
	return &SQLiteAppender{db: db}, nil
}

func (s *SQLiteAppender) Append(ctx context.Context, entry core.AuditEntry) error {
	meta := ""
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("encoding audit metadata: %w", err)
		}
		meta = string(raw)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries
			(seq, id, time, action, principal, role, outcome, factor, detail, token, metadata, prev, chain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Seq,
		entry.ID,
		entry.Time.UTC().Format(time.RFC3339Nano),
		entry.Action,
		entry.Principal,
		string(entry.Role),
		string(entry.Outcome),
		entry.Factor,
		entry.Detail,
		entry.Token,
		meta,
		entry.Prev,
		entry.Chain,
	)
	if err != nil {
		return fmt.Errorf("writing audit log entry: %w", err)
	}
	return nil
}

// LastState reports the highest persisted entry so a restarted trail
// can resume its sequence.
func (s *SQLiteAppender) LastState(ctx context.Context) (uint64, string, error) {
	var seq uint64
	var chain string
	err := s.db.QueryRowContext(ctx,
		"SELECT seq, chain FROM audit_entries ORDER BY seq DESC LIMIT 1").Scan(&seq, &chain)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("reading audit database state: %w", err)
	}
	return seq, chain, nil
}

func (s *SQLiteAppender) Recent(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	return s.Find(ctx, Filter{}, limit)
}

func (s *SQLiteAppender) Find(ctx context.Context, filter Filter, limit int) ([]core.AuditEntry, error) {
	query := "SELECT seq, id, time, action, principal, role, outcome, factor, detail, token, metadata, prev, chain FROM audit_entries"

	var conds []string
	var args []any
	if filter.ID != "" {
		conds = append(conds, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.Principal != "" {
		conds = append(conds, "principal = ?")
		args = append(args, filter.Principal)
	}
	if filter.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY seq DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []core.AuditEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}

	// Flip the newest-first query result back into sequence order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (s *SQLiteAppender) Close() error {
	return s.db.Close()
}

func scanEntry(rows *sql.Rows) (core.AuditEntry, error) {
	var entry core.AuditEntry
	var timestamp, role, outcome, meta string

	if err := rows.Scan(
		&entry.Seq,
		&entry.ID,
		&timestamp,
		&entry.Action,
		&entry.Principal,
		&role,
		&outcome,
		&entry.Factor,
		&entry.Detail,
		&entry.Token,
		&meta,
		&entry.Prev,
		&entry.Chain,
	); err != nil {
		return core.AuditEntry{}, fmt.Errorf("scanning audit log entry: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return core.AuditEntry{}, fmt.Errorf("parsing audit entry timestamp: %w", err)
	}
	entry.Time = parsed
	entry.Role = core.Role(role)
	entry.Outcome = core.Outcome(outcome)

	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &entry.Metadata); err != nil {
			return core.AuditEntry{}, fmt.Errorf("parsing audit entry metadata: %w", err)
		}
	}
	return entry, nil
}
