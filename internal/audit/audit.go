// Package audit keeps an append-only trail of engine activity in SQLite.
//
// The trail lives at .dna/audit.db. Entries are appended by the [Recorder]
// as the engine publishes events, or directly via `dna audit log`. There is
// no lifecycle beyond append and bulk clear.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// FileName is the database file name inside the state directory.
const FileName = "audit.db"

// DefaultShowLimit is the number of events Show returns when limit <= 0.
const DefaultShowLimit = 20

// openDB is replaced in tests to simulate driver failures.
var openDB = sql.Open

// Event is one audit record.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail"`
}

// Log is a handle on the audit database.
type Log struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewIOError("create audit dir", filepath.Dir(path), err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, errors.NewIOError("open audit db", path, err)
	}
	// One writer; modernc serializes anyway and WAL handles readers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errors.NewIOError("configure audit db", path, fmt.Errorf("%s: %w", p, err))
		}
	}

	l := &Log{db: db, path: path, now: time.Now}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			seq       INTEGER PRIMARY KEY AUTOINCREMENT,
			id        TEXT    NOT NULL UNIQUE,
			timestamp TEXT    NOT NULL,
			source    TEXT    NOT NULL,
			event     TEXT    NOT NULL,
			detail    TEXT    NOT NULL DEFAULT ''
		);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return errors.NewIOError("migrate audit db", l.path, err)
	}
	return nil
}

// Path returns the database file path.
func (l *Log) Path() string { return l.path }

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Append records one event and returns it with its id and timestamp filled in.
func (l *Log) Append(ctx context.Context, source, name, detail string) (Event, error) {
	if source == "" || name == "" {
		return Event{}, errors.NewStructuralError(errors.CodeMissingField, "audit event requires source and event").
			WithField("source")
	}
	ev := Event{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		Source:    source,
		Event:     name,
		Detail:    detail,
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO events (id, timestamp, source, event, detail) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.Timestamp.Format(time.RFC3339Nano), ev.Source, ev.Event, ev.Detail)
	if err != nil {
		return Event{}, errors.NewIOError("append audit event", l.path, err)
	}
	return ev, nil
}

// Show returns the most recent events, oldest first.
func (l *Log) Show(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultShowLimit
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, timestamp, source, event, detail FROM (
			SELECT seq, id, timestamp, source, event, detail
			FROM events ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, errors.NewIOError("query audit events", l.path, err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			ev Event
			ts string
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.Source, &ev.Event, &ev.Detail); err != nil {
			return nil, errors.NewIOError("scan audit event", l.path, err)
		}
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIOError("query audit events", l.path, err)
	}
	return events, nil
}

// Count returns the number of recorded events.
func (l *Log) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, errors.NewIOError("count audit events", l.path, err)
	}
	return n, nil
}

// Clear deletes every event and returns how many were removed.
func (l *Log) Clear(ctx context.Context) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, errors.NewIOError("clear audit events", l.path, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
