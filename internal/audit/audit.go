// Package audit implements the append-only moderation log (SPEC_FULL.md
// §2.1): every kick, ban, op, deop, and unban is recorded to a local SQLite
// database, independent of and never consulted for the server's in-memory
// user/channel state (spec's Non-goals exclude persisting that across
// restarts; this log is a record of actions taken, not a snapshot of state).
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded moderation action.
type Entry struct {
	ID        int64
	Channel   string
	Action    string
	Actor     string
	Target    string
	Timestamp time.Time
}

// Log is a handle to the audit database, grounded on rustyguts-bken's
// server/store/store.go (open-then-migrate shape, one package-level schema
// list applied with CREATE TABLE IF NOT EXISTS).
type Log struct {
	db  *sql.DB
	log *slog.Logger
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS moderation_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		channel TEXT NOT NULL,
		action TEXT NOT NULL,
		actor TEXT NOT NULL,
		target TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS moderation_log_channel_idx ON moderation_log(channel)`,
}

// Open opens (and creates, if necessary) the audit database at path and
// applies its schema.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("audit: migrate: %w", err)
		}
	}
	return &Log{db: db, log: slog.Default()}, nil
}

// SetLogger overrides the logger used to report failed writes.
func (l *Log) SetLogger(log *slog.Logger) { l.log = log }

func (l *Log) Close() error { return l.db.Close() }

// RecordModeration implements server.AuditSink. It logs failures rather than
// surfacing them to the caller: a broken audit log must never block or drop
// a live moderation action.
func (l *Log) RecordModeration(channel, action, actor, target string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO moderation_log (channel, action, actor, target, created_at) VALUES (?, ?, ?, ?, ?)`,
		channel, action, actor, target, time.Now().Unix())
	if err != nil {
		l.log.Warn("audit: failed to record moderation action", "channel", channel, "action", action, "error", err)
	}
}

// Tail returns the n most recent entries, newest first.
func (l *Log) Tail(ctx context.Context, n int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, channel, action, actor, target, created_at FROM moderation_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Channel, &e.Action, &e.Actor, &e.Target, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
