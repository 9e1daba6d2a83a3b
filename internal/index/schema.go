// Package index keeps the SQLite records that sit next to the task
// documents: project metadata and derived counters, calendar events, timer
// sessions and shared links, with optional FTS5 search over document bodies.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/taskmark/internal/apperr"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	path           TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	color          TEXT NOT NULL DEFAULT '#3b82f6',
	checksum       TEXT NOT NULL DEFAULT '',
	body           TEXT NOT NULL DEFAULT '',
	task_total     INTEGER NOT NULL DEFAULT 0,
	task_completed INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	event_date  DATETIME NOT NULL,
	color       TEXT NOT NULL DEFAULT '#3b82f6',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);

CREATE TABLE IF NOT EXISTS timer_sessions (
	id           TEXT PRIMARY KEY,
	task_id      TEXT NOT NULL DEFAULT '',
	session_type TEXT NOT NULL,
	duration     INTEGER NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0,
	started_at   DATETIME NOT NULL,
	ended_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON timer_sessions(started_at);

CREATE TABLE IF NOT EXISTS shared_links (
	id           TEXT PRIMARY KEY,
	project_path TEXT NOT NULL REFERENCES projects(path) ON DELETE CASCADE ON UPDATE CASCADE,
	token        TEXT NOT NULL UNIQUE,
	view_count   INTEGER NOT NULL DEFAULT 0,
	expires_at   DATETIME,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_shared_links_project ON shared_links(project_path);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// checkRowsAffected maps an UPDATE/DELETE that touched nothing to
// apperr.ErrNotFound.
func checkRowsAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("index: %s rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("index: %s: %w", what, apperr.ErrNotFound)
	}
	return nil
}
