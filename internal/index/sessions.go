package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/models"
)

const sessionColumns = `id, task_id, session_type, duration, completed, started_at, ended_at`

// CreateSession records the start of a timer session.
func (db *DB) CreateSession(s models.TimerSession) error {
	var ended any
	if s.EndedAt != nil {
		ended = s.EndedAt.UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO timer_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.TaskID, string(s.Type), s.Duration, s.Completed, s.StartedAt.UTC(), ended)
	if err != nil {
		return fmt.Errorf("index: create session: %w", err)
	}
	return nil
}

// FinishSession marks a running session as ended. Finishing an already
// finished session is a conflict.
func (db *DB) FinishSession(id string, completed bool, endedAt time.Time) error {
	res, err := db.conn.Exec(`
		UPDATE timer_sessions SET completed = ?, ended_at = ?
		WHERE id = ? AND ended_at IS NULL
	`, completed, endedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("index: finish session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("index: finish session rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.GetSession(id); err != nil {
		return err
	}
	return fmt.Errorf("index: session %s already finished: %w", id, apperr.ErrConflict)
}

// GetSession returns a single session.
func (db *DB) GetSession(id string) (*models.TimerSession, error) {
	row := db.conn.QueryRow(`SELECT `+sessionColumns+` FROM timer_sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: session %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get session: %w", err)
	}
	return s, nil
}

// ListSessions returns sessions started at or after since, newest first.
// limit <= 0 means no limit.
func (db *DB) ListSessions(since time.Time, limit int) ([]models.TimerSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM timer_sessions WHERE started_at >= ? ORDER BY started_at DESC`
	args := []any{since.UTC()}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.TimerSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("index: scan session: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanSession(s rowScanner) (*models.TimerSession, error) {
	var (
		ts      models.TimerSession
		typ     string
		endedAt sql.NullTime
	)
	if err := s.Scan(&ts.ID, &ts.TaskID, &typ, &ts.Duration, &ts.Completed, &ts.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	ts.Type = models.SessionType(typ)
	if endedAt.Valid {
		t := endedAt.Time
		ts.EndedAt = &t
	}
	return &ts, nil
}
