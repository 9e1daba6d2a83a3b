package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/models"
)

// CreateEvent inserts a calendar event. Dates are stored in UTC so range
// queries compare consistently.
func (db *DB) CreateEvent(e models.Event) error {
	_, err := db.conn.Exec(`
		INSERT INTO events (id, title, description, event_date, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Title, e.Description, e.Date.UTC(), e.Color, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: create event: %w", err)
	}
	return nil
}

// UpdateEvent replaces the mutable fields of an event.
func (db *DB) UpdateEvent(e models.Event) error {
	res, err := db.conn.Exec(`
		UPDATE events SET title = ?, description = ?, event_date = ?, color = ?
		WHERE id = ?
	`, e.Title, e.Description, e.Date.UTC(), e.Color, e.ID)
	if err != nil {
		return fmt.Errorf("index: update event: %w", err)
	}
	return checkRowsAffected(res, "update event")
}

// DeleteEvent removes an event.
func (db *DB) DeleteEvent(id string) error {
	res, err := db.conn.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("index: delete event: %w", err)
	}
	return checkRowsAffected(res, "delete event")
}

// GetEvent returns a single event.
func (db *DB) GetEvent(id string) (*models.Event, error) {
	var e models.Event
	err := db.conn.QueryRow(`
		SELECT id, title, description, event_date, color, created_at FROM events WHERE id = ?
	`, id).Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Color, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: event %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get event: %w", err)
	}
	return &e, nil
}

// ListEvents returns events with from <= date < to, oldest first. A zero
// bound is open.
func (db *DB) ListEvents(from, to time.Time) ([]models.Event, error) {
	q := `SELECT id, title, description, event_date, color, created_at FROM events WHERE 1 = 1`
	var args []any
	if !from.IsZero() {
		q += ` AND event_date >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		q += ` AND event_date < ?`
		args = append(args, to.UTC())
	}
	q += ` ORDER BY event_date, id`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Color, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("index: scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
