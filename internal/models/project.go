// Package models defines the domain types for taskmark.
package models

import "time"

// DefaultColor is the project and event color used when none is given.
const DefaultColor = "#3b82f6"

// DocumentMetadata is a lightweight representation returned by storage
// list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is a named task document plus display metadata. Path is the
// document's location relative to the data directory and identifies the
// project.
type Project struct {
	Path           string    `json:"path"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Color          string    `json:"color"`
	Content        string    `json:"content,omitempty"`
	Checksum       string    `json:"checksum"`
	TaskCount      int       `json:"task_count"`
	CompletedCount int       `json:"completed_count"`
	Shared         bool      `json:"is_shared"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Event is a standalone calendar entry that does not live in any document.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"event_date"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionType is the kind of a pomodoro session.
type SessionType string

// Pomodoro session types.
const (
	SessionWork      SessionType = "work"
	SessionBreak     SessionType = "break"
	SessionLongBreak SessionType = "long_break"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case SessionWork, SessionBreak, SessionLongBreak:
		return true
	}
	return false
}

// TimerSession is one recorded pomodoro session. Duration is in seconds.
type TimerSession struct {
	ID        string      `json:"id"`
	TaskID    string      `json:"task_id,omitempty"`
	Type      SessionType `json:"session_type"`
	Duration  int         `json:"duration"`
	Completed bool        `json:"completed"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
}

// SharedLink grants read-only access to a project through an opaque token.
type SharedLink struct {
	ID          string     `json:"id"`
	ProjectPath string     `json:"project_path"`
	Token       string     `json:"token"`
	ViewCount   int        `json:"view_count"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Expired reports whether the link has an expiry before now.
func (l SharedLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}
