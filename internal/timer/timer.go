// Package timer records pomodoro sessions and decides which session comes
// next.
package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/models"
)

// Durations holds the length of each session type.
type Durations struct {
	Work      time.Duration
	Break     time.Duration
	LongBreak time.Duration
	// LongBreakEvery is the number of work sessions per long break.
	LongBreakEvery int
}

// DefaultDurations are the classic 25/5/15 minute pomodoro lengths.
var DefaultDurations = Durations{
	Work:           25 * time.Minute,
	Break:          5 * time.Minute,
	LongBreak:      15 * time.Minute,
	LongBreakEvery: 4,
}

// For returns the configured length of t.
func (d Durations) For(t models.SessionType) time.Duration {
	switch t {
	case models.SessionBreak:
		return d.Break
	case models.SessionLongBreak:
		return d.LongBreak
	default:
		return d.Work
	}
}

// Next returns the session that follows current. After a work session
// the next one is a long break when it completes a full cycle, counting
// completedWorkToday earlier work sessions; after any break it is work.
func (d Durations) Next(current models.SessionType, completedWorkToday int) models.SessionType {
	if current != models.SessionWork {
		return models.SessionWork
	}
	every := d.LongBreakEvery
	if every < 1 {
		every = DefaultDurations.LongBreakEvery
	}
	if (completedWorkToday+1)%every == 0 {
		return models.SessionLongBreak
	}
	return models.SessionBreak
}

// Store persists sessions.
type Store interface {
	CreateSession(s models.TimerSession) error
	FinishSession(id string, completed bool, endedAt time.Time) error
	GetSession(id string) (*models.TimerSession, error)
	ListSessions(since time.Time, limit int) ([]models.TimerSession, error)
}

// Service records sessions in a Store.
type Service struct {
	store     Store
	durations Durations
	now       func() time.Time
}

// NewService creates a timer service.
func NewService(store Store, d Durations) *Service {
	return &Service{store: store, durations: d, now: time.Now}
}

// Durations returns the configured session lengths.
func (s *Service) Durations() Durations {
	return s.durations
}

// Start records a new running session of type t, optionally tied to a
// task.
func (s *Service) Start(_ context.Context, t models.SessionType, taskID string) (*models.TimerSession, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: session type %q", apperr.ErrInvalid, t)
	}
	sess := models.TimerSession{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Type:      t,
		Duration:  int(s.durations.For(t) / time.Second),
		StartedAt: s.now(),
	}
	if err := s.store.CreateSession(sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Finished is a session that just ended together with the session that
// should follow it.
type Finished struct {
	Session *models.TimerSession `json:"session"`
	Next    models.SessionType   `json:"next"`
}

// Complete marks a running session as completed.
func (s *Service) Complete(ctx context.Context, id string) (*Finished, error) {
	return s.finish(ctx, id, true)
}

// Abandon ends a running session without completing it.
func (s *Service) Abandon(ctx context.Context, id string) (*Finished, error) {
	return s.finish(ctx, id, false)
}

func (s *Service) finish(ctx context.Context, id string, completed bool) (*Finished, error) {
	before, err := s.CompletedWorkToday(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.FinishSession(id, completed, s.now()); err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	return &Finished{Session: sess, Next: s.durations.Next(sess.Type, before)}, nil
}

// NextAfter returns the session that should follow current, given the
// work sessions completed so far today.
func (s *Service) NextAfter(ctx context.Context, current models.SessionType) (models.SessionType, error) {
	if !current.Valid() {
		return "", fmt.Errorf("%w: session type %q", apperr.ErrInvalid, current)
	}
	n, err := s.CompletedWorkToday(ctx)
	if err != nil {
		return "", err
	}
	return s.durations.Next(current, n), nil
}

// CompletedWorkToday counts completed work sessions started today.
func (s *Service) CompletedWorkToday(_ context.Context) (int, error) {
	now := s.now()
	y, m, d := now.Date()
	sessions, err := s.store.ListSessions(time.Date(y, m, d, 0, 0, 0, 0, now.Location()), 0)
	if err != nil {
		return 0, err
	}
	var n int
	for _, sess := range sessions {
		if sess.Type == models.SessionWork && sess.Completed {
			n++
		}
	}
	return n, nil
}

// Recent returns the latest sessions, newest first.
func (s *Service) Recent(_ context.Context, limit int) ([]models.TimerSession, error) {
	sessions, err := s.store.ListSessions(time.Time{}, limit)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []models.TimerSession{}
	}
	return sessions, nil
}
