// Package analytics derives task and focus statistics from parsed
// documents and recorded timer sessions.
package analytics

import (
	"context"
	"math"
	"time"

	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/models"
	"github.com/starford/taskmark/internal/projectservice"
)

// WeekDays is the length of the per-day work session history.
const WeekDays = 7

// TaskStats summarizes the tasks of one or more documents.
type TaskStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	Scheduled      int     `json:"scheduled"`
	HighPriority   int     `json:"high_priority"`
	MediumPriority int     `json:"medium_priority"`
	LowPriority    int     `json:"low_priority"`
	CompletionRate float64 `json:"completion_rate"`
}

// DayCount is the number of work sessions started on a day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FocusStats summarizes timer sessions.
type FocusStats struct {
	FocusMinutes int        `json:"focus_minutes"`
	Weekly       []DayCount `json:"weekly"`
	Streak       int        `json:"streak"`
	Today        int        `json:"today"`
}

// Report is the combined analytics view.
type Report struct {
	Tasks             TaskStats  `json:"tasks"`
	Focus             FocusStats `json:"focus"`
	ProductivityScore int        `json:"productivity_score"`
}

// Tasks computes task statistics. A task is overdue when it is scheduled
// strictly before now and not completed.
func Tasks(nodes []markup.Node, now time.Time) TaskStats {
	var s TaskStats
	for _, n := range nodes {
		if !n.IsTask() {
			continue
		}
		s.Total++
		if n.Done() {
			s.Completed++
		} else {
			s.Pending++
		}
		switch n.Priority {
		case markup.PriorityHigh:
			s.HighPriority++
		case markup.PriorityMedium:
			s.MediumPriority++
		case markup.PriorityLow:
			s.LowPriority++
		}
		if n.Schedule != nil {
			s.Scheduled++
			if n.Schedule.Before(now) && !n.Done() {
				s.Overdue++
			}
		}
	}
	s.CompletionRate = rate(s.Completed, s.Total)
	return s
}

// Merge adds the counters of o to s and recomputes the completion rate.
func (s TaskStats) Merge(o TaskStats) TaskStats {
	s.Total += o.Total
	s.Completed += o.Completed
	s.Pending += o.Pending
	s.Overdue += o.Overdue
	s.Scheduled += o.Scheduled
	s.HighPriority += o.HighPriority
	s.MediumPriority += o.MediumPriority
	s.LowPriority += o.LowPriority
	s.CompletionRate = rate(s.Completed, s.Total)
	return s
}

func rate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// Focus computes focus statistics in now's location. Focus minutes count
// completed work sessions only; the weekly history, streak and today count
// include every work session that was started.
func Focus(sessions []models.TimerSession, now time.Time) FocusStats {
	loc := now.Location()
	perDay := make(map[string]int)
	var seconds int
	for _, s := range sessions {
		if s.Type != models.SessionWork {
			continue
		}
		perDay[dayKey(s.StartedAt.In(loc))]++
		if s.Completed {
			seconds += s.Duration
		}
	}

	st := FocusStats{
		FocusMinutes: seconds / 60,
		Weekly:       make([]DayCount, 0, WeekDays),
		Today:        perDay[dayKey(now)],
	}
	for i := WeekDays - 1; i >= 0; i-- {
		key := dayKey(now.AddDate(0, 0, -i))
		st.Weekly = append(st.Weekly, DayCount{Date: key, Count: perDay[key]})
	}
	for d := now; perDay[dayKey(d)] > 0; d = d.AddDate(0, 0, -1) {
		st.Streak++
	}
	return st
}

func dayKey(t time.Time) string {
	return t.Format(markup.DateLayout)
}

// ProductivityScore combines completion rate, focus time and streak into
// a 0-100 score.
func ProductivityScore(tasks TaskStats, focus FocusStats) int {
	raw := (tasks.CompletionRate + float64(focus.FocusMinutes)/10 + float64(focus.Streak*5)) / 3
	return int(math.Max(0, math.Min(100, math.Round(raw))))
}

// DocumentSource lists project documents.
type DocumentSource interface {
	Documents(ctx context.Context) ([]projectservice.Document, error)
}

// SessionSource lists timer sessions started at or after since.
type SessionSource interface {
	ListSessions(since time.Time, limit int) ([]models.TimerSession, error)
}

// Service builds reports from the current documents and sessions.
type Service struct {
	docs     DocumentSource
	sessions SessionSource
	now      func() time.Time
}

// NewService creates an analytics service.
func NewService(docs DocumentSource, sessions SessionSource) *Service {
	return &Service{docs: docs, sessions: sessions, now: time.Now}
}

// Report computes analytics over every project, or only the project at
// path when path is non-empty.
func (s *Service) Report(ctx context.Context, path string) (*Report, error) {
	now := s.now()
	docs, err := s.docs.Documents(ctx)
	if err != nil {
		return nil, err
	}
	var tasks TaskStats
	for _, d := range docs {
		if path != "" && d.Project.Path != path {
			continue
		}
		tasks = tasks.Merge(Tasks(markup.Parse(d.Content), now))
	}

	sessions, err := s.sessions.ListSessions(time.Time{}, 0)
	if err != nil {
		return nil, err
	}
	focus := Focus(sessions, now)
	return &Report{
		Tasks:             tasks,
		Focus:             focus,
		ProductivityScore: ProductivityScore(tasks, focus),
	}, nil
}
