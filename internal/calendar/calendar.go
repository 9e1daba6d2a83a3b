// Package calendar builds an agenda from scheduled tasks in project
// documents and from standalone stored events.
package calendar

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/models"
	"github.com/starford/taskmark/internal/projectservice"
)

// Palette colors unscheduled-color tasks by line index.
var Palette = [...]string{
	"#3b82f6", "#ef4444", "#10b981", "#f59e0b",
	"#8b5cf6", "#ec4899", "#06b6d4", "#84cc16",
}

// UntitledTask replaces empty task titles in the agenda and in formatted
// lines.
const UntitledTask = "Untitled Task"

// Entry kinds.
const (
	KindTask  = "task"
	KindEvent = "event"
)

// Entry is one agenda item. Task entries carry the project path and line
// index of the line they came from.
type Entry struct {
	ID          string    `json:"id"`
	Kind        string    `json:"type"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	HasTime     bool      `json:"has_time"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	ProjectPath string    `json:"project_path,omitempty"`
	LineIndex   *int      `json:"lineIndex,omitempty"`
	Completed   bool      `json:"completed,omitempty"`
}

// Day groups the entries of one calendar day.
type Day struct {
	Date    time.Time `json:"date"`
	Entries []Entry   `json:"entries"`
}

// DocumentSource lists project documents.
type DocumentSource interface {
	Documents(ctx context.Context) ([]projectservice.Document, error)
}

// EventStore persists standalone events.
type EventStore interface {
	CreateEvent(e models.Event) error
	UpdateEvent(e models.Event) error
	DeleteEvent(id string) error
	GetEvent(id string) (*models.Event, error)
	ListEvents(from, to time.Time) ([]models.Event, error)
}

// Service answers agenda queries and manages stored events.
type Service struct {
	docs   DocumentSource
	events EventStore
	now    func() time.Time
}

// NewService creates a calendar service.
func NewService(docs DocumentSource, events EventStore) *Service {
	return &Service{docs: docs, events: events, now: time.Now}
}

// TaskEntries returns an entry for every scheduled task in doc.
func TaskEntries(doc projectservice.Document) []Entry {
	var out []Entry
	for _, n := range markup.Parse(doc.Content) {
		if !n.IsTask() || n.Schedule == nil {
			continue
		}
		line := n.LineIndex
		title := n.Title
		if title == "" {
			title = UntitledTask
		}
		color := n.Color
		if color == "" {
			color = Palette[line%len(Palette)]
		}
		out = append(out, Entry{
			ID:          fmt.Sprintf("task:%s:%d", doc.Project.Path, line),
			Kind:        KindTask,
			Title:       title,
			Date:        *n.Schedule,
			HasTime:     n.HasTime,
			Color:       color,
			ProjectPath: doc.Project.Path,
			LineIndex:   &line,
			Completed:   n.Done(),
		})
	}
	return out
}

func eventEntry(e models.Event) Entry {
	return Entry{
		ID:          e.ID,
		Kind:        KindEvent,
		Title:       e.Title,
		Date:        e.Date.In(time.Local),
		HasTime:     true,
		Color:       e.Color,
		Description: e.Description,
	}
}

// Range returns agenda entries with from <= date < to, ordered by date.
func (s *Service) Range(ctx context.Context, from, to time.Time) ([]Entry, error) {
	docs, err := s.docs.Documents(ctx)
	if err != nil {
		return nil, err
	}
	out := []Entry{}
	for _, d := range docs {
		for _, e := range TaskEntries(d) {
			if !e.Date.Before(from) && e.Date.Before(to) {
				out = append(out, e)
			}
		}
	}

	events, err := s.events.ListEvents(from, to)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		out = append(out, eventEntry(e))
	}

	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return out, nil
}

// Day returns the entries of the local calendar day containing date.
func (s *Service) Day(ctx context.Context, date time.Time) ([]Entry, error) {
	start := StartOfDay(date)
	return s.Range(ctx, start, start.AddDate(0, 0, 1))
}

// Upcoming returns the entries of the next days days, starting today.
func (s *Service) Upcoming(ctx context.Context, days int) ([]Entry, error) {
	start := StartOfDay(s.now())
	return s.Range(ctx, start, start.AddDate(0, 0, days))
}

// Month returns one Day per day of the month containing date.
func (s *Service) Month(ctx context.Context, date time.Time) ([]Day, error) {
	days := MonthDays(date)
	entries, err := s.Range(ctx, days[0], days[len(days)-1].AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	out := make([]Day, len(days))
	for i, d := range days {
		out[i] = Day{Date: d, Entries: []Entry{}}
	}
	for _, e := range entries {
		i := e.Date.In(date.Location()).Day() - 1
		out[i].Entries = append(out[i].Entries, e)
	}
	return out, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthDays returns midnight of every day in the month containing t.
func MonthDays(t time.Time) []time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	var out []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// FormatEventLine renders a task line that schedules title at at. The
// color token is left out for the default color and line breaks in title
// collapse to spaces.
func FormatEventLine(title string, at time.Time, hasTime bool, color string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		title = UntitledTask
	}
	line := "- " + title + " " + markup.ScheduleToken(at, hasTime)
	if color != "" && !strings.EqualFold(color, models.DefaultColor) {
		line += " " + markup.ColorToken(color)
	}
	return line
}

// EventInput holds the user-editable fields of an event.
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"event_date"`
	Color       string    `json:"color"`
}

// Validate validates the event input.
func (in *EventInput) Validate() error {
	if in.Color == "" {
		in.Color = models.DefaultColor
	}
	err := validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Date, validation.Required),
		validation.Field(&in.Color, validation.By(func(v any) error {
			if !markup.ValidColor(v.(string)) {
				return fmt.Errorf("must be a #rrggbb color")
			}
			return nil
		})),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
	}
	return nil
}

// CreateEvent stores a new event.
func (s *Service) CreateEvent(_ context.Context, in EventInput) (*models.Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e := models.Event{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Date:        in.Date,
		Color:       in.Color,
		CreatedAt:   s.now(),
	}
	if err := s.events.CreateEvent(e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEvent replaces the editable fields of an event.
func (s *Service) UpdateEvent(_ context.Context, id string, in EventInput) (*models.Event, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e, err := s.events.GetEvent(id)
	if err != nil {
		return nil, err
	}
	e.Title = strings.TrimSpace(in.Title)
	e.Description = in.Description
	e.Date = in.Date
	e.Color = in.Color
	if err := s.events.UpdateEvent(*e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(_ context.Context, id string) error {
	return s.events.DeleteEvent(id)
}

// GetEvent returns one event.
func (s *Service) GetEvent(_ context.Context, id string) (*models.Event, error) {
	return s.events.GetEvent(id)
}

// ListEvents returns stored events in [from, to); zero bounds are open.
func (s *Service) ListEvents(_ context.Context, from, to time.Time) ([]models.Event, error) {
	events, err := s.events.ListEvents(from, to)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}
