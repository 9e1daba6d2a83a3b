package calendar_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/calendar"
	"github.com/starford/taskmark/internal/models"
	"github.com/starford/taskmark/internal/projectservice"
	"github.com/starford/taskmark/internal/testutil"
)

var ctx = context.Background()

func day(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.Local)
}

func TestTaskEntries(t *testing.T) {
	doc := projectservice.Document{
		Project: models.Project{Path: "work.md"},
		Content: "# Work\n" +
			"- Standup @2024-03-15 09:30\n" +
			"- [x] Review @2024-03-15 color:#ec4899\n" +
			"- no schedule\n" +
			"Meeting @2024-03-15\n" +
			"- @2024-03-16",
	}
	entries := calendar.TaskEntries(doc)
	if len(entries) != 3 {
		t.Fatalf("entries = %+v", entries)
	}

	first := entries[0]
	if first.Title != "Standup" || !first.HasTime || !first.Date.Equal(day(2024, 3, 15, 9, 30)) {
		t.Errorf("first = %+v", first)
	}
	if first.Color != calendar.Palette[1] {
		t.Errorf("palette color = %q, want %q", first.Color, calendar.Palette[1])
	}
	if first.ProjectPath != "work.md" || first.LineIndex == nil || *first.LineIndex != 1 {
		t.Errorf("origin = %q/%v", first.ProjectPath, first.LineIndex)
	}

	if entries[1].Color != "#ec4899" || !entries[1].Completed || entries[1].HasTime {
		t.Errorf("second = %+v", entries[1])
	}
	if entries[2].Title != calendar.UntitledTask {
		t.Errorf("empty title = %q", entries[2].Title)
	}
}

func TestFormatEventLine(t *testing.T) {
	at := day(2024, 3, 15, 14, 30)
	tests := []struct {
		title   string
		hasTime bool
		color   string
		want    string
	}{
		{"Dentist", true, "#ef4444", "- Dentist @2024-03-15 14:30 color:#ef4444"},
		{"Dentist", false, models.DefaultColor, "- Dentist @2024-03-15"},
		{"  ", false, "", "- Untitled Task @2024-03-15"},
		{"Call\n- [x] mom", false, "", "- Call - [x] mom @2024-03-15"},
	}
	for _, tt := range tests {
		if got := calendar.FormatEventLine(tt.title, at, tt.hasTime, tt.color); got != tt.want {
			t.Errorf("FormatEventLine(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestRangeMergesTasksAndEvents(t *testing.T) {
	projects, _, db := testutil.TestProjects(t)
	svc := calendar.NewService(projects, db)

	p, _ := projects.Create(ctx, "Home", "", "")
	_, _ = projects.UpdateContent(ctx, p.Path, []byte("# Home\n- Fix sink @2024-03-15 18:00\n- Paint @2024-04-01"), "")

	ev, err := svc.CreateEvent(ctx, calendar.EventInput{Title: "Dentist", Date: day(2024, 3, 15, 9, 0)})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.Color != models.DefaultColor {
		t.Errorf("default color = %q", ev.Color)
	}

	entries, err := svc.Day(ctx, day(2024, 3, 15, 12, 0))
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Kind != calendar.KindEvent || entries[0].Title != "Dentist" {
		t.Errorf("first = %+v", entries[0])
	}
	if entries[1].Kind != calendar.KindTask || entries[1].Title != "Fix sink" {
		t.Errorf("second = %+v", entries[1])
	}
}

func TestMonth(t *testing.T) {
	projects, _, db := testutil.TestProjects(t)
	svc := calendar.NewService(projects, db)
	p, _ := projects.Create(ctx, "Feb", "", "")
	_, _ = projects.UpdateContent(ctx, p.Path, []byte("- leap @2024-02-29\n- march @2024-03-01"), "")

	days, err := svc.Month(ctx, day(2024, 2, 10, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 29 {
		t.Fatalf("days = %d, want 29", len(days))
	}
	if len(days[28].Entries) != 1 || days[28].Entries[0].Title != "leap" {
		t.Errorf("Feb 29 = %+v", days[28])
	}
	if len(days[0].Entries) != 0 {
		t.Errorf("Feb 1 = %+v", days[0])
	}
}

func TestEventCRUD(t *testing.T) {
	projects, _, db := testutil.TestProjects(t)
	svc := calendar.NewService(projects, db)

	if _, err := svc.CreateEvent(ctx, calendar.EventInput{Title: "", Date: time.Now()}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty title err = %v", err)
	}
	if _, err := svc.CreateEvent(ctx, calendar.EventInput{Title: "x", Date: time.Now(), Color: "pink"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad color err = %v", err)
	}

	e, err := svc.CreateEvent(ctx, calendar.EventInput{Title: "Call", Date: day(2024, 5, 1, 10, 0), Color: "#10b981"})
	if err != nil {
		t.Fatal(err)
	}
	updated, err := svc.UpdateEvent(ctx, e.ID, calendar.EventInput{Title: "Call back", Date: day(2024, 5, 2, 10, 0), Color: "#10b981"})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if updated.Title != "Call back" {
		t.Errorf("title = %q", updated.Title)
	}
	got, _ := svc.GetEvent(ctx, e.ID)
	if !got.Date.Equal(day(2024, 5, 2, 10, 0)) {
		t.Errorf("date = %v", got.Date)
	}
	if err := svc.DeleteEvent(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateEvent(ctx, e.ID, calendar.EventInput{Title: "x", Date: time.Now()}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
	list, _ := svc.ListEvents(ctx, time.Time{}, time.Time{})
	if len(list) != 0 {
		t.Errorf("events = %+v", list)
	}
}
