// Package markup implements the plain-text task markup shared by every view:
// a line classifier, a document parser built on it, and a set of line-level
// mutators that write edits back into the raw document text.
//
// The raw document is the only source of truth. Nodes are derived on demand
// and never cached; every function in this package is pure and never fails.
package markup

import (
	"regexp"
	"strings"
	"time"
)

// Kind is the semantic kind of a parsed line.
type Kind string

// Node kinds.
const (
	KindHeader Kind = "header"
	KindTask   Kind = "task"
	KindText   Kind = "text"
)

// Priority is the cosmetic priority of a task.
type Priority string

// Task priorities. PriorityNone means no marker was found.
const (
	PriorityNone   Priority = ""
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Schedule token layouts (without the leading '@').
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

var (
	headerPrefixRe   = regexp.MustCompile(`^#+\s*`)
	checkboxRe       = regexp.MustCompile(`^--?\s*\[([ x])\]`)
	checkboxPrefixRe = regexp.MustCompile(`^--?\s*\[[ x]\]\s*`)
	dashPrefixRe     = regexp.MustCompile(`^--?\s*`)
	scheduleRe       = regexp.MustCompile(`@(\d{4}-\d{2}-\d{2}(?:\s+\d{2}:\d{2})?)`)
	colorRe          = regexp.MustCompile(`color:(#[0-9a-fA-F]{6})`)
)

// priorityMarkers is checked in order; the first marker found wins.
var priorityMarkers = []struct {
	priority Priority
	emoji    string
	word     string
}{
	{PriorityHigh, "🔥", "high"},
	{PriorityMedium, "⚡", "medium"},
	{PriorityLow, "📝", "low"},
}

// PriorityEmoji returns the emoji marker for p, or "" for PriorityNone.
func PriorityEmoji(p Priority) string {
	for _, m := range priorityMarkers {
		if m.priority == p {
			return m.emoji
		}
	}
	return ""
}

// detectPriority matches an emoji or a case-insensitive keyword anywhere in
// text. Keywords match as substrings, so "High school reunion" is a
// high-priority task.
func detectPriority(text string) Priority {
	lower := strings.ToLower(text)
	for _, m := range priorityMarkers {
		if strings.Contains(text, m.emoji) || strings.Contains(lower, m.word) {
			return m.priority
		}
	}
	return PriorityNone
}

// ParseSchedule parses the body of a schedule token ("2006-01-02" or
// "2006-01-02 15:04") in loc. ok is false when raw is not a valid
// calendar date (or time).
func ParseSchedule(raw string, loc *time.Location) (at time.Time, hasTime bool, ok bool) {
	fields := strings.Fields(raw)
	switch len(fields) {
	case 1:
		t, err := time.ParseInLocation(DateLayout, fields[0], loc)
		if err != nil {
			return time.Time{}, false, false
		}
		return t, false, true
	case 2:
		t, err := time.ParseInLocation(DateTimeLayout, fields[0]+" "+fields[1], loc)
		if err != nil {
			return time.Time{}, false, false
		}
		return t, true, true
	}
	return time.Time{}, false, false
}

// ScheduleToken renders a schedule as it appears in a task line,
// including the leading '@'.
func ScheduleToken(at time.Time, hasTime bool) string {
	if hasTime {
		return "@" + at.Format(DateTimeLayout)
	}
	return "@" + at.Format(DateLayout)
}

// ColorToken renders an event color as it appears in a task line.
func ColorToken(color string) string {
	return "color:" + color
}

// ValidColor reports whether color is a #RRGGBB hex color.
func ValidColor(color string) bool {
	return colorRe.MatchString(ColorToken(color)) && len(color) == 7
}

// PlainTitle reports whether title can replace the text of a single line
// without changing its structure: no line breaks and no schedule or color
// tokens of its own.
func PlainTitle(title string) bool {
	return !strings.ContainsAny(title, "\r\n") &&
		!scheduleRe.MatchString(title) &&
		!colorRe.MatchString(title)
}
