package markup

import (
	"strings"
	"time"
)

// Node is one parsed line of a document.
type Node struct {
	Kind      Kind   `json:"kind"`
	LineIndex int    `json:"lineIndex"`
	Level     int    `json:"level"`
	Title     string `json:"title"`

	// Checkbox is true for "- [ ]" / "- [x]" style tasks. Completed is
	// only meaningful when Checkbox is set; plain dash tasks are never
	// completed.
	Checkbox  bool `json:"checkbox,omitempty"`
	Completed bool `json:"completed"`

	Priority Priority   `json:"priority,omitempty"`
	Schedule *time.Time `json:"schedule,omitempty"`
	HasTime  bool       `json:"hasTime,omitempty"`
	Color    string     `json:"color,omitempty"`
}

// IsTask reports whether n is a task node.
func (n Node) IsTask() bool {
	return n.Kind == KindTask
}

// Done reports whether n is a completed checkbox task.
func (n Node) Done() bool {
	return n.Kind == KindTask && n.Checkbox && n.Completed
}

// Classify classifies a single line, parsing schedules in time.Local.
// ok is false for blank lines and for decorative lines ("---", "*").
func Classify(line string, lineIndex int) (Node, bool) {
	return ClassifyIn(line, lineIndex, time.Local)
}

// ClassifyIn is Classify with an explicit location for schedule tokens.
func ClassifyIn(line string, lineIndex int, loc *time.Location) (Node, bool) {
	if loc == nil {
		loc = time.Local
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Node{}, false
	}

	// Order matters: headers, then checkboxes, then dash tasks, then text.
	switch {
	case strings.HasPrefix(trimmed, "#"):
		return Node{
			Kind:      KindHeader,
			LineIndex: lineIndex,
			Level:     len(trimmed) - len(strings.TrimLeft(trimmed, "#")),
			Title:     headerPrefixRe.ReplaceAllString(trimmed, ""),
		}, true

	case checkboxRe.MatchString(trimmed):
		m := checkboxRe.FindStringSubmatch(trimmed)
		n := Node{
			Kind:      KindTask,
			LineIndex: lineIndex,
			Level:     dashLevel(trimmed, "--"),
			Checkbox:  true,
			Completed: m[1] == "x",
		}
		extractMetadata(&n, checkboxPrefixRe.ReplaceAllString(trimmed, ""), loc)
		return n, true

	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "-- "):
		n := Node{
			Kind:      KindTask,
			LineIndex: lineIndex,
			Level:     dashLevel(trimmed, "-- "),
		}
		extractMetadata(&n, dashPrefixRe.ReplaceAllString(trimmed, ""), loc)
		return n, true

	case strings.HasPrefix(trimmed, "---") || strings.HasPrefix(trimmed, "*"):
		return Node{}, false
	}

	return Node{Kind: KindText, LineIndex: lineIndex, Title: trimmed}, true
}

func dashLevel(trimmed, subPrefix string) int {
	if strings.HasPrefix(trimmed, subPrefix) {
		return 1
	}
	return 0
}

// extractMetadata strips the schedule and color tokens from text (first
// match each), then derives the priority from what is left. Priority
// markers stay in the title.
func extractMetadata(n *Node, text string, loc *time.Location) {
	if m := scheduleRe.FindStringSubmatchIndex(text); m != nil {
		if at, hasTime, ok := ParseSchedule(text[m[2]:m[3]], loc); ok {
			n.Schedule = &at
			n.HasTime = hasTime
		}
		text = text[:m[0]] + text[m[1]:]
	}
	if m := colorRe.FindStringSubmatchIndex(text); m != nil {
		n.Color = text[m[2]:m[3]]
		text = text[:m[0]] + text[m[1]:]
	}
	n.Priority = detectPriority(text)
	n.Title = strings.TrimSpace(text)
}
