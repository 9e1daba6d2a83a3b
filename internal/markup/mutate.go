package markup

import (
	"strings"
	"time"
	"unicode"
)

// Every mutator returns the new document and whether anything changed.
// Out-of-range line indices and lines of the wrong kind leave the document
// untouched. All other lines are preserved byte for byte.

// SetLine replaces the line at lineIndex with newLine.
func SetLine(doc string, lineIndex int, newLine string) (string, bool) {
	lines := Lines(doc)
	if lineIndex < 0 || lineIndex >= len(lines) {
		return doc, false
	}
	lines[lineIndex] = newLine
	return strings.Join(lines, "\n"), true
}

// DeleteLine removes the line at lineIndex. Every later line index shifts
// down by one, so callers must re-parse before the next indexed mutation.
func DeleteLine(doc string, lineIndex int) (string, bool) {
	lines := Lines(doc)
	if lineIndex < 0 || lineIndex >= len(lines) {
		return doc, false
	}
	lines = append(lines[:lineIndex], lines[lineIndex+1:]...)
	return strings.Join(lines, "\n"), true
}

// AppendLine adds text at the end of doc, on a new line unless doc is empty.
// text is appended verbatim, even if it spans several lines or does not
// follow the grammar.
func AppendLine(doc, text string) string {
	if doc == "" {
		return text
	}
	return doc + "\n" + text
}

// ToggleTask flips the checkbox of a checkbox task. A plain dash task is
// promoted straight to a completed checkbox task ("- x" becomes "- [x] x").
func ToggleTask(doc string, lineIndex int) (string, bool) {
	line, n, ok := taskAt(doc, lineIndex)
	if !ok {
		return doc, false
	}
	return SetLine(doc, lineIndex, toggleLine(line, n))
}

func toggleLine(line string, n Node) string {
	if !n.Checkbox {
		return promoteLine(line)
	}
	// The marker is the first bracket pair on the line: only whitespace and
	// dashes can precede it.
	if n.Completed {
		return strings.Replace(line, "[x]", "[ ]", 1)
	}
	return strings.Replace(line, "[ ]", "[x]", 1)
}

func promoteLine(line string) string {
	indent, rest := splitIndent(line)
	if strings.HasPrefix(rest, "-- ") {
		return indent + "-- [x] " + rest[len("-- "):]
	}
	return indent + "- [x] " + rest[len("- "):]
}

// EditTitle replaces the title of the node at lineIndex, keeping its kind,
// level, completion, schedule and color. The line is re-serialized with
// Format and keeps its original indentation. Titles that are not a
// PlainTitle are refused. An unparsable schedule token on the old line is
// not kept.
func EditTitle(doc string, lineIndex int, title string) (string, bool) {
	lines := Lines(doc)
	if lineIndex < 0 || lineIndex >= len(lines) || !PlainTitle(title) {
		return doc, false
	}
	n, ok := ClassifyIn(lines[lineIndex], lineIndex, time.Local)
	if !ok {
		return doc, false
	}
	n.Title = strings.TrimSpace(title)
	indent, _ := splitIndent(lines[lineIndex])
	return SetLine(doc, lineIndex, indent+Format(n))
}

// SetSchedule rewrites the schedule token of the task at lineIndex. A nil
// at removes the token; a task without one gets it appended.
func SetSchedule(doc string, lineIndex int, at *time.Time, hasTime bool) (string, bool) {
	line, _, ok := taskAt(doc, lineIndex)
	if !ok {
		return doc, false
	}
	token := ""
	if at != nil {
		token = ScheduleToken(*at, hasTime)
	}
	return SetLine(doc, lineIndex, replaceToken(line, scheduleRe.FindStringIndex(line), token))
}

// SetColor rewrites the color token of the task at lineIndex. An empty
// color removes the token.
func SetColor(doc string, lineIndex int, color string) (string, bool) {
	line, _, ok := taskAt(doc, lineIndex)
	if !ok {
		return doc, false
	}
	token := ""
	if color != "" {
		token = ColorToken(color)
	}
	return SetLine(doc, lineIndex, replaceToken(line, colorRe.FindStringIndex(line), token))
}

// replaceToken swaps the token at loc for token, or appends token when loc
// is nil. Removing a token leaves the surrounding text as is apart from
// trailing spaces.
func replaceToken(line string, loc []int, token string) string {
	switch {
	case loc != nil:
		line = line[:loc[0]] + token + line[loc[1]:]
	case token != "":
		line = strings.TrimRightFunc(line, unicode.IsSpace) + " " + token
	}
	return strings.TrimRightFunc(line, unicode.IsSpace)
}

func taskAt(doc string, lineIndex int) (string, Node, bool) {
	lines := Lines(doc)
	if lineIndex < 0 || lineIndex >= len(lines) {
		return "", Node{}, false
	}
	n, ok := ClassifyIn(lines[lineIndex], lineIndex, time.Local)
	if !ok || !n.IsTask() {
		return "", Node{}, false
	}
	return lines[lineIndex], n, true
}

func splitIndent(line string) (indent, rest string) {
	rest = strings.TrimLeftFunc(line, unicode.IsSpace)
	return line[:len(line)-len(rest)], rest
}

// Format renders n back to a canonical line. Parsing the result yields a
// node with the same kind, level, completion, priority, schedule, color
// and title.
func Format(n Node) string {
	switch n.Kind {
	case KindHeader:
		level := n.Level
		if level < 1 {
			level = 1
		}
		return strings.Repeat("#", level) + " " + n.Title
	case KindTask:
		var b strings.Builder
		if n.Level > 0 {
			b.WriteString("-- ")
		} else {
			b.WriteString("- ")
		}
		if n.Checkbox {
			if n.Completed {
				b.WriteString("[x] ")
			} else {
				b.WriteString("[ ] ")
			}
		}
		b.WriteString(n.Title)
		if n.Schedule != nil {
			b.WriteString(" " + ScheduleToken(*n.Schedule, n.HasTime))
		}
		if n.Color != "" {
			b.WriteString(" " + ColorToken(n.Color))
		}
		return b.String()
	}
	return n.Title
}
