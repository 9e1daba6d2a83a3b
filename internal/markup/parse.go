package markup

import (
	"strings"
	"time"
)

// Lines splits a document into lines. Line indices used throughout the
// package are positions in this slice.
func Lines(doc string) []string {
	return strings.Split(doc, "\n")
}

// Parse classifies every line of doc in order, dropping blank and
// decorative lines. Schedules are parsed in time.Local.
func Parse(doc string) []Node {
	return ParseIn(doc, time.Local)
}

// ParseIn is Parse with an explicit location for schedule tokens.
func ParseIn(doc string, loc *time.Location) []Node {
	lines := Lines(doc)
	nodes := make([]Node, 0, len(lines))
	for i, line := range lines {
		if n, ok := ClassifyIn(line, i, loc); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Find returns the node at lineIndex, if that line produced one.
func Find(nodes []Node, lineIndex int) (Node, bool) {
	for _, n := range nodes {
		if n.LineIndex == lineIndex {
			return n, true
		}
		if n.LineIndex > lineIndex {
			break
		}
	}
	return Node{}, false
}

// Tasks returns only the task nodes.
func Tasks(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsTask() {
			out = append(out, n)
		}
	}
	return out
}

// Counts is the task summary shown in the preview header and status bar.
type Counts struct {
	Tasks     int `json:"tasks"`
	Completed int `json:"completed"`
}

// Summarize counts tasks and completed tasks.
func Summarize(nodes []Node) Counts {
	var c Counts
	for _, n := range nodes {
		if !n.IsTask() {
			continue
		}
		c.Tasks++
		if n.Done() {
			c.Completed++
		}
	}
	return c
}

// Title returns the title of the first level-1 header, or "" if the
// document has none.
func Title(nodes []Node) string {
	for _, n := range nodes {
		if n.Kind == KindHeader && n.Level == 1 {
			return n.Title
		}
	}
	return ""
}
