// Package render draws parsed task documents for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/taskmark/internal/markup"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	taskStyle     = lipgloss.NewStyle()
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Italic(true)
	scheduleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Preview renders nodes as a task tree followed by the status line.
func Preview(nodes []markup.Node) string {
	lines := make([]string, 0, len(nodes)+1)
	for _, n := range nodes {
		lines = append(lines, Line(n))
	}
	body := panelStyle.Render(strings.Join(lines, "\n"))
	return body + "\n" + statusStyle.Render(StatusLine(markup.Summarize(nodes)))
}

// Line renders a single node.
func Line(n markup.Node) string {
	switch n.Kind {
	case markup.KindHeader:
		style := headerStyle
		if n.Level == 1 {
			style = titleStyle
		}
		return style.Render(strings.Repeat("#", n.Level) + " " + n.Title)
	case markup.KindTask:
		return taskLine(n)
	default:
		return textStyle.Render(n.Title)
	}
}

func taskLine(n markup.Node) string {
	indent := strings.Repeat("  ", n.Level)
	marker := "•"
	if n.Checkbox {
		marker = "☐"
		if n.Completed {
			marker = "☑"
		}
	}

	style := taskStyle
	if n.Done() {
		style = doneStyle
	}
	parts := []string{indent + marker, style.Render(n.Title)}
	if e := markup.PriorityEmoji(n.Priority); e != "" && !strings.Contains(n.Title, e) {
		parts = append(parts, e)
	}
	if n.Schedule != nil {
		parts = append(parts, scheduleStyle.Render(strings.TrimPrefix(markup.ScheduleToken(*n.Schedule, n.HasTime), "@")))
	}
	if n.Color != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(n.Color)).Render("●"))
	}
	return strings.Join(parts, " ")
}

// StatusLine is the summary shown under a preview.
func StatusLine(c markup.Counts) string {
	return fmt.Sprintf("%d tasks · %d completed", c.Tasks, c.Completed)
}

// Markdown renders the raw document with glamour. It falls back to the
// input when rendering fails.
func Markdown(doc string) string {
	if strings.TrimSpace(doc) == "" {
		return ""
	}
	out, err := glamour.Render(doc, "dark")
	if err != nil {
		return doc
	}
	return strings.TrimSpace(out)
}
