package projectservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/markup"
)

// Mutation operations.
const (
	OpToggle   = "toggle"
	OpSet      = "set"
	OpDelete   = "delete"
	OpAppend   = "append"
	OpTitle    = "title"
	OpSchedule = "schedule"
	OpColor    = "color"
)

// Mutation is a single edit of a document addressed by line index.
//
// Schedule is "YYYY-MM-DD" or "YYYY-MM-DD HH:MM" in local time; an empty
// Schedule removes the token. An empty Color likewise removes the color.
type Mutation struct {
	Op       string `json:"op"`
	Line     int    `json:"line"`
	Text     string `json:"text,omitempty"`
	Schedule string `json:"schedule,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Apply returns doc with the mutation applied. Out-of-range lines and
// lines of the wrong kind are reported as ErrInvalid.
func (m Mutation) Apply(doc string) (string, error) {
	var (
		out string
		ok  bool
	)
	switch m.Op {
	case OpToggle:
		out, ok = markup.ToggleTask(doc, m.Line)
	case OpSet:
		if strings.ContainsAny(m.Text, "\r\n") {
			return "", fmt.Errorf("%w: line text must not contain line breaks", apperr.ErrInvalid)
		}
		out, ok = markup.SetLine(doc, m.Line, m.Text)
	case OpDelete:
		out, ok = markup.DeleteLine(doc, m.Line)
	case OpAppend:
		return markup.AppendLine(doc, m.Text), nil
	case OpTitle:
		if strings.TrimSpace(m.Text) == "" {
			return "", fmt.Errorf("%w: title is empty", apperr.ErrInvalid)
		}
		if !markup.PlainTitle(m.Text) {
			return "", fmt.Errorf("%w: title must be one line without schedule or color tokens", apperr.ErrInvalid)
		}
		out, ok = markup.EditTitle(doc, m.Line, m.Text)
	case OpSchedule:
		if m.Schedule == "" {
			out, ok = markup.SetSchedule(doc, m.Line, nil, false)
			break
		}
		at, hasTime, valid := markup.ParseSchedule(m.Schedule, time.Local)
		if !valid {
			return "", fmt.Errorf("%w: schedule %q", apperr.ErrInvalid, m.Schedule)
		}
		out, ok = markup.SetSchedule(doc, m.Line, &at, hasTime)
	case OpColor:
		if m.Color != "" && !markup.ValidColor(m.Color) {
			return "", fmt.Errorf("%w: color %q", apperr.ErrInvalid, m.Color)
		}
		out, ok = markup.SetColor(doc, m.Line, m.Color)
	default:
		return "", fmt.Errorf("%w: unknown op %q", apperr.ErrInvalid, m.Op)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s not applicable to line %d", apperr.ErrInvalid, m.Op, m.Line)
	}
	return out, nil
}
