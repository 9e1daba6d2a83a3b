package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/starford/taskmark/internal/analytics"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/render"
)

// Preview writes the terminal rendering of the document at path. With
// markdown set the raw document is rendered through glamour instead.
func Preview(w io.Writer, path string, markdown bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if markdown {
		_, err = io.WriteString(w, render.Markdown(string(data)))
		return err
	}
	_, err = fmt.Fprintln(w, render.Preview(markup.Parse(string(data))))
	return err
}

// Stats writes the task statistics of the document at path as indented
// JSON.
func Stats(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	stats := analytics.Tasks(markup.Parse(string(data)), time.Now())
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
