package projectservice

import (
	"strings"
	"unicode"
)

// Template returns the starting document of a new project. The
// description paragraph is left out when description is empty.
func Template(name, description string) string {
	var b strings.Builder
	b.WriteString("# " + name + "\n\n")
	if description != "" {
		b.WriteString(description + "\n\n")
	}
	b.WriteString("Start adding your tasks here:\n\n")
	b.WriteString("- First task for " + name + "\n")
	b.WriteString("  -- Break it down into subtasks\n")
	b.WriteString("- Plan project milestones\n")
	b.WriteString("- Set deadlines and priorities\n\n")
	b.WriteString("## Notes\n")
	b.WriteString("Add any project-specific notes here...")
	return b.String()
}

// Slug turns a project name into a file name stem: lower case letters and
// digits separated by single dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "project"
	}
	return b.String()
}

// ExportName is the download file name for a project: the lower-cased name
// with whitespace runs replaced by dashes.
func ExportName(name string) string {
	stem := strings.Join(strings.Fields(strings.ToLower(name)), "-")
	if stem == "" {
		stem = "project"
	}
	return stem + ".md"
}
