package mcpserver

// MarkupContract describes the line grammar of project documents that LLM
// consumers should follow when appending tasks.
const MarkupContract = `# taskmark Markup Contract

A project is a plain Markdown document. Every line is classified on its own;
blank lines and decorative lines (starting with ` + "`---`" + ` or ` + "`*`" + `) are ignored.

## Line kinds

| Line starts with | Kind | Notes |
|---|---|---|
| ` + "`#`" + `, ` + "`##`" + `, ... | header | level = number of ` + "`#`" + ` |
| ` + "`- [ ] `" + ` / ` + "`- [x] `" + ` | checkbox task | ` + "`x`" + ` means completed |
| ` + "`-- [ ] `" + ` / ` + "`-- [x] `" + ` | checkbox subtask | belongs to the task above |
| ` + "`- `" + ` | task | plain dash tasks are never completed |
| ` + "`-- `" + ` | subtask | |
| anything else | text | |

Leading whitespace is ignored when classifying.

## Task metadata

Tokens may appear anywhere after the marker; the first of each kind counts
and is removed from the title.

- **Schedule:** ` + "`@2025-03-15`" + ` or ` + "`@2025-03-15 14:30`" + ` (local time, 24h clock).
- **Color:** ` + "`color:#ef4444`" + ` (six hex digits). Only used for calendar display.
- **Priority:** 🔥 or the word "high", ⚡ or "medium", 📝 or "low". The word
  match is case-insensitive and matches inside other words.

## Rules

1. Append new tasks at the end of the document, one per line.
2. Use ` + "`- [ ] `" + ` for new tasks so they can be completed later.
3. Do not renumber or reorder existing lines: line indices identify tasks.
4. **Encoding** is UTF-8.

## Example

` + "```" + `markdown
# Product launch

## Marketing
- [ ] Draft announcement post 🔥 @2025-03-10
-- [ ] Collect screenshots
- [x] Book venue @2025-03-20 18:00 color:#22c55e
- Email the press list
` + "```" + `
`
