package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/taskmark/internal/calendar"
	"github.com/starford/taskmark/internal/checksum"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/projectservice"
	"github.com/starford/taskmark/internal/testutil"
)

func testServer(t *testing.T) (*Server, *projectservice.Service) {
	t.Helper()
	projects, _, db := testutil.TestProjects(t)
	return New(projects, calendar.NewService(projects, db)), projects
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// called directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_projects":       srv.listProjects,
		"read_project":        srv.readProject,
		"parse_project":       srv.parseProject,
		"toggle_task":         srv.toggleTask,
		"append_tasks":        srv.appendTasks,
		"agenda":              srv.agenda,
		"search_projects":     srv.searchProjects,
		"get_markup_contract": srv.getMarkupContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListProjects(t *testing.T) {
	srv, projects := testServer(t)
	if got := resultText(callTool(t, srv, "list_projects", nil)); got != "no projects" {
		t.Errorf("empty list = %q", got)
	}
	_, _ = projects.Create(context.Background(), "Launch", "", "")

	got := resultText(callTool(t, srv, "list_projects", map[string]interface{}{}))
	if got != "launch.md\tLaunch\t0/4" {
		t.Errorf("list = %q", got)
	}
}

func TestReadProject(t *testing.T) {
	srv, projects := testServer(t)
	d, _ := projects.Create(context.Background(), "Launch", "", "")

	text := resultText(callTool(t, srv, "read_project", map[string]interface{}{"path": "launch.md"}))
	if !strings.HasPrefix(text, "checksum: "+d.Checksum+"\n\n# Launch\n") {
		t.Errorf("read result = %q", text)
	}

	r := callTool(t, srv, "read_project", map[string]interface{}{"path": "nope.md"})
	if !r.IsError || resultText(r) != "not found: nope.md" {
		t.Errorf("missing project = %q", resultText(r))
	}

	for _, tool := range []string{"read_project", "parse_project"} {
		r = callTool(t, srv, tool, map[string]interface{}{"path": "../escape.md"})
		if !r.IsError {
			t.Fatalf("%s: expected error", tool)
		}
		if text := resultText(r); strings.HasPrefix(text, "not found") || !strings.Contains(text, "outside data directory") {
			t.Errorf("%s error = %q", tool, text)
		}
	}
}

func TestToggleAndAppend(t *testing.T) {
	srv, projects := testServer(t)
	ctx := context.Background()
	d, _ := projects.Create(ctx, "Launch", "", "")

	r := callTool(t, srv, "toggle_task", map[string]interface{}{
		"path": "launch.md", "line": 4, "checksum": d.Checksum,
	})
	if r.IsError {
		t.Fatalf("toggle: %s", resultText(r))
	}
	if !strings.HasPrefix(resultText(r), "toggled line 4: 1/4 completed") {
		t.Errorf("toggle result = %q", resultText(r))
	}

	// The original checksum is stale after the toggle.
	r = callTool(t, srv, "toggle_task", map[string]interface{}{
		"path": "launch.md", "line": 4, "checksum": d.Checksum,
	})
	if !r.IsError {
		t.Error("expected conflict for stale checksum")
	}

	r = callTool(t, srv, "append_tasks", map[string]interface{}{
		"path": "launch.md", "text": "- [ ] Ship it",
	})
	if got := resultText(r); got != "appended to launch.md: 5 tasks" {
		t.Errorf("append result = %q", got)
	}
	got, _ := projects.Get(ctx, "launch.md")
	if !strings.HasSuffix(got.Content, "\n- [ ] Ship it") {
		t.Errorf("content = %q", got.Content)
	}
	if got.Checksum != checksum.Sum([]byte(got.Content)) {
		t.Error("checksum does not match content")
	}
}

func TestParseProject(t *testing.T) {
	srv, projects := testServer(t)
	_, _ = projects.Create(context.Background(), "Launch", "", "")

	text := resultText(callTool(t, srv, "parse_project", map[string]interface{}{"path": "launch.md"}))
	for _, want := range []string{`"checksum"`, `"nodes"`, `"tasks": 4`} {
		if !strings.Contains(text, want) {
			t.Errorf("parse result missing %s: %s", want, text)
		}
	}
}

func TestAgenda(t *testing.T) {
	srv, projects := testServer(t)
	ctx := context.Background()
	d, _ := projects.Create(ctx, "Launch", "", "")

	tomorrow := calendar.StartOfDay(time.Now()).AddDate(0, 0, 1)
	line := calendar.FormatEventLine("Rehearsal", tomorrow, false, "")
	if _, err := projects.AppendGenerated(ctx, d.Path, line); err != nil {
		t.Fatal(err)
	}

	text := resultText(callTool(t, srv, "agenda", map[string]interface{}{"days": 3}))
	want := tomorrow.Format(markup.DateLayout) + "\tRehearsal\tlaunch.md"
	if text != want {
		t.Errorf("agenda = %q, want %q", text, want)
	}

	text = resultText(callTool(t, srv, "agenda", map[string]interface{}{"days": 1}))
	if text != "nothing scheduled" {
		t.Errorf("agenda today = %q", text)
	}
}

func TestSearchProjects(t *testing.T) {
	srv, projects := testServer(t)
	ctx := context.Background()
	d, _ := projects.Create(ctx, "Groceries", "", "")
	_, _ = projects.AppendGenerated(ctx, d.Path, "- [ ] oat milk")

	text := resultText(callTool(t, srv, "search_projects", map[string]interface{}{"query": "oat"}))
	if !strings.Contains(text, `"groceries.md"`) {
		t.Errorf("search = %q", text)
	}
}

func TestMarkupContract(t *testing.T) {
	srv, _ := testServer(t)
	if got := resultText(callTool(t, srv, "get_markup_contract", nil)); got != MarkupContract {
		t.Error("contract tool returned unexpected text")
	}
	contents, err := srv.readMarkupResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != MarkupURI {
		t.Errorf("resource contents = %+v", contents[0])
	}

	// The contract itself is valid markup with tasks in it.
	var tasks int
	for _, n := range markup.Parse(MarkupContract) {
		if n.IsTask() {
			tasks++
		}
	}
	if tasks == 0 {
		t.Error("contract example has no tasks")
	}
}
