// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes taskmark projects to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/calendar"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/projectservice"
)

// MarkupURI identifies the markup contract resource.
const MarkupURI = "taskmark://markup"

// Server wraps the MCP server with taskmark tools.
type Server struct {
	mcp      *server.MCPServer
	projects *projectservice.Service
	calendar *calendar.Service
}

// New creates a new MCP server with all taskmark tools registered.
func New(projects *projectservice.Service, cal *calendar.Service) *Server {
	s := &Server{projects: projects, calendar: cal}

	s.mcp = server.NewMCPServer(
		"taskmark",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all projects with their task and completion counters."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("read_project",
		mcp.WithDescription("Read the raw markdown of a project together with its checksum."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Project path (e.g. launch.md)")),
	), s.readProject)

	s.mcp.AddTool(mcp.NewTool("parse_project",
		mcp.WithDescription("Return the parsed lines of a project: kind, level, title, "+
			"completion, schedule, priority and color per line, plus task counts. "+
			"Line indices are used by toggle_task."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Project path")),
	), s.parseProject)

	s.mcp.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Flip the completion of the task at a line. Pass the checksum "+
			"returned by read_project or parse_project so a changed document is not edited blindly."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Project path")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("Zero-based line index of the task")),
		mcp.WithString("checksum", mcp.Description("Checksum the line index refers to")),
	), s.toggleTask)

	s.mcp.AddTool(mcp.NewTool("append_tasks",
		mcp.WithDescription("Append lines to the end of a project. Text MUST follow the "+
			"taskmark markup; read the contract first via get_markup_contract or the "+
			MarkupURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Project path")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Lines in taskmark markup")),
	), s.appendTasks)

	s.mcp.AddTool(mcp.NewTool("agenda",
		mcp.WithDescription("Scheduled tasks and events for the coming days, starting today."),
		mcp.WithNumber("days", mcp.Description("Number of days to cover (default 7)")),
	), s.agenda)

	s.mcp.AddTool(mcp.NewTool("search_projects",
		mcp.WithDescription("Full-text search through project names and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchProjects)

	s.mcp.AddTool(mcp.NewTool("get_markup_contract",
		mcp.WithDescription("Returns the taskmark line grammar. "+
			"Call this before appending tasks to ensure correct structure."),
	), s.getMarkupContract)

	s.mcp.AddResource(
		mcp.NewResource(MarkupURI, "Task Markup Contract",
			mcp.WithResourceDescription("Line grammar of taskmark project documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkupResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listProjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("no projects"), nil
	}
	lines := make([]string, 0, len(projects))
	for _, p := range projects {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%d/%d", p.Path, p.Name, p.CompletedCount, p.TaskCount))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.projects.Get(ctx, path)
	if err != nil {
		return projectError(path, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("checksum: %s\n\n%s", d.Checksum, d.Content)), nil
}

func (s *Server) parseProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.projects.Get(ctx, path)
	if err != nil {
		return projectError(path, err), nil
	}
	return jsonResult(map[string]any{
		"checksum": d.Checksum,
		"nodes":    d.Nodes,
		"counts":   d.Counts,
	}), nil
}

func (s *Server) toggleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.projects.Mutate(ctx, path, req.GetString("checksum", ""),
		projectservice.Mutation{Op: projectservice.OpToggle, Line: line})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("toggled line %d: %d/%d completed, checksum %s",
		line, d.Counts.Completed, d.Counts.Tasks, d.Checksum)), nil
}

func (s *Server) appendTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.projects.AppendGenerated(ctx, path, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("appended to %s: %d tasks", path, d.Counts.Tasks)), nil
}

func (s *Server) agenda(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", 7)
	if days < 1 {
		days = 1
	}
	entries, err := s.calendar.Upcoming(ctx, days)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("nothing scheduled"), nil
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		when := e.Date.Format(markup.DateLayout)
		if e.HasTime {
			when = e.Date.Format(markup.DateTimeLayout)
		}
		where := e.ProjectPath
		if e.Kind == calendar.KindEvent {
			where = "event"
		}
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", when, e.Title, where))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) searchProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.projects.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getMarkupContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkupContract), nil
}

func (s *Server) readMarkupResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      MarkupURI,
			MIMEType: "text/markdown",
			Text:     MarkupContract,
		},
	}, nil
}

// projectError keeps "not found" for missing projects and reports any
// other failure as is.
func projectError(path string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	}
	return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err))
}
