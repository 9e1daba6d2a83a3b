package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskmark/internal/analytics"
	"github.com/starford/taskmark/internal/calendar"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/projectservice"
	"github.com/starford/taskmark/internal/timer"
)

// Generator drafts task lists from a prompt.
type Generator interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Deps are the services behind the API.
type Deps struct {
	Projects  *projectservice.Service
	Calendar  *calendar.Service
	Analytics *analytics.Service
	Timer     *timer.Service
	Generator Generator
	// ShareTTL is the lifetime of new shared links; zero means no expiry.
	ShareTTL time.Duration
}

// Handler holds API route handlers.
type Handler struct {
	projects  *projectservice.Service
	calendar  *calendar.Service
	analytics *analytics.Service
	timer     *timer.Service
	generator Generator
	shareTTL  time.Duration
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		projects:  deps.Projects,
		calendar:  deps.Calendar,
		analytics: deps.Analytics,
		timer:     deps.Timer,
		generator: deps.Generator,
		shareTTL:  deps.ShareTTL,
	}
}

// Project sub-resources addressed as /projects/{path}/{action}.
const (
	actionNone     = ""
	actionMeta     = "meta"
	actionLines    = "lines"
	actionExport   = "export"
	actionShare    = "share"
	actionGenerate = "generate"
)

// projectRoute splits the wildcard after /projects/ into a document path
// and an optional action. Document paths always end in ".md", so anything
// after that is the action. Encoded slashes (work%2Fplan.md) are accepted.
func projectRoute(r *http.Request) (path, action string) {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	if strings.HasSuffix(raw, ".md") {
		return raw, actionNone
	}
	i := strings.LastIndex(raw, "/")
	if i < 0 {
		return raw, actionNone
	}
	return raw[:i], raw[i+1:]
}

func ifMatch(r *http.Request) string {
	// Strip surrounding quotes if present (standard ETag format).
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects with task counters
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	ProjectListResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		writeError(w, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: projects})
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create a project from the default template
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project to create"
//	@Success		201		{object}	projectservice.Detail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.projects.Create(r.Context(), req.Name, req.Description, req.Color)
	if err != nil {
		writeError(w, "create project", err, slog.String("name", req.Name))
		return
	}
	w.Header().Set("ETag", strconv.Quote(d.Checksum))
	writeJSON(w, http.StatusCreated, d)
}

// ProjectGet handles GET /api/projects/{path} and GET
// /api/projects/{path}/export.
//
//	@Summary		Get a project with its parsed lines, or download it
//	@Tags			projects
//	@Produce		json
//	@Param			path	path		string	true	"Project path"
//	@Success		200		{object}	projectservice.Detail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{path} [get]
func (h *Handler) ProjectGet(w http.ResponseWriter, r *http.Request) {
	path, action := projectRoute(r)
	switch action {
	case actionNone:
		d, err := h.projects.Get(r.Context(), path)
		if err != nil {
			writeError(w, "get project", err, slog.String("path", path))
			return
		}
		w.Header().Set("ETag", strconv.Quote(d.Checksum))
		writeJSON(w, http.StatusOK, d)
	case actionExport:
		h.export(w, r, path)
	default:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	}
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, path string) {
	name, data, err := h.projects.Export(r.Context(), path)
	if err != nil {
		writeError(w, "export project", err, slog.String("path", path))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// UpdateProject handles PUT /api/projects/{path}.
//
//	@Summary		Replace a project document with optimistic concurrency
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string					true	"Project path"
//	@Param			If-Match	header		string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateContentRequest	true	"New content"
//	@Success		200			{object}	projectservice.Detail
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{path} [put]
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	path, action := projectRoute(r)
	if action != actionNone {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req UpdateContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.projects.UpdateContent(r.Context(), path, []byte(req.Content), ifMatch(r))
	if err != nil {
		writeError(w, "update project", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", strconv.Quote(d.Checksum))
	writeJSON(w, http.StatusOK, d)
}

// ProjectPatch handles PATCH /api/projects/{path}/meta.
//
//	@Summary		Change name, description and color; a new name moves the file
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Project path"
//	@Param			body	body		UpdateMetaRequest	true	"Metadata"
//	@Success		200		{object}	models.Project
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{path}/meta [patch]
func (h *Handler) ProjectPatch(w http.ResponseWriter, r *http.Request) {
	path, action := projectRoute(r)
	if action != actionMeta {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req UpdateMetaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.projects.UpdateMeta(r.Context(), path, req.Name, req.Description, req.Color)
	if err != nil {
		writeError(w, "update meta", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ProjectPost handles POST /api/projects/{path}/lines, /share and
// /generate.
//
//	@Summary		Mutate a line, share a project or append generated tasks
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string			true	"Project path"
//	@Param			If-Match	header		string			false	"Checksum the line index refers to"
//	@Param			body		body		MutationRequest	true	"Mutation"
//	@Success		200			{object}	projectservice.Detail
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		502			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{path}/lines [post]
func (h *Handler) ProjectPost(w http.ResponseWriter, r *http.Request) {
	path, action := projectRoute(r)
	switch action {
	case actionLines:
		h.mutate(w, r, path)
	case actionShare:
		h.share(w, r, path)
	case actionGenerate:
		h.generate(w, r, path)
	default:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	}
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, path string) {
	var req MutationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.projects.Mutate(r.Context(), path, ifMatch(r), req.Mutation)
	if err != nil {
		writeError(w, "mutate project", err, slog.String("path", path), slog.String("op", req.Op))
		return
	}
	w.Header().Set("ETag", strconv.Quote(d.Checksum))
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request, path string) {
	ttl := h.shareTTL
	if r.ContentLength != 0 {
		var req ShareRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.TTL != "" {
			ttl, _ = time.ParseDuration(req.TTL)
		}
	}
	link, err := h.projects.Share(r.Context(), path, ttl)
	if err != nil {
		writeError(w, "share project", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, path string) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.projects.Get(r.Context(), path); err != nil {
		writeError(w, "generate tasks", err, slog.String("path", path))
		return
	}
	text, err := h.generator.Generate(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, "generate tasks", err, slog.String("path", path))
		return
	}
	d, err := h.projects.AppendGenerated(r.Context(), path, text)
	if err != nil {
		writeError(w, "append generated tasks", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ProjectDelete handles DELETE /api/projects/{path} and DELETE
// /api/projects/{path}/share.
//
//	@Summary		Delete a project, or revoke its shared links
//	@Tags			projects
//	@Param			path	path	string	true	"Project path"
//	@Success		204		"Deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{path} [delete]
func (h *Handler) ProjectDelete(w http.ResponseWriter, r *http.Request) {
	path, action := projectRoute(r)
	op := "delete project"
	var err error
	switch action {
	case actionNone:
		err = h.projects.Delete(r.Context(), path)
	case actionShare:
		op = "unshare project"
		_, err = h.projects.Unshare(r.Context(), path)
	default:
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if err != nil {
		writeError(w, op, err, slog.String("path", path))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenShared handles GET /shared/{token}. It is served without
// authentication.
//
//	@Summary		Read a shared project
//	@Tags			shared
//	@Produce		json
//	@Param			token	path		string	true	"Share token"
//	@Success		200		{object}	projectservice.Detail
//	@Failure		404		{object}	errResponse
//	@Router			/shared/{token} [get]
func (h *Handler) OpenShared(w http.ResponseWriter, r *http.Request) {
	d, err := h.projects.OpenShared(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, "open shared project", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across projects
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.projects.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Parse handles POST /api/parse.
//
//	@Summary		Parse a document without storing it
//	@Tags			markup
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseRequest	true	"Document"
//	@Success		200		{object}	ParseResponse
//	@Security		BearerAuth
//	@Router			/parse [post]
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	nodes := markup.Parse(req.Content)
	writeJSON(w, http.StatusOK, ParseResponse{Nodes: nodes, Counts: markup.Summarize(nodes)})
}
