package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events/stream inside the auth
// group.
func NewRouter(deps Deps, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Projects. Paths may contain slashes; sub-resources follow the ".md".
	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)
	r.Get("/projects/*", h.ProjectGet)
	r.Put("/projects/*", h.UpdateProject)
	r.Patch("/projects/*", h.ProjectPatch)
	r.Post("/projects/*", h.ProjectPost)
	r.Delete("/projects/*", h.ProjectDelete)

	r.Get("/search", h.Search)
	r.Post("/parse", h.Parse)

	// Calendar.
	r.Get("/calendar", h.Calendar)
	r.Get("/calendar/month", h.CalendarMonth)
	r.Post("/calendar/tasks", h.ScheduleTask)

	// SSE endpoint (protected by same auth middleware). Registered before
	// /events/{id} so "stream" is not taken for an event ID.
	if sseHandler != nil {
		r.Get("/events/stream", sseHandler.ServeHTTP)
	}

	// Standalone events.
	r.Get("/events", h.ListEvents)
	r.Post("/events", h.CreateEvent)
	r.Get("/events/{id}", h.GetEvent)
	r.Put("/events/{id}", h.UpdateEvent)
	r.Delete("/events/{id}", h.DeleteEvent)

	// Pomodoro timer.
	r.Get("/timer/sessions", h.ListSessions)
	r.Post("/timer/sessions", h.StartSession)
	r.Post("/timer/sessions/{id}/complete", h.CompleteSession)
	r.Post("/timer/sessions/{id}/abandon", h.AbandonSession)
	r.Get("/timer/next", h.NextSession)

	r.Get("/analytics", h.Analytics)

	return r
}

// NewPublicRouter serves shared projects without authentication.
func NewPublicRouter(deps Deps) chi.Router {
	h := NewHandler(deps)
	r := chi.NewRouter()
	r.Get("/{token}", h.OpenShared)
	return r
}
