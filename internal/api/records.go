package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskmark/internal/calendar"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/models"
	"github.com/starford/taskmark/internal/projectservice"
)

const monthLayout = "2006-01"

// Calendar handles GET /api/calendar.
//
//	@Summary		Scheduled tasks and events in a date range
//	@Tags			calendar
//	@Produce		json
//	@Param			from	query		string	false	"First day (YYYY-MM-DD), defaults to the start of this month"
//	@Param			to		query		string	false	"Last day inclusive (YYYY-MM-DD), defaults to the end of this month"
//	@Success		200		{object}	CalendarResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar [get]
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	days := calendar.MonthDays(time.Now())
	from, to := days[0], days[len(days)-1].AddDate(0, 0, 1)

	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		d, err := time.ParseInLocation(markup.DateLayout, v, time.Local)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("from: must be YYYY-MM-DD"))
			return
		}
		from = d
	}
	if v := q.Get("to"); v != "" {
		d, err := time.ParseInLocation(markup.DateLayout, v, time.Local)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("to: must be YYYY-MM-DD"))
			return
		}
		to = d.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		writeJSON(w, http.StatusBadRequest, errorBody("from must not be after to"))
		return
	}

	entries, err := h.calendar.Range(r.Context(), from, to)
	if err != nil {
		writeError(w, "calendar range", err)
		return
	}
	writeJSON(w, http.StatusOK, CalendarResponse{From: from, To: to, Entries: entries})
}

// CalendarMonth handles GET /api/calendar/month.
//
//	@Summary		Agenda grouped by day for one month
//	@Tags			calendar
//	@Produce		json
//	@Param			month	query		string	false	"Month (YYYY-MM), defaults to the current month"
//	@Success		200		{array}		calendar.Day
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/month [get]
func (h *Handler) CalendarMonth(w http.ResponseWriter, r *http.Request) {
	month := time.Now()
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := time.ParseInLocation(monthLayout, v, time.Local)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("month: must be YYYY-MM"))
			return
		}
		month = m
	}
	days, err := h.calendar.Month(r.Context(), month)
	if err != nil {
		writeError(w, "calendar month", err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// ScheduleTask handles POST /api/calendar/tasks. The task is appended to
// the end of the target project.
//
//	@Summary		Add a scheduled task to a project
//	@Tags			calendar
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ScheduleTaskRequest	true	"Task"
//	@Success		201		{object}	projectservice.Detail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/tasks [post]
func (h *Handler) ScheduleTask(w http.ResponseWriter, r *http.Request) {
	var req ScheduleTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	raw := req.Date
	if req.Time != "" {
		raw += " " + req.Time
	}
	at, hasTime, ok := markup.ParseSchedule(raw, time.Local)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("date: invalid schedule"))
		return
	}
	line := calendar.FormatEventLine(req.Title, at, hasTime, req.Color)
	d, err := h.projects.Mutate(r.Context(), req.Project, "", projectservice.Mutation{Op: projectservice.OpAppend, Text: line})
	if err != nil {
		writeError(w, "schedule task", err, slog.String("path", req.Project))
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ListEvents handles GET /api/events.
//
//	@Summary		List standalone events
//	@Tags			events
//	@Produce		json
//	@Success		200	{array}	models.Event
//	@Security		BearerAuth
//	@Router			/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.calendar.ListEvents(r.Context(), time.Time{}, time.Time{})
	if err != nil {
		writeError(w, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /api/events.
//
//	@Summary		Create an event
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EventRequest	true	"Event"
//	@Success		201		{object}	models.Event
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events [post]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.calendar.CreateEvent(r.Context(), req)
	if err != nil {
		writeError(w, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// GetEvent handles GET /api/events/{id}.
//
//	@Summary		Get an event
//	@Tags			events
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	models.Event
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := h.calendar.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, "get event", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateEvent handles PUT /api/events/{id}.
//
//	@Summary		Update an event
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Event ID"
//	@Param			body	body		EventRequest	true	"Event"
//	@Success		200		{object}	models.Event
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id} [put]
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.calendar.UpdateEvent(r.Context(), id, req)
	if err != nil {
		writeError(w, "update event", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteEvent handles DELETE /api/events/{id}.
//
//	@Summary		Delete an event
//	@Tags			events
//	@Param			id	path	string	true	"Event ID"
//	@Success		204	"Deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id} [delete]
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.calendar.DeleteEvent(r.Context(), id); err != nil {
		writeError(w, "delete event", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /api/timer/sessions.
//
//	@Summary		Recent timer sessions
//	@Tags			timer
//	@Produce		json
//	@Param			limit	query	int	false	"Max sessions (default 50)"
//	@Success		200		{array}	models.TimerSession
//	@Security		BearerAuth
//	@Router			/timer/sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	sessions, err := h.timer.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, "list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// StartSession handles POST /api/timer/sessions.
//
//	@Summary		Start a timer session
//	@Tags			timer
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StartSessionRequest	true	"Session"
//	@Success		201		{object}	models.TimerSession
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timer/sessions [post]
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.timer.Start(r.Context(), req.Type, req.TaskID)
	if err != nil {
		writeError(w, "start session", err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// CompleteSession handles POST /api/timer/sessions/{id}/complete.
//
//	@Summary		Complete a running session
//	@Tags			timer
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	FinishedSessionResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timer/sessions/{id}/complete [post]
func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, err := h.timer.Complete(r.Context(), id)
	if err != nil {
		writeError(w, "complete session", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// AbandonSession handles POST /api/timer/sessions/{id}/abandon.
//
//	@Summary		Stop a running session without completing it
//	@Tags			timer
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	FinishedSessionResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timer/sessions/{id}/abandon [post]
func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, err := h.timer.Abandon(r.Context(), id)
	if err != nil {
		writeError(w, "abandon session", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// NextSession handles GET /api/timer/next.
//
//	@Summary		Which session should follow the current one
//	@Tags			timer
//	@Produce		json
//	@Param			current	query		string	true	"Current session type"
//	@Success		200		{object}	NextSessionResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timer/next [get]
func (h *Handler) NextSession(w http.ResponseWriter, r *http.Request) {
	current := models.SessionType(r.URL.Query().Get("current"))
	next, err := h.timer.NextAfter(r.Context(), current)
	if err != nil {
		writeError(w, "next session", err)
		return
	}
	writeJSON(w, http.StatusOK, NextSessionResponse{
		Next:     next,
		Duration: int(h.timer.Durations().For(next).Seconds()),
	})
}

// Analytics handles GET /api/analytics.
//
//	@Summary		Task and focus statistics
//	@Tags			analytics
//	@Produce		json
//	@Param			project	query		string	false	"Limit task statistics to one project path"
//	@Success		200		{object}	AnalyticsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analytics [get]
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")
	if project != "" {
		if _, err := h.projects.Get(r.Context(), project); err != nil {
			writeError(w, "analytics", err, slog.String("path", project))
			return
		}
	}
	report, err := h.analytics.Report(r.Context(), project)
	if err != nil {
		writeError(w, "analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
