package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskmark/internal/analytics"
	"github.com/starford/taskmark/internal/calendar"
	"github.com/starford/taskmark/internal/generator"
	"github.com/starford/taskmark/internal/models"
	"github.com/starford/taskmark/internal/projectservice"
	"github.com/starford/taskmark/internal/testutil"
	"github.com/starford/taskmark/internal/timer"
)

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Enabled() bool { return g.err != generator.ErrDisabled }

func (g stubGenerator) Generate(context.Context, string) (string, error) {
	return g.text, g.err
}

// testEnv sets up a temp data directory, SQLite DB, services and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvWith(t, authToken, stubGenerator{err: generator.ErrDisabled}, nil)
}

func testEnvWith(t *testing.T, authToken string, gen Generator, sseHandler http.Handler) http.Handler {
	t.Helper()
	projects, _, db := testutil.TestProjects(t)
	deps := Deps{
		Projects:  projects,
		Calendar:  calendar.NewService(projects, db),
		Analytics: analytics.NewService(projects, db),
		Timer:     timer.NewService(db, timer.DefaultDurations),
		Generator: gen,
		ShareTTL:  time.Hour,
	}
	r := chi.NewRouter()
	r.Mount("/api", NewRouter(deps, authToken != "", authToken, sseHandler))
	r.Mount("/shared", NewPublicRouter(deps))
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createProject(t *testing.T, h http.Handler, name string) projectservice.Detail {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/projects", map[string]string{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var d projectservice.Detail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	return d
}

func TestCreateAndGetProject(t *testing.T) {
	router := testEnv(t, "")
	created := createProject(t, router, "Website Redesign")
	if created.Path != "website-redesign.md" {
		t.Fatalf("path = %q", created.Path)
	}

	w := do(t, router, http.MethodGet, "/api/projects/website-redesign.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if etag := w.Header().Get("ETag"); etag != `"`+created.Checksum+`"` {
		t.Errorf("ETag = %q", etag)
	}
	var d projectservice.Detail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Name != "Website Redesign" {
		t.Errorf("name = %q", d.Name)
	}
	if d.Counts.Tasks != 4 || d.Counts.Completed != 0 {
		t.Errorf("counts = %+v", d.Counts)
	}
}

func TestCreateDuplicate(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "dup")
	w := do(t, router, http.MethodPost, "/api/projects", map[string]string{"name": "dup"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestCreateProject_Invalid(t *testing.T) {
	router := testEnv(t, "")
	for _, body := range []map[string]string{
		{"name": ""},
		{"name": "ok", "color": "blue"},
	} {
		w := do(t, router, http.MethodPost, "/api/projects", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("create %v = %d, want 400", body, w.Code)
		}
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	router := testEnv(t, "")
	created := createProject(t, router, "lock")

	body := map[string]string{"content": "# lock\n- [ ] v2"}
	w := do(t, router, http.MethodPut, "/api/projects/lock.md", body, "If-Match", `"`+created.Checksum+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPut, "/api/projects/lock.md", body, "If-Match", created.Checksum)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPut, "/api/projects/lock.md", body)
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestToggleLine(t *testing.T) {
	router := testEnv(t, "")
	created := createProject(t, router, "Launch")

	w := do(t, router, http.MethodPost, "/api/projects/launch.md/lines",
		map[string]any{"op": "toggle", "line": 4}, "If-Match", created.Checksum)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle = %d, body = %s", w.Code, w.Body.String())
	}
	var d projectservice.Detail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Counts.Completed != 1 {
		t.Errorf("completed = %d, want 1", d.Counts.Completed)
	}
	if !strings.Contains(d.Content, "- [x] First task for Launch") {
		t.Errorf("content = %q", d.Content)
	}

	// The old checksum no longer describes the line layout.
	w = do(t, router, http.MethodPost, "/api/projects/launch.md/lines",
		map[string]any{"op": "toggle", "line": 4}, "If-Match", created.Checksum)
	if w.Code != http.StatusConflict {
		t.Errorf("stale toggle = %d, want 409", w.Code)
	}
}

func TestMutateLine_Invalid(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "bad")
	for _, body := range []map[string]any{
		{"op": "explode", "line": 4},
		{"op": "toggle", "line": 0},
		{"op": "toggle", "line": 999},
	} {
		w := do(t, router, http.MethodPost, "/api/projects/bad.md/lines", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("mutate %v = %d, want 400", body, w.Code)
		}
	}
}

func TestProjectPathEscaped(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "escaped")
	w := do(t, router, http.MethodGet, "/api/projects/escaped%2Emd", nil)
	if w.Code != http.StatusOK {
		t.Errorf("escaped get = %d, want 200", w.Code)
	}
}

func TestUpdateMeta_Renames(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "Old Name")

	w := do(t, router, http.MethodPatch, "/api/projects/old-name.md/meta",
		map[string]string{"name": "New Name", "color": "#ef4444"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d, body = %s", w.Code, w.Body.String())
	}
	var p models.Project
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if p.Path != "new-name.md" || p.Color != "#ef4444" {
		t.Errorf("project = %+v", p)
	}
	if w := do(t, router, http.MethodGet, "/api/projects/old-name.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("old path = %d, want 404", w.Code)
	}
}

func TestDeleteProject(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "bye")

	if w := do(t, router, http.MethodDelete, "/api/projects/bye.md", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/api/projects/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestListProjects(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "a")
	createProject(t, router, "b")

	w := do(t, router, http.MethodGet, "/api/projects", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp ProjectListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Projects) != 2 {
		t.Errorf("len(projects) = %d, want 2", len(resp.Projects))
	}
}

func TestExport(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "Q3 Plan")

	w := do(t, router, http.MethodGet, "/api/projects/q3-plan.md/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="q3-plan.md"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), "# Q3 Plan\n") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestShareLifecycle(t *testing.T) {
	router := testEnv(t, "secret")
	auth := []string{"Authorization", "Bearer secret"}

	w := do(t, router, http.MethodPost, "/api/projects", map[string]string{"name": "pub"}, auth...)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	w = do(t, router, http.MethodPost, "/api/projects/pub.md/share", nil, auth...)
	if w.Code != http.StatusCreated {
		t.Fatalf("share = %d, body = %s", w.Code, w.Body.String())
	}
	var link models.SharedLink
	_ = json.Unmarshal(w.Body.Bytes(), &link)
	if len(link.Token) != 64 || link.ExpiresAt == nil {
		t.Fatalf("link = %+v", link)
	}

	// Shared reads need no token.
	w = do(t, router, http.MethodGet, "/shared/"+link.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("open shared = %d", w.Code)
	}

	if w := do(t, router, http.MethodDelete, "/api/projects/pub.md/share", nil, auth...); w.Code != http.StatusNoContent {
		t.Fatalf("unshare = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/shared/"+link.Token, nil); w.Code != http.StatusNotFound {
		t.Errorf("revoked link = %d, want 404", w.Code)
	}
}

func TestShare_NoExpiry(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "forever")
	w := do(t, router, http.MethodPost, "/api/projects/forever.md/share", map[string]string{"ttl": "0"})
	if w.Code != http.StatusCreated {
		t.Fatalf("share = %d", w.Code)
	}
	var link models.SharedLink
	_ = json.Unmarshal(w.Body.Bytes(), &link)
	if link.ExpiresAt != nil {
		t.Errorf("expires_at = %v, want none", link.ExpiresAt)
	}
	w = do(t, router, http.MethodPost, "/api/projects/forever.md/share", map[string]string{"ttl": "soon"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad ttl = %d, want 400", w.Code)
	}
}

func TestGenerate(t *testing.T) {
	gen := stubGenerator{text: "- [ ] Draft outline\n- [ ] Review"}
	router := testEnvWith(t, "", gen, nil)
	createProject(t, router, "gen")

	w := do(t, router, http.MethodPost, "/api/projects/gen.md/generate", map[string]string{"prompt": "plan"})
	if w.Code != http.StatusOK {
		t.Fatalf("generate = %d, body = %s", w.Code, w.Body.String())
	}
	var d projectservice.Detail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if !strings.HasSuffix(d.Content, "- [ ] Draft outline\n- [ ] Review") {
		t.Errorf("content = %q", d.Content)
	}
	if d.Counts.Tasks != 6 {
		t.Errorf("tasks = %d, want 6", d.Counts.Tasks)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{generator.ErrDisabled, http.StatusServiceUnavailable},
		{generator.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("wrapped: %w", generator.ErrInvalidKey), http.StatusBadGateway},
		{generator.ErrEmptyResponse, http.StatusBadGateway},
		{fmt.Errorf("generator: request failed: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{fmt.Errorf("generator: request failed: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		router := testEnvWith(t, "", stubGenerator{err: tt.err}, nil)
		createProject(t, router, "gen")
		w := do(t, router, http.MethodPost, "/api/projects/gen.md/generate", map[string]string{"prompt": "plan"})
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "find")
	_ = do(t, router, http.MethodPut, "/api/projects/find.md", map[string]string{"content": "# find\n- uniquetoken here"})

	w := do(t, router, http.MethodGet, "/api/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Errorf("search results = %d, want 1", len(resp.Results))
	}

	if w := do(t, router, http.MethodGet, "/api/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestParseEndpoint(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/api/parse", map[string]string{"content": "# T\n- [x] a\n- b"})
	if w.Code != http.StatusOK {
		t.Fatalf("parse = %d", w.Code)
	}
	var resp ParseResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Nodes) != 3 || resp.Counts.Tasks != 2 || resp.Counts.Completed != 1 {
		t.Errorf("parse = %+v", resp)
	}
}

func TestCalendarScheduleAndRange(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "cal")

	w := do(t, router, http.MethodPost, "/api/calendar/tasks", map[string]string{
		"project": "cal.md", "title": "Dentist", "date": "2024-03-15", "time": "14:30",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("schedule = %d, body = %s", w.Code, w.Body.String())
	}
	var d projectservice.Detail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if !strings.HasSuffix(d.Content, "- Dentist @2024-03-15 14:30") {
		t.Errorf("content = %q", d.Content)
	}

	w = do(t, router, http.MethodPost, "/api/events", map[string]any{
		"title": "Standup", "event_date": time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create event = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/api/calendar?from=2024-03-15&to=2024-03-15", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("calendar = %d", w.Code)
	}
	var resp CalendarResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %+v", resp.Entries)
	}
	if resp.Entries[0].Title != "Standup" || resp.Entries[1].Title != "Dentist" {
		t.Errorf("order = %q, %q", resp.Entries[0].Title, resp.Entries[1].Title)
	}

	w = do(t, router, http.MethodGet, "/api/calendar/month?month=2024-03", nil)
	var days []calendar.Day
	_ = json.Unmarshal(w.Body.Bytes(), &days)
	if len(days) != 31 || len(days[14].Entries) != 2 {
		t.Errorf("month days = %d", len(days))
	}
}

func TestCalendar_BadRange(t *testing.T) {
	router := testEnv(t, "")
	for _, q := range []string{"from=yesterday", "from=2024-03-10&to=2024-03-01", "to=03/01/2024"} {
		if w := do(t, router, http.MethodGet, "/api/calendar?"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", q, w.Code)
		}
	}
	if w := do(t, router, http.MethodGet, "/api/calendar/month?month=March", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad month = %d, want 400", w.Code)
	}
}

func TestScheduleTask_RejectsStructuralTitle(t *testing.T) {
	router := testEnv(t, "")
	d := createProject(t, router, "cal")

	for _, title := range []string{"Dentist\n- [x] injected", "Dentist @2024-04-01"} {
		w := do(t, router, http.MethodPost, "/api/calendar/tasks", map[string]string{
			"project": "cal.md", "title": title, "date": "2024-03-15",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("title %q = %d, want 400", title, w.Code)
		}
	}

	w := do(t, router, http.MethodGet, "/api/projects/cal.md", nil)
	var got projectservice.Detail
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Content != d.Content {
		t.Errorf("document changed: %q", got.Content)
	}
}

func TestEventsCRUD(t *testing.T) {
	router := testEnv(t, "")
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	w := do(t, router, http.MethodPost, "/api/events", map[string]any{"title": "Review", "event_date": at})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var e models.Event
	_ = json.Unmarshal(w.Body.Bytes(), &e)
	if e.Color != models.DefaultColor {
		t.Errorf("color = %q", e.Color)
	}

	w = do(t, router, http.MethodPut, "/api/events/"+e.ID, map[string]any{"title": "Review v2", "event_date": at, "color": "#22c55e"})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodGet, "/api/events/"+e.ID, nil)
	_ = json.Unmarshal(w.Body.Bytes(), &e)
	if e.Title != "Review v2" {
		t.Errorf("title = %q", e.Title)
	}

	if w := do(t, router, http.MethodPost, "/api/events", map[string]any{"title": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid create = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/api/events/"+e.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/api/events/"+e.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", w.Code)
	}
}

func TestTimerFlow(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/api/timer/sessions", map[string]string{"session_type": "work"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start = %d, body = %s", w.Code, w.Body.String())
	}
	var s models.TimerSession
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	if s.Duration != 1500 {
		t.Errorf("duration = %d, want 1500", s.Duration)
	}

	w = do(t, router, http.MethodPost, "/api/timer/sessions/"+s.ID+"/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete = %d", w.Code)
	}
	var f FinishedSessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &f)
	if !f.Session.Completed || f.Next != models.SessionBreak {
		t.Errorf("finished = %+v next = %s", f.Session, f.Next)
	}

	if w := do(t, router, http.MethodPost, "/api/timer/sessions/"+s.ID+"/abandon", nil); w.Code != http.StatusConflict {
		t.Errorf("finish twice = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodGet, "/api/timer/next?current=break", nil)
	var next NextSessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &next)
	if next.Next != models.SessionWork || next.Duration != 1500 {
		t.Errorf("next = %+v", next)
	}

	if w := do(t, router, http.MethodGet, "/api/timer/next?current=nap", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad current = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/api/timer/sessions", map[string]string{"session_type": "nap"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad type = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodGet, "/api/timer/sessions", nil)
	var sessions []models.TimerSession
	_ = json.Unmarshal(w.Body.Bytes(), &sessions)
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

func TestAnalytics(t *testing.T) {
	router := testEnv(t, "")
	createProject(t, router, "stats")
	_ = do(t, router, http.MethodPut, "/api/projects/stats.md", map[string]string{"content": "- [x] a\n- [ ] b"})

	w := do(t, router, http.MethodGet, "/api/analytics?project=stats.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("analytics = %d", w.Code)
	}
	var report AnalyticsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if report.Tasks.Total != 2 || report.Tasks.Completed != 1 {
		t.Errorf("tasks = %+v", report.Tasks)
	}
	if w := do(t, router, http.MethodGet, "/api/analytics?project=ghost.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown project = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := testEnv(t, "secret123")
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer secret123", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer wrong", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.header == "" {
				w = do(t, router, http.MethodGet, "/api/projects", nil)
			} else {
				w = do(t, router, http.MethodGet, "/api/projects", nil, "Authorization", tt.header)
			}
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if w := do(t, testEnv(t, ""), http.MethodGet, "/api/projects", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func blockingSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEStream_AuthProtected(t *testing.T) {
	router := testEnvWith(t, "secret", stubGenerator{}, blockingSSE())
	if w := do(t, router, http.MethodGet, "/api/events/stream", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEStream_QueryToken(t *testing.T) {
	router := testEnvWith(t, "tok", stubGenerator{}, blockingSSE())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events/stream?token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", w.Code)
	}

	if w := do(t, router, http.MethodGet, "/api/events/stream?token=nope", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE with wrong query token = %d, want 401", w.Code)
	}
}

func TestSSEStream_ValidToken(t *testing.T) {
	router := testEnvWith(t, "tok", stubGenerator{}, blockingSSE())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events/stream", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("SSE with valid token = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}
