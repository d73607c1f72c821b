package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"portfolio/internal/apiclient"
	"portfolio/internal/config"
	"portfolio/internal/metrics"
	"portfolio/internal/portfolio"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

var upstreamFixtures = map[string]string{
	"/portfolio/api/summary/": `{
		"personal_info": {"id": 1, "name": "Ada Lovelace", "title": "Engineer", "bio": "Writes **programs**.", "email": "ada@example.com"},
		"featured_projects": [{"id": 3, "title": "Difference Engine", "description": "Tables by machine", "status": "completed"}],
		"featured_skills": [{"id": 7, "name": "Mathematics", "category": "technical", "proficiency_level": 5}],
		"recent_experience": [{"id": 2, "company": "Analytical Society", "position": "Collaborator", "start_date": "1842-01-01", "is_current": true}]
	}`,
	"/portfolio/api/projects/": `{"count": 2, "next": null, "previous": null, "results": [
		{"id": 3, "title": "Difference Engine", "description": "Tables by machine", "status": "completed"},
		{"id": 4, "title": "Analytical Engine", "description": "General purpose", "status": "in_progress"}
	]}`,
	"/portfolio/api/projects/3/": `{"id": 3, "title": "Difference Engine", "description": "Tables by machine",
		"detailed_description": "## Overview\n\nComputes polynomial tables.", "status": "completed",
		"github_url": "https://github.com/example/engine", "technologies": [{"id": 7, "name": "Brass"}]}`,
	"/portfolio/api/experience/": `[{"id": 2, "company": "Analytical Society", "position": "Collaborator", "description": "Notes on the engine", "start_date": "1842-01-01", "end_date": "1843-09-01"}]`,
	"/portfolio/api/skills/": `{"results": [
		{"id": 7, "name": "Mathematics", "category": "technical", "proficiency_level": 5},
		{"id": 8, "name": "Translation", "category": "language", "proficiency_level": 4}
	]}`,
	"/portfolio/api/personal-info/": `{"results": [{"id": 1, "name": "Ada Lovelace", "title": "Engineer", "email": "ada@example.com", "location": "London"}]}`,
	"/portfolio/api/contact/":       `{"id": 11}`,
}

type upstreamCall struct {
	method string
	path   string
	query  string
	body   string
}

type fakeUpstream struct {
	mu       sync.Mutex
	calls    []upstreamCall
	fixtures map[string]string
	status   int
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, upstreamCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body)})
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"detail":"upstream exploded"}`)
		return
	}

	payload, ok := f.fixtures[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not found."}`)
		return
	}
	if r.Method == http.MethodPost {
		w.WriteHeader(http.StatusCreated)
	}
	_, _ = io.WriteString(w, payload)
}

func (f *fakeUpstream) recorded() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.calls...)
}

type testSite struct {
	handler  http.Handler
	upstream *fakeUpstream
	logs     *observer.ObservedLogs
}

func newTestSite(t *testing.T, mutate func(cfg *config.Config)) *testSite {
	t.Helper()

	upstream := &fakeUpstream{fixtures: upstreamFixtures}
	server := httptest.NewServer(upstream)

	cfg := config.Defaults()
	cfg.APIBaseURL = server.URL
	cfg.StaticDir = "static"
	cfg.Environment = config.EnvironmentTest
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := apiclient.New(apiclient.Options{BaseURL: cfg.APIBaseURL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	t.Cleanup(func() {
		client.CloseIdleConnections()
		server.Close()
	})

	core, logs := observer.New(zap.DebugLevel)
	handler, err := NewHandler(cfg, portfolio.NewService(client), zap.New(core), metrics.New())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	return &testSite{handler: handler, upstream: upstream, logs: logs}
}

func (s *testSite) do(method string, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testSite) get(path string) *httptest.ResponseRecorder {
	return s.do(http.MethodGet, path, nil, "")
}

func requireBody(t *testing.T, body io.Reader) string {
	t.Helper()

	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(content)
}

func TestHandlerPageRoutesRenderHTML(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, nil)

	cases := []struct {
		path        string
		mustContain []string
	}{
		{path: "/", mustContain: []string{"<title>Portfolio</title>", "Ada Lovelace", "<strong>programs</strong>", `href="/projects/3"`, "Jan 1842 - Present"}},
		{path: "/projects", mustContain: []string{"<title>Projects | Portfolio</title>", "Difference Engine", "Analytical Engine"}},
		{path: "/projects/3", mustContain: []string{"<title>Difference Engine | Portfolio</title>", `id="overview"`, `href="https://github.com/example/engine"`, "Brass"}},
		{path: "/experience", mustContain: []string{"<title>Experience | Portfolio</title>", "Analytical Society", "Jan 1842 - Sep 1843"}},
		{path: "/skills", mustContain: []string{"<title>Skills | Portfolio</title>", "Technical Skills", "Languages", "Translation"}},
		{path: "/contact", mustContain: []string{"<title>Contact | Portfolio</title>", `href="mailto:ada@example.com"`, "London", `name="subject"`}},
	}

	for _, tc := range cases {
		rec := site.get(tc.path)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s status: expected %d, got %d", tc.path, http.StatusOK, rec.Code)
		}
		if contentType := rec.Header().Get("Content-Type"); !strings.Contains(contentType, "text/html") {
			t.Fatalf("%s content-type: expected html, got %q", tc.path, contentType)
		}
		if got := rec.Header().Get("Cache-Control"); got != cacheControlPages {
			t.Fatalf("%s cache-control: expected %q, got %q", tc.path, cacheControlPages, got)
		}

		body := requireBody(t, rec.Body)
		for _, fragment := range tc.mustContain {
			if !strings.Contains(body, fragment) {
				t.Fatalf("%s body missing %q", tc.path, fragment)
			}
		}
	}
}

func TestHandlerEachRouteMakesOneUpstreamCall(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/":           "/portfolio/api/summary/",
		"/projects":   "/portfolio/api/projects/",
		"/projects/3": "/portfolio/api/projects/3/",
		"/experience": "/portfolio/api/experience/",
		"/skills":     "/portfolio/api/skills/",
		"/contact":    "/portfolio/api/personal-info/",
	}

	for path, upstreamPath := range cases {
		site := newTestSite(t, nil)
		_ = site.get(path)

		calls := site.upstream.recorded()
		if len(calls) != 1 {
			t.Fatalf("%s: expected one upstream call, got %d", path, len(calls))
		}
		if calls[0].path != upstreamPath || calls[0].method != http.MethodGet {
			t.Fatalf("%s: expected GET %s, got %s %s", path, upstreamPath, calls[0].method, calls[0].path)
		}
	}
}

func TestHandlerForwardsListFilters(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, nil)

	rec := site.get("/projects?status=completed&featured=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	_ = site.get("/skills?category=technical")

	calls := site.upstream.recorded()
	if calls[0].query != "featured=true&status=completed" {
		t.Fatalf("projects query: got %q", calls[0].query)
	}
	if calls[1].query != "category=technical" {
		t.Fatalf("skills query: got %q", calls[1].query)
	}
}

func TestHandlerUpstreamFailuresRenderRouteMessage(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, nil)
	site.upstream.status = http.StatusInternalServerError

	cases := []struct {
		method  string
		path    string
		message string
	}{
		{method: http.MethodGet, path: "/", message: "Failed to load portfolio data"},
		{method: http.MethodGet, path: "/projects", message: "Failed to load projects"},
		{method: http.MethodGet, path: "/projects/3", message: "Failed to load project details"},
		{method: http.MethodGet, path: "/experience", message: "Failed to load experience data"},
		{method: http.MethodGet, path: "/skills", message: "Failed to load skills data"},
		{method: http.MethodGet, path: "/contact", message: "Failed to load contact information"},
		{method: http.MethodPost, path: "/contact", message: "Failed to send message"},
	}

	for _, tc := range cases {
		rec := site.do(tc.method, tc.path, strings.NewReader("name=a"), "application/x-www-form-urlencoded")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s status: expected 500, got %d", tc.method, tc.path, rec.Code)
		}
		if got := rec.Header().Get("Cache-Control"); got != cacheControlNoStore {
			t.Fatalf("%s %s cache-control: expected no-store, got %q", tc.method, tc.path, got)
		}
		body := requireBody(t, rec.Body)
		if !strings.Contains(body, tc.message) {
			t.Fatalf("%s %s body missing %q", tc.method, tc.path, tc.message)
		}
		if strings.Contains(body, "upstream exploded") {
			t.Fatalf("%s %s leaked upstream detail outside development", tc.method, tc.path)
		}
	}

	entries := site.logs.FilterMessage("request failed").All()
	if len(entries) != len(cases) {
		t.Fatalf("expected %d error log entries, got %d", len(cases), len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["upstream_status"] != int64(http.StatusInternalServerError) {
		t.Fatalf("expected upstream status in log, got %v", fields["upstream_status"])
	}
	if fields["upstream_body"] != `{"detail":"upstream exploded"}` {
		t.Fatalf("expected upstream body in log, got %v", fields["upstream_body"])
	}
	if fields["route"] != "/" || fields["message"] != "Failed to load portfolio data" {
		t.Fatalf("unexpected route/message fields: %v", fields)
	}
}

func TestHandlerMissingProjectIsAServerError(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, nil)

	rec := site.get("/projects/999")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for upstream 404, got %d", rec.Code)
	}
	if body := requireBody(t, rec.Body); !strings.Contains(body, "Failed to load project details") {
		t.Fatalf("missing project details message")
	}
}

func TestHandlerUnreachableUpstream(t *testing.T) {
	t.Parallel()

	closed := httptest.NewServer(http.NotFoundHandler())
	deadURL := closed.URL
	closed.Close()

	site := newTestSite(t, func(cfg *config.Config) {
		cfg.APIBaseURL = deadURL
	})

	rec := site.get("/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := requireBody(t, rec.Body); !strings.Contains(body, "Failed to load portfolio data") {
		t.Fatalf("missing portfolio failure message")
	}

	entries := site.logs.FilterMessage("request failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one error log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["upstream_kind"] != string(apiclient.KindNetwork) {
		t.Fatalf("expected network kind, got %v", fields["upstream_kind"])
	}
	if _, ok := fields["upstream_status"]; ok {
		t.Fatalf("network failures should not log an upstream status")
	}
}

func TestHandlerErrorDetailOnlyInDevelopment(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, func(cfg *config.Config) {
		cfg.Environment = config.EnvironmentDevelopment
	})
	site.upstream.status = http.StatusBadGateway

	rec := site.get("/skills")
	body := requireBody(t, rec.Body)
	if !strings.Contains(body, "Failed to load skills data") {
		t.Fatalf("missing route message")
	}
	if !strings.Contains(body, "upstream responded 502") {
		t.Fatalf("expected error detail in development, got %s", body)
	}
	if !strings.Contains(body, "upstream exploded") {
		t.Fatalf("expected upstream body in development detail")
	}
}

func TestHandlerContactSubmission(t *testing.T) {
	t.Parallel()

	form := url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"subject": {"Engines"},
		"message": {"Let us talk"},
		"website": {"spam"},
	}
	cases := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "url-encoded", contentType: "application/x-www-form-urlencoded", body: form.Encode()},
		{name: "json", contentType: "application/json", body: `{"name":"Ada","email":"ada@example.com","subject":"Engines","message":"Let us talk","website":"spam"}`},
	}

	for _, tc := range cases {
		site := newTestSite(t, nil)
		rec := site.do(http.MethodPost, "/contact", strings.NewReader(tc.body), tc.contentType)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.name, rec.Code)
		}
		if got := rec.Header().Get("Cache-Control"); got != cacheControlNoStore {
			t.Fatalf("%s: expected no-store on POST response, got %q", tc.name, got)
		}
		body := requireBody(t, rec.Body)
		if !strings.Contains(body, "<title>Message Sent | Portfolio</title>") {
			t.Fatalf("%s: missing success title", tc.name)
		}
		if !strings.Contains(body, "Thank you for your message! I will get back to you soon.") {
			t.Fatalf("%s: missing thank-you message", tc.name)
		}

		calls := site.upstream.recorded()
		if len(calls) != 1 || calls[0].method != http.MethodPost || calls[0].path != "/portfolio/api/contact/" {
			t.Fatalf("%s: unexpected upstream calls %+v", tc.name, calls)
		}
		want := `{"name":"Ada","email":"ada@example.com","subject":"Engines","message":"Let us talk"}`
		if calls[0].body != want {
			t.Fatalf("%s: forwarded body\nwant %s\n got %s", tc.name, want, calls[0].body)
		}
	}
}

func TestHandlerMalformedContactBody(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, nil)

	rec := site.do(http.MethodPost, "/contact", strings.NewReader(`{"name":`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if calls := site.upstream.recorded(); len(calls) != 0 {
		t.Fatalf("malformed body must not reach upstream, got %d calls", len(calls))
	}
}

func TestHandlerNotFoundStaticAndHealth(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, nil)

	missing := site.get("/does-not-exist")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("unknown route: expected 404, got %d", missing.Code)
	}
	body := requireBody(t, missing.Body)
	if !strings.Contains(body, "Page Not Found") || !strings.Contains(body, "The page you are looking for does not exist.") {
		t.Fatalf("unknown route: missing not found copy")
	}
	if calls := site.upstream.recorded(); len(calls) != 0 {
		t.Fatalf("unknown route must not call upstream")
	}

	wrongMethod := site.do(http.MethodDelete, "/projects", nil, "")
	if wrongMethod.Code != http.StatusNotFound {
		t.Fatalf("wrong method: expected 404, got %d", wrongMethod.Code)
	}

	css := site.get("/static/css/site.css")
	if css.Code != http.StatusOK {
		t.Fatalf("stylesheet: expected 200, got %d", css.Code)
	}
	if got := css.Header().Get("Cache-Control"); got != cacheControlAssets {
		t.Fatalf("stylesheet cache-control: got %q", got)
	}

	if rec := site.get("/static/css/missing.css"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing asset: expected 404, got %d", rec.Code)
	}

	health := site.get("/healthz")
	if health.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", health.Code)
	}
	if got := strings.TrimSpace(requireBody(t, health.Body)); got != `{"status":"ok"}` {
		t.Fatalf("healthz body: got %q", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, nil)

	_ = site.get("/projects")
	rec := site.get("/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	body := requireBody(t, rec.Body)
	if !strings.Contains(body, `portfolio_http_requests_total{method="GET",route="/projects",status="200"} 1`) {
		t.Fatalf("metrics missing request counter, got:\n%s", body)
	}
}

func TestHandlerSecurityHeadersAndRequestID(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, nil)

	rec := site.get("/")
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "style-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net https://fonts.googleapis.com") {
		t.Fatalf("unexpected CSP %q", csp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing permissive CORS header")
	}
}

func TestHandlerRateLimitsPerClient(t *testing.T) {
	t.Parallel()
	site := newTestSite(t, func(cfg *config.Config) {
		cfg.RateLimit.Requests = 3
		cfg.RateLimit.Window = time.Hour
	})

	for i := 0; i < 3; i++ {
		if rec := site.get("/healthz"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := site.get("/")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the budget is spent, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
	if calls := site.upstream.recorded(); len(calls) != 0 {
		t.Fatalf("rate limited request must not reach upstream")
	}
}
