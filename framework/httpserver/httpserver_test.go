package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"portfolio/framework"
)

type componentFunc func(ctx context.Context, w io.Writer) error

func (f componentFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

func textComponent(value string) templ.Component {
	return componentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, value)
		return err
	})
}

func wrapComponent(tag string, child templ.Component) templ.Component {
	return componentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "["+tag+"]"); err != nil {
			return err
		}
		if err := child.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "[/"+tag+"]")
		return err
	})
}

func page(
	pattern string,
	load func(context.Context, *struct{}, *http.Request, framework.EmptyParams) (string, error),
) framework.RouteHandler[*struct{}] {
	return framework.PageOnlyRouteHandler[*struct{}, framework.EmptyParams, string]{
		Page: framework.PageModule[*struct{}, framework.EmptyParams, string]{
			Pattern: pattern,
			Load:    load,
			Render:  func(view string) templ.Component { return textComponent(view) },
			Layouts: []framework.LayoutRenderer[string]{
				func(_ string, child templ.Component) templ.Component {
					return wrapComponent("layout", child)
				},
			},
			ErrorMessage: "Failed to load " + pattern,
		},
	}
}

func constant(value string) func(context.Context, *struct{}, *http.Request, framework.EmptyParams) (string, error) {
	return func(context.Context, *struct{}, *http.Request, framework.EmptyParams) (string, error) {
		return value, nil
	}
}

func TestHTTPServerCachePoliciesAndStatic(t *testing.T) {
	t.Parallel()

	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "file.txt"), []byte("asset"), 0o644); err != nil {
		t.Fatalf("write static asset: %v", err)
	}
	if err := os.Mkdir(filepath.Join(staticDir, "css"), 0o755); err != nil {
		t.Fatalf("create static subdir: %v", err)
	}

	handler, err := New(Config[*struct{}]{
		AppContext: &struct{}{},
		Handlers: []framework.RouteHandler[*struct{}]{
			page("/projects", constant("page")),
		},
		Static: StaticMount{
			URLPrefix: "assets",
			Dir:       staticDir,
		},
		CachePolicies: CachePolicies{
			HTML:   "html-cache",
			Static: "static-cache",
			Health: "health-cache",
			Error:  "error-cache",
		},
		NotFoundPage: func(framework.NotFoundContext) templ.Component {
			return textComponent("not-found")
		},
	})
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	recPage := httptest.NewRecorder()
	handler.ServeHTTP(recPage, httptest.NewRequest(http.MethodGet, "/projects", nil))
	if recPage.Code != http.StatusOK {
		t.Fatalf("page status: expected %d, got %d", http.StatusOK, recPage.Code)
	}
	if got := recPage.Header().Get("Cache-Control"); got != "html-cache" {
		t.Fatalf("page cache policy: expected %q, got %q", "html-cache", got)
	}
	if got := recPage.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("page content type: got %q", got)
	}
	if body := strings.TrimSpace(recPage.Body.String()); body != "[layout]page[/layout]" {
		t.Fatalf("page body: expected layout-wrapped response, got %q", body)
	}

	recStatic := httptest.NewRecorder()
	handler.ServeHTTP(recStatic, httptest.NewRequest(http.MethodGet, "/assets/file.txt", nil))
	if recStatic.Code != http.StatusOK {
		t.Fatalf("static status: expected %d, got %d", http.StatusOK, recStatic.Code)
	}
	if got := recStatic.Header().Get("Cache-Control"); got != "static-cache" {
		t.Fatalf("static cache policy: expected %q, got %q", "static-cache", got)
	}
	if body := recStatic.Body.String(); body != "asset" {
		t.Fatalf("static body: expected asset, got %q", body)
	}

	recMissingAsset := httptest.NewRecorder()
	handler.ServeHTTP(recMissingAsset, httptest.NewRequest(http.MethodGet, "/assets/nope.css", nil))
	if recMissingAsset.Code != http.StatusNotFound {
		t.Fatalf("missing asset status: expected %d, got %d", http.StatusNotFound, recMissingAsset.Code)
	}
	if got := recMissingAsset.Header().Get("Cache-Control"); got != "error-cache" {
		t.Fatalf("missing asset cache policy: expected %q, got %q", "error-cache", got)
	}
	if body := recMissingAsset.Body.String(); body != "not-found" {
		t.Fatalf("missing asset body: expected not-found page, got %q", body)
	}

	recDir := httptest.NewRecorder()
	handler.ServeHTTP(recDir, httptest.NewRequest(http.MethodGet, "/assets/css/", nil))
	if recDir.Code != http.StatusNotFound {
		t.Fatalf("directory listing status: expected %d, got %d", http.StatusNotFound, recDir.Code)
	}

	recHealth := httptest.NewRecorder()
	handler.ServeHTTP(recHealth, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if recHealth.Code != http.StatusOK {
		t.Fatalf("health status: expected %d, got %d", http.StatusOK, recHealth.Code)
	}
	if got := recHealth.Header().Get("Cache-Control"); got != "health-cache" {
		t.Fatalf("health cache policy: expected %q, got %q", "health-cache", got)
	}
	if body := strings.TrimSpace(recHealth.Body.String()); body != `{"status":"ok"}` {
		t.Fatalf("health body: expected status json, got %q", body)
	}
}

func TestHTTPServerNotFoundForUnmatchedAndWrongMethod(t *testing.T) {
	t.Parallel()

	ctxs := make([]framework.NotFoundContext, 0, 2)

	handler, err := New(Config[*struct{}]{
		AppContext: &struct{}{},
		Handlers: []framework.RouteHandler[*struct{}]{
			page("/projects", constant("page")),
		},
		NotFoundPage: func(notFoundContext framework.NotFoundContext) templ.Component {
			ctxs = append(ctxs, notFoundContext)
			return textComponent("missing")
		},
		CachePolicies: CachePolicies{
			Error: "error-cache",
		},
	})
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	recUnmatched := httptest.NewRecorder()
	handler.ServeHTTP(recUnmatched, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	if recUnmatched.Code != http.StatusNotFound {
		t.Fatalf("unmatched status: expected %d, got %d", http.StatusNotFound, recUnmatched.Code)
	}
	if got := recUnmatched.Header().Get("Cache-Control"); got != "error-cache" {
		t.Fatalf("unmatched cache policy: expected %q, got %q", "error-cache", got)
	}

	recWrongMethod := httptest.NewRecorder()
	handler.ServeHTTP(recWrongMethod, httptest.NewRequest(http.MethodDelete, "/projects", nil))
	if recWrongMethod.Code != http.StatusNotFound {
		t.Fatalf("wrong method status: expected %d, got %d", http.StatusNotFound, recWrongMethod.Code)
	}

	if len(ctxs) != 2 {
		t.Fatalf("expected 2 not-found contexts, got %d", len(ctxs))
	}
	if ctxs[0].Source != framework.NotFoundSourceUnmatchedRoute {
		t.Fatalf("expected source %q, got %q", framework.NotFoundSourceUnmatchedRoute, ctxs[0].Source)
	}
	if ctxs[0].RequestPath != "/does-not-exist" {
		t.Fatalf("expected request path /does-not-exist, got %q", ctxs[0].RequestPath)
	}
}

func TestHTTPServerLoadErrorRendersErrorPage(t *testing.T) {
	t.Parallel()

	errUpstream := errors.New("upstream refused")
	var logged []framework.ServerErrorContext

	handler, err := New(Config[*struct{}]{
		AppContext: &struct{}{},
		Handlers: []framework.RouteHandler[*struct{}]{
			page("/skills", func(context.Context, *struct{}, *http.Request, framework.EmptyParams) (string, error) {
				return "", errUpstream
			}),
		},
		ServerErrorPage: func(errorContext framework.ServerErrorContext) templ.Component {
			return textComponent("error:" + errorContext.Message)
		},
		LogServerError: func(_ *http.Request, errorContext framework.ServerErrorContext) {
			logged = append(logged, errorContext)
		},
	})
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/skills", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: expected %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if body := rec.Body.String(); body != "error:Failed to load /skills" {
		t.Fatalf("body: expected error page with route message, got %q", body)
	}
	if len(logged) != 1 || !errors.Is(logged[0].Err, errUpstream) {
		t.Fatalf("expected one logged upstream error, got %#v", logged)
	}
}

func TestHTTPServerRenderFailureLeavesNoPartialPage(t *testing.T) {
	t.Parallel()

	handler, err := New(Config[*struct{}]{
		AppContext: &struct{}{},
		Handlers: []framework.RouteHandler[*struct{}]{
			framework.PageOnlyRouteHandler[*struct{}, framework.EmptyParams, string]{
				Page: framework.PageModule[*struct{}, framework.EmptyParams, string]{
					Pattern: "/broken",
					Load:    constant("x"),
					Render: func(string) templ.Component {
						return componentFunc(func(_ context.Context, w io.Writer) error {
							_, _ = io.WriteString(w, "half")
							return errors.New("template exploded")
						})
					},
					ErrorMessage: "broken",
				},
			},
		},
		ServerErrorPage: func(errorContext framework.ServerErrorContext) templ.Component {
			return textComponent("error:" + string(errorContext.Source))
		},
	})
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: expected %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if body := rec.Body.String(); body != "error:render" {
		t.Fatalf("body: expected only the error page, got %q", body)
	}
}

func TestHTTPServerRecoversPanics(t *testing.T) {
	t.Parallel()

	var logged framework.ServerErrorContext

	handler, err := New(Config[*struct{}]{
		AppContext: &struct{}{},
		Handlers: []framework.RouteHandler[*struct{}]{
			page("/boom", func(context.Context, *struct{}, *http.Request, framework.EmptyParams) (string, error) {
				panic("kaboom")
			}),
		},
		ServerErrorPage: func(errorContext framework.ServerErrorContext) templ.Component {
			return textComponent(errorContext.Message)
		},
		LogServerError: func(_ *http.Request, errorContext framework.ServerErrorContext) {
			logged = errorContext
		},
	})
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: expected %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if body := rec.Body.String(); body != "Something went wrong!" {
		t.Fatalf("body: expected panic message, got %q", body)
	}
	if logged.Source != framework.ServerErrorSourcePanic {
		t.Fatalf("expected panic source, got %q", logged.Source)
	}
	if !strings.Contains(logged.Err.Error(), "kaboom") {
		t.Fatalf("expected panic value in error, got %v", logged.Err)
	}
	if logged.Stack == "" {
		t.Fatal("expected stack trace for panic")
	}
}

func TestHTTPServerRunsMiddlewareInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	step := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	reject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("block") != "" {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	loads := 0
	handler, err := New(Config[*struct{}]{
		AppContext: &struct{}{},
		Handlers: []framework.RouteHandler[*struct{}]{
			page("/", func(context.Context, *struct{}, *http.Request, framework.EmptyParams) (string, error) {
				loads++
				return "home", nil
			}),
		},
		Middleware: []func(http.Handler) http.Handler{step("first"), step("second"), reject},
	})
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "first,second" {
		t.Fatalf("expected ordered middleware, got %v", order)
	}

	recBlocked := httptest.NewRecorder()
	handler.ServeHTTP(recBlocked, httptest.NewRequest(http.MethodGet, "/?block=1", nil))
	if recBlocked.Code != http.StatusTooManyRequests {
		t.Fatalf("expected short-circuit status, got %d", recBlocked.Code)
	}
	if loads != 1 {
		t.Fatalf("expected blocked request to skip the handler, loads=%d", loads)
	}
}

func TestHTTPServerMountsMetricsHandler(t *testing.T) {
	t.Parallel()

	handler, err := New(Config[*struct{}]{
		AppContext:  &struct{}{},
		MetricsPath: "metrics",
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "requests_total 1")
		}),
	})
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: expected %d, got %d", http.StatusOK, rec.Code)
	}
	if body := rec.Body.String(); body != "requests_total 1" {
		t.Fatalf("metrics body: got %q", body)
	}
}
