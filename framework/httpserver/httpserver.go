package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"runtime/debug"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"portfolio/framework"
	"portfolio/framework/engine"
)

const defaultCacheControlPolicy = "public, max-age=3600, s-maxage=3600"
const defaultNoStorePolicy = "no-store"
const defaultHealthPath = "/healthz"
const defaultStaticPrefix = "/static/"
const panicMessage = "Something went wrong!"

type StaticMount struct {
	URLPrefix string
	Dir       string
}

type CachePolicies struct {
	HTML   string
	Static string
	Health string
	Error  string
}

func DefaultCachePolicies() CachePolicies {
	return CachePolicies{
		HTML:   defaultCacheControlPolicy,
		Static: defaultCacheControlPolicy,
		Health: defaultNoStorePolicy,
		Error:  defaultNoStorePolicy,
	}
}

type Config[C interface{}] struct {
	AppContext C
	Handlers   []framework.RouteHandler[C]

	// Middleware runs in order for every request, before routing.
	Middleware []func(http.Handler) http.Handler

	Static StaticMount

	CachePolicies CachePolicies

	NotFoundPage    func(notFoundContext framework.NotFoundContext) templ.Component
	ServerErrorPage func(errorContext framework.ServerErrorContext) templ.Component
	LogServerError  func(r *http.Request, errorContext framework.ServerErrorContext)

	HealthPath     string
	MetricsPath    string
	MetricsHandler http.Handler
}

type server[C interface{}] struct {
	cachePolicies   CachePolicies
	notFoundPage    func(notFoundContext framework.NotFoundContext) templ.Component
	serverErrorPage func(errorContext framework.ServerErrorContext) templ.Component
	logServerErr    func(r *http.Request, errorContext framework.ServerErrorContext)
	staticDir       http.Dir
	staticPrefix    string
}

func New[C interface{}](cfg Config[C]) (http.Handler, error) {
	srv := &server[C]{
		cachePolicies:   withDefaultPolicies(cfg.CachePolicies),
		notFoundPage:    cfg.NotFoundPage,
		serverErrorPage: cfg.ServerErrorPage,
		logServerErr:    cfg.LogServerError,
	}

	routeEngine, err := engine.New(engine.Config[C]{
		AppContext:        cfg.AppContext,
		Handlers:          cfg.Handlers,
		RenderPage:        srv.renderPage,
		HandleNotFound:    srv.handleNotFound,
		HandleServerError: srv.handleServerError,
	})
	if err != nil {
		return nil, fmt.Errorf("create route engine: %w", err)
	}

	router := chi.NewRouter()
	router.Use(cfg.Middleware...)
	router.Use(srv.recoverer)

	router.Get(normalizePath(cfg.HealthPath, defaultHealthPath), srv.handleHealth)
	if cfg.MetricsHandler != nil && strings.TrimSpace(cfg.MetricsPath) != "" {
		router.Method(http.MethodGet, normalizePath(cfg.MetricsPath, ""), cfg.MetricsHandler)
	}

	if strings.TrimSpace(cfg.Static.Dir) != "" {
		srv.staticDir = http.Dir(cfg.Static.Dir)
		srv.staticPrefix = normalizeStaticPrefix(cfg.Static.URLPrefix)
		router.Handle(srv.staticPrefix+"*", withCachePolicy(
			srv.cachePolicies.Static,
			http.StripPrefix(srv.staticPrefix, http.HandlerFunc(srv.handleStatic)),
		))
	}

	routeEngine.Register(router)

	unmatched := func(w http.ResponseWriter, r *http.Request) {
		srv.handleNotFound(w, r, framework.NotFoundContext{
			RequestPath: r.URL.Path,
			Source:      framework.NotFoundSourceUnmatchedRoute,
		})
	}
	router.NotFound(unmatched)
	router.MethodNotAllowed(unmatched)

	return router, nil
}

func (s *server[C]) renderPage(r *http.Request, w http.ResponseWriter, component templ.Component) error {
	policy := s.cachePolicies.HTML
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		policy = s.cachePolicies.Error
	}
	return s.renderPageWithStatus(r, w, component, 0, policy)
}

// renderPageWithStatus buffers the component so a failed render never leaves
// a half written page behind.
func (s *server[C]) renderPageWithStatus(
	r *http.Request,
	w http.ResponseWriter,
	component templ.Component,
	statusCode int,
	cachePolicy string,
) error {
	var body bytes.Buffer
	if err := component.Render(r.Context(), &body); err != nil {
		return err
	}

	setCachePolicy(w, cachePolicy)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if statusCode > 0 {
		w.WriteHeader(statusCode)
	}
	_, err := body.WriteTo(w)
	return err
}

func (s *server[C]) handleNotFound(
	w http.ResponseWriter,
	r *http.Request,
	notFoundContext framework.NotFoundContext,
) {
	if s.notFoundPage == nil {
		setCachePolicy(w, s.cachePolicies.Error)
		http.NotFound(w, r)
		return
	}

	component := s.notFoundPage(notFoundContext)
	if component == nil {
		setCachePolicy(w, s.cachePolicies.Error)
		http.NotFound(w, r)
		return
	}
	if err := s.renderPageWithStatus(r, w, component, http.StatusNotFound, s.cachePolicies.Error); err != nil {
		s.handleServerError(w, r, framework.ServerErrorContext{
			RequestPath: r.URL.Path,
			Source:      framework.ServerErrorSourceRender,
			Message:     http.StatusText(http.StatusInternalServerError),
			Err:         fmt.Errorf("render not found page: %w", err),
		})
	}
}

func (s *server[C]) handleServerError(
	w http.ResponseWriter,
	r *http.Request,
	errorContext framework.ServerErrorContext,
) {
	if s.logServerErr != nil {
		s.logServerErr(r, errorContext)
	}

	if s.serverErrorPage != nil {
		if component := s.serverErrorPage(errorContext); component != nil {
			err := s.renderPageWithStatus(r, w, component, http.StatusInternalServerError, s.cachePolicies.Error)
			if err == nil {
				return
			}
			if s.logServerErr != nil {
				s.logServerErr(r, framework.ServerErrorContext{
					RequestPath: r.URL.Path,
					Source:      framework.ServerErrorSourceRender,
					Err:         fmt.Errorf("render error page: %w", err),
				})
			}
		}
	}

	setCachePolicy(w, s.cachePolicies.Error)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *server[C]) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			err, ok := rvr.(error)
			if !ok {
				err = fmt.Errorf("%v", rvr)
			}
			s.handleServerError(w, r, framework.ServerErrorContext{
				RequestPath:         r.URL.Path,
				MatchedRoutePattern: routePattern(r),
				Source:              framework.ServerErrorSourcePanic,
				Message:             panicMessage,
				Err:                 fmt.Errorf("panic: %w", err),
				Stack:               string(debug.Stack()),
			})
		}()

		next.ServeHTTP(w, r)
	})
}

func routePattern(r *http.Request) string {
	routeContext := chi.RouteContext(r.Context())
	if routeContext == nil {
		return ""
	}
	return routeContext.RoutePattern()
}

func (s *server[C]) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	file, err := s.staticDir.Open(name)
	if err != nil {
		s.handleNotFound(w, r, framework.NotFoundContext{
			RequestPath: s.staticPrefix + strings.TrimPrefix(name, "/"),
			Source:      framework.NotFoundSourceUnmatchedRoute,
		})
		return
	}
	info, statErr := file.Stat()
	_ = file.Close()
	if statErr != nil || info.IsDir() {
		s.handleNotFound(w, r, framework.NotFoundContext{
			RequestPath: s.staticPrefix + strings.TrimPrefix(name, "/"),
			Source:      framework.NotFoundSourceUnmatchedRoute,
		})
		return
	}

	http.FileServer(s.staticDir).ServeHTTP(w, r)
}

func (s *server[C]) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCachePolicy(w, s.cachePolicies.Health)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func normalizeStaticPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return defaultStaticPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func normalizePath(value string, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	return value
}

func withDefaultPolicies(policies CachePolicies) CachePolicies {
	defaults := DefaultCachePolicies()
	if strings.TrimSpace(policies.HTML) == "" {
		policies.HTML = defaults.HTML
	}
	if strings.TrimSpace(policies.Static) == "" {
		policies.Static = defaults.Static
	}
	if strings.TrimSpace(policies.Health) == "" {
		policies.Health = defaults.Health
	}
	if strings.TrimSpace(policies.Error) == "" {
		policies.Error = defaults.Error
	}
	return policies
}

func setCachePolicy(w http.ResponseWriter, policy string) {
	policy = strings.TrimSpace(policy)
	if policy == "" {
		return
	}
	w.Header().Set("Cache-Control", policy)
}

func withCachePolicy(policy string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCachePolicy(w, policy)
		next.ServeHTTP(w, r)
	})
}
