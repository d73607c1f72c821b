package engine

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"portfolio/framework"
)

type Config[C interface{}] struct {
	AppContext C
	Handlers   []framework.RouteHandler[C]

	RenderPage func(r *http.Request, w http.ResponseWriter, component templ.Component) error

	HandleNotFound    func(w http.ResponseWriter, r *http.Request, notFoundContext framework.NotFoundContext)
	HandleServerError func(w http.ResponseWriter, r *http.Request, errorContext framework.ServerErrorContext)
}

type Engine[C interface{}] struct {
	appContext C
	handlers   []framework.RouteHandler[C]

	renderPage func(r *http.Request, w http.ResponseWriter, component templ.Component) error

	notFound    func(w http.ResponseWriter, r *http.Request, notFoundContext framework.NotFoundContext)
	serverError func(w http.ResponseWriter, r *http.Request, errorContext framework.ServerErrorContext)
}

func New[C interface{}](cfg Config[C]) (*Engine[C], error) {
	if cfg.RenderPage == nil {
		return nil, errors.New("render page callback is required")
	}

	notFound := cfg.HandleNotFound
	if notFound == nil {
		notFound = func(w http.ResponseWriter, r *http.Request, _ framework.NotFoundContext) {
			http.NotFound(w, r)
		}
	}

	serverError := cfg.HandleServerError
	if serverError == nil {
		serverError = func(w http.ResponseWriter, _ *http.Request, _ framework.ServerErrorContext) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	return &Engine[C]{
		appContext:  cfg.AppContext,
		handlers:    cfg.Handlers,
		renderPage:  cfg.RenderPage,
		notFound:    notFound,
		serverError: serverError,
	}, nil
}

// Register mounts every route handler on router. Unmatched paths are left to
// the router's NotFound handler.
func (engine *Engine[C]) Register(router chi.Router) {
	for _, handler := range engine.handlers {
		handler.Register(router, engine)
	}
}

func (engine *Engine[C]) AppContext() C {
	return engine.appContext
}

func (engine *Engine[C]) RenderPage(
	r *http.Request,
	w http.ResponseWriter,
	component templ.Component,
) error {
	return engine.renderPage(r, w, component)
}

func (engine *Engine[C]) RespondNotFound(
	w http.ResponseWriter,
	r *http.Request,
	notFoundContext framework.NotFoundContext,
) {
	engine.notFound(w, r, notFoundContext)
}

func (engine *Engine[C]) RespondServerError(
	w http.ResponseWriter,
	r *http.Request,
	errorContext framework.ServerErrorContext,
) {
	engine.serverError(w, r, errorContext)
}
