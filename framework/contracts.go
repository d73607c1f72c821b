package framework

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

type EmptyParams struct{}

type IDParams struct {
	ID string
}

type ParamsParser[P interface{}] func(r *http.Request) (P, bool)

type PageLoader[C interface{}, P interface{}, VM interface{}] func(
	ctx context.Context,
	appCtx C,
	r *http.Request,
	params P,
) (VM, error)

type PageRenderer[VM interface{}] func(view VM) templ.Component

type LayoutRenderer[VM interface{}] func(view VM, child templ.Component) templ.Component

// PageModule binds one method+pattern to a load/render pair. ErrorMessage is
// the human readable text shown on the error page when Load fails.
type PageModule[C interface{}, P interface{}, VM interface{}] struct {
	Pattern      string
	Method       string
	ParseParams  ParamsParser[P]
	Load         PageLoader[C, P, VM]
	Render       PageRenderer[VM]
	Layouts      []LayoutRenderer[VM]
	ErrorMessage string
}

type RuntimeContext[C interface{}] interface {
	AppContext() C
	RenderPage(r *http.Request, w http.ResponseWriter, component templ.Component) error
	RespondNotFound(w http.ResponseWriter, r *http.Request, notFoundContext NotFoundContext)
	RespondServerError(w http.ResponseWriter, r *http.Request, errorContext ServerErrorContext)
}

type NotFoundSource string

const (
	NotFoundSourceParams         NotFoundSource = "params"
	NotFoundSourceUnmatchedRoute NotFoundSource = "unmatched_route"
)

type NotFoundContext struct {
	RequestPath         string
	MatchedRoutePattern string
	Source              NotFoundSource
}

type ServerErrorSource string

const (
	ServerErrorSourceLoad   ServerErrorSource = "load"
	ServerErrorSourceRender ServerErrorSource = "render"
	ServerErrorSourcePanic  ServerErrorSource = "panic"
)

// ServerErrorContext describes a failed request. Message is safe to show to
// the visitor; Err and Stack are for logs and development pages only.
type ServerErrorContext struct {
	RequestPath         string
	MatchedRoutePattern string
	Source              ServerErrorSource
	Message             string
	Err                 error
	Stack               string
}

type RouteHandler[C interface{}] interface {
	Register(router chi.Router, runtime RuntimeContext[C])
}

type PageOnlyRouteHandler[C interface{}, P interface{}, VM interface{}] struct {
	Page PageModule[C, P, VM]
}

func (h PageOnlyRouteHandler[C, P, VM]) Register(router chi.Router, runtime RuntimeContext[C]) {
	method := strings.ToUpper(strings.TrimSpace(h.Page.Method))
	if method == "" {
		method = http.MethodGet
	}

	router.MethodFunc(method, h.Page.Pattern, func(w http.ResponseWriter, r *http.Request) {
		servePageModule(runtime, w, r, h.Page)
	})
}

func applyLayouts[VM interface{}](
	layouts []LayoutRenderer[VM],
	view VM,
	child templ.Component,
) templ.Component {
	wrapped := child
	for idx := len(layouts) - 1; idx >= 0; idx-- {
		wrapped = layouts[idx](view, wrapped)
	}
	return wrapped
}

func servePageModule[C interface{}, P interface{}, VM interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	module PageModule[C, P, VM],
) {
	var params P
	if module.ParseParams != nil {
		parsed, ok := module.ParseParams(r)
		if !ok {
			runtime.RespondNotFound(w, r, NotFoundContext{
				RequestPath:         r.URL.Path,
				MatchedRoutePattern: module.Pattern,
				Source:              NotFoundSourceParams,
			})
			return
		}
		params = parsed
	}

	view, err := module.Load(r.Context(), runtime.AppContext(), r, params)
	if err != nil {
		runtime.RespondServerError(w, r, ServerErrorContext{
			RequestPath:         r.URL.Path,
			MatchedRoutePattern: module.Pattern,
			Source:              ServerErrorSourceLoad,
			Message:             module.ErrorMessage,
			Err:                 fmt.Errorf("load route %q: %w", module.Pattern, err),
		})
		return
	}

	component := applyLayouts(module.Layouts, view, module.Render(view))
	if err := runtime.RenderPage(r, w, component); err != nil {
		runtime.RespondServerError(w, r, ServerErrorContext{
			RequestPath:         r.URL.Path,
			MatchedRoutePattern: module.Pattern,
			Source:              ServerErrorSourceRender,
			Message:             module.ErrorMessage,
			Err:                 fmt.Errorf("render route %q: %w", module.Pattern, err),
		})
	}
}

// URLParamID extracts a non-empty {id} path parameter.
func URLParamID(r *http.Request) (IDParams, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return IDParams{}, false
	}
	return IDParams{ID: id}, true
}
