package web

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"portfolio/framework"
	"portfolio/internal/apiclient"
	"portfolio/internal/middleware"
	"portfolio/internal/web/appcore"
	"portfolio/internal/web/components"
)

const (
	notFoundTitle   = "Page Not Found"
	notFoundMessage = "The page you are looking for does not exist."
	errorTitle      = "Error"
	panicTitle      = "Server Error"
	fallbackMessage = "Something went wrong!"

	maxLoggedBodyBytes = 2048
)

// errorMapper turns failed requests into one log entry plus a rendered error
// page. Error text reaches the page only in development.
type errorMapper struct {
	logger      *zap.Logger
	appCtx      *appcore.Context
	development bool
}

func (m errorMapper) logServerError(r *http.Request, errorContext framework.ServerErrorContext) {
	fields := []zap.Field{
		zap.String("message", errorContext.Message),
		zap.String("path", errorContext.RequestPath),
		zap.String("route", errorContext.MatchedRoutePattern),
		zap.String("source", string(errorContext.Source)),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Error(errorContext.Err),
	}

	if remoteErr, ok := apiclient.AsRemoteCallError(errorContext.Err); ok {
		fields = append(fields,
			zap.String("upstream_method", remoteErr.Method),
			zap.String("upstream_path", remoteErr.Path),
			zap.String("upstream_kind", string(remoteErr.Kind)),
		)
		if remoteErr.HasResponse() {
			fields = append(fields,
				zap.Int("upstream_status", remoteErr.StatusCode),
				zap.ByteString("upstream_body", truncate(remoteErr.Body, maxLoggedBodyBytes)),
			)
		}
	}
	if errorContext.Stack != "" {
		fields = append(fields, zap.String("stack", errorContext.Stack))
	}

	m.logger.Error("request failed", fields...)
}

func (m errorMapper) serverErrorPage(errorContext framework.ServerErrorContext) templ.Component {
	title := errorTitle
	if errorContext.Source == framework.ServerErrorSourcePanic {
		title = panicTitle
	}
	message := errorContext.Message
	if message == "" {
		message = fallbackMessage
	}

	view := appcore.ErrorPageView{
		PageMeta: m.appCtx.Meta(title, ""),
		Message:  message,
	}
	if m.development {
		view.Detail = errorDetail(errorContext.Err)
		view.Stack = errorContext.Stack
	}

	return components.Layout(view.PageMeta, components.ErrorPage(view))
}

func (m errorMapper) notFoundPage(notFoundContext framework.NotFoundContext) templ.Component {
	view := appcore.NotFoundView{
		PageMeta: m.appCtx.Meta(notFoundTitle, ""),
		Message:  notFoundMessage,
		Path:     notFoundContext.RequestPath,
	}
	return components.Layout(view.PageMeta, components.NotFoundPage(view))
}

func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	detail := err.Error()
	if remoteErr, ok := apiclient.AsRemoteCallError(err); ok && len(remoteErr.Body) > 0 {
		detail += fmt.Sprintf("\n\nupstream response:\n%s", truncate(remoteErr.Body, maxLoggedBodyBytes))
	}
	return detail
}

func truncate(body []byte, limit int) []byte {
	if len(body) <= limit {
		return body
	}
	return body[:limit]
}
