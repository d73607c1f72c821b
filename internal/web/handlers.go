package web

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"portfolio/framework/httpserver"
	"portfolio/internal/config"
	"portfolio/internal/markdown"
	"portfolio/internal/metrics"
	"portfolio/internal/middleware"
	"portfolio/internal/web/appcore"
)

// NewHandler assembles the full site: middleware chain, static assets,
// health and metrics endpoints, and every page route.
func NewHandler(
	cfg config.Config,
	service appcore.PortfolioService,
	logger *zap.Logger,
	m *metrics.Metrics,
) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	appCtx := appcore.NewContext(service, markdown.New(cfg.SiteURL), appcore.Options{
		SiteName:     cfg.SiteName,
		AssetsPrefix: cfg.StaticPrefix,
		Development:  cfg.IsDevelopment(),
	})

	mapper := errorMapper{
		logger:      logger,
		appCtx:      appCtx,
		development: cfg.IsDevelopment(),
	}

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	chainOpts := middleware.Options{
		Logger: logger,
		RateLimit: middleware.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
		MaxBodyBytes:   cfg.MaxBodyBytes,
		TrustedProxies: trustedProxies,
	}
	if m != nil {
		chainOpts.Metrics = m
	}

	serverCfg := httpserver.Config[*appcore.Context]{
		AppContext: appCtx,
		Handlers:   routeHandlers(),
		Middleware: middleware.Chain(chainOpts),
		Static: httpserver.StaticMount{
			URLPrefix: cfg.StaticPrefix,
			Dir:       cfg.StaticDir,
		},
		CachePolicies:   cachePolicies(cfg.IsDevelopment()),
		NotFoundPage:    mapper.notFoundPage,
		ServerErrorPage: mapper.serverErrorPage,
		LogServerError:  mapper.logServerError,
	}
	if m != nil {
		serverCfg.MetricsPath = cfg.MetricsPath
		serverCfg.MetricsHandler = m.Handler()
	}

	handler, err := httpserver.New(serverCfg)
	if err != nil {
		return nil, fmt.Errorf("create http server: %w", err)
	}

	return handler, nil
}
