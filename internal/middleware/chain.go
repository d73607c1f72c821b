package middleware

import (
	"net/http"
	"net/netip"
	"time"

	"go.uber.org/zap"
)

type Recorder interface {
	RequestRecorder
	RateLimitRecorder
}

type Options struct {
	Logger       *zap.Logger
	Metrics      Recorder
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	MaxBodyBytes int64

	// Peers allowed to report the client address in forwarding headers.
	TrustedProxies []netip.Prefix
}

// Chain returns the middleware applied to every request, outermost first.
func Chain(opts Options) []func(http.Handler) http.Handler {
	rateLimit := opts.RateLimit
	if rateLimit.Logger == nil {
		rateLimit.Logger = opts.Logger
	}
	if rateLimit.Metrics == nil && opts.Metrics != nil {
		rateLimit.Metrics = opts.Metrics
	}
	if rateLimit.Requests == 0 {
		rateLimit.Requests = 100
	}
	if rateLimit.Window == 0 {
		rateLimit.Window = 15 * time.Minute
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	var requests RequestRecorder
	if opts.Metrics != nil {
		requests = opts.Metrics
	}

	return []func(http.Handler) http.Handler{
		RequestID,
		RealIP(opts.TrustedProxies),
		SecureHeaders,
		NewRateLimiter(rateLimit).Handler,
		CORS(opts.CORS),
		AccessLog(opts.Logger, requests),
		BodyParser(maxBody),
	}
}
