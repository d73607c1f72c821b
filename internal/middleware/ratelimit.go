package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const rateLimitMessage = "Too many requests, please try again later."

type RateLimitRecorder interface {
	RateLimited()
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *zap.Logger
	Metrics  RateLimitRecorder
}

// RateLimiter admits at most Requests requests per client within any
// trailing Window. Each client keeps a ring of its admitted timestamps.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientWindow
	limit     int
	window    time.Duration
	lastSweep time.Time

	logger  *zap.Logger
	warnLog rate.Sometimes
	metrics RateLimitRecorder
	now     func() time.Time
}

type clientWindow struct {
	hits  []time.Time // ring buffer, len == limit once full
	start int         // index of the oldest hit
	count int
}

// prune forgets hits at or before cutoff.
func (cw *clientWindow) prune(cutoff time.Time) {
	for cw.count > 0 && !cw.hits[cw.start].After(cutoff) {
		cw.start = (cw.start + 1) % len(cw.hits)
		cw.count--
	}
}

func (cw *clientWindow) oldest() time.Time {
	return cw.hits[cw.start]
}

func (cw *clientWindow) newest() time.Time {
	return cw.hits[(cw.start+cw.count-1)%len(cw.hits)]
}

func (cw *clientWindow) add(now time.Time) {
	cw.hits[(cw.start+cw.count)%len(cw.hits)] = now
	cw.count++
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	requests := config.Requests
	if requests < 1 {
		requests = 1
	}
	window := config.Window
	if window <= 0 {
		window = time.Minute
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   requests,
		window:  window,
		logger:  logger,
		// A flooding client logs at most once a second.
		warnLog: rate.Sometimes{First: 1, Interval: time.Second},
		metrics: config.Metrics,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)
		allowed, remaining, retryAfter := rl.take(client, rl.now())

		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(rl.limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			h.Set("Retry-After", strconv.Itoa(retryAfter))

			if rl.metrics != nil {
				rl.metrics.RateLimited()
			}
			rl.warnLog.Do(func() {
				rl.logger.Warn("rate limit exceeded",
					zap.String("client_ip", client),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", GetRequestID(r.Context())),
				)
			})

			http.Error(w, rateLimitMessage, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// take records a hit for client when the trailing window has room. A
// rejected request is not recorded. retryAfter is the number of whole
// seconds until the oldest hit leaves the window.
func (rl *RateLimiter) take(client string, now time.Time) (allowed bool, remaining int, retryAfter int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.window {
		rl.sweep(now)
	}

	cw, ok := rl.clients[client]
	if !ok {
		cw = &clientWindow{hits: make([]time.Time, rl.limit)}
		rl.clients[client] = cw
	}
	cw.prune(now.Add(-rl.window))

	if cw.count >= rl.limit {
		wait := cw.oldest().Add(rl.window).Sub(now)
		return false, 0, max(1, int(math.Ceil(wait.Seconds())))
	}

	cw.add(now)
	return true, rl.limit - cw.count, 0
}

// sweep drops clients whose newest hit has left the window.
// Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-rl.window)
	for client, cw := range rl.clients {
		if cw.count == 0 || !cw.newest().After(cutoff) {
			delete(rl.clients, client)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) trackedClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientIP keys on the connection's peer address. RealIP rewrites
// RemoteAddr first when the peer is a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
