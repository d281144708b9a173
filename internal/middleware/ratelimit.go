package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"taskList/internal/logger"
	"time"

	"go.uber.org/zap"
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type clientInfo struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process memory. Counters are per instance,
// so several replicas each allow the full limit. Expired windows are swept
// at most once per window.
type MemoryLimiter struct {
	limit     int
	window    time.Duration
	clients   map[string]*clientInfo
	lastSweep time.Time
	mtx       sync.Mutex
	now       func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientInfo),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	info, exists := l.clients[key]
	switch {
	case !exists:
		info = &clientInfo{count: 1, resetAt: now.Add(l.window)}
		l.clients[key] = info
	case now.After(info.resetAt):
		info.count = 1
		info.resetAt = now.Add(l.window)
	case info.count >= l.limit:
		return Decision{Allowed: false, Remaining: 0, ResetAt: info.resetAt}, nil
	default:
		info.count++
	}

	return Decision{
		Allowed:   true,
		Remaining: max(l.limit-info.count, 0),
		ResetAt:   info.resetAt,
	}, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for key, info := range l.clients {
		if now.After(info.resetAt) {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects clients that exceed rpm requests per window with 429.
// When the limiter itself fails the request is let through.
func RateLimit(limiter Limiter, rpm int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIp(r)

			decision, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Error("HTTP: rate limiter unavailable", err,
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("client_ip", ip))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				retryAfter := int(time.Until(decision.ResetAt).Seconds()) + 1
				logger.Warn("HTTP: rate limit exceeded",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("client_ip", ip),
					zap.Int("retry_after", retryAfter))

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests. Try again later.",
					"retry_after": retryAfter,
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
