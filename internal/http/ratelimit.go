package http

import (
	"net/http"
	"sync"
	"time"

	"myfinance/internal/log"
	"myfinance/internal/metrics"
)

const (
	defaultWritesPerMinute = 60
	staleClientAfter       = 10 * time.Minute
)

// rateLimiter implements a fixed one-minute window per client IP.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	limit   int
	now     func() time.Time
}

type clientInfo struct {
	windowStart time.Time
	requests    int
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		limit = defaultWritesPerMinute
	}
	return &rateLimiter{
		clients: make(map[string]*clientInfo),
		limit:   limit,
		now:     time.Now,
	}
}

// allow reports whether clientIP may issue one more request now.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.windowStart) > time.Minute {
		rl.clients[clientIP] = &clientInfo{windowStart: now, requests: 1}
		return true
	}

	client.requests++
	return client.requests <= rl.limit
}

// CleanExpired drops clients idle for more than ten minutes. It lets the
// limiter share the periodic cleanup loop of the caches.
func (rl *rateLimiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleClientAfter)
	removed := 0
	for ip, client := range rl.clients {
		if client.windowStart.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// limitWrites rejects write requests over the limit with 429. Reads pass.
func (rl *rateLimiter) limitWrites(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isWrite(r.Method) {
				clientIP := extractClientIP(r)
				if !rl.allow(clientIP) {
					m.RateLimited()
					log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
						log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
					w.Header().Set("Retry-After", "60")
					writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
