package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"gallery-be/internal/httputil"
	"gallery-be/internal/logger"

	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// session creation runs a container fetch
	limitSession = rate.Limit(1)
	burstSession = 5

	// refresh runs a container fetch
	limitRefresh = rate.Limit(2)
	burstRefresh = 5

	// navigation and reads
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

const (
	tierSession = "session"
	tierRefresh = "refresh"
	tierGeneral = "general"
)

const visitorTTL = 3 * time.Minute

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per identity and tier.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// getVisitor retrieves or creates a rate limiter for the given key.
func (l *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		l.visitors[key] = &visitor{limiter, l.now()}
		return limiter
	}

	v.lastSeen = l.now()
	return v.limiter
}

// Cleanup removes visitors not seen for visitorTTL.
func (l *RateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, key)
		}
	}
}

// Run cleans up idle visitors every minute until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Middleware rejects requests over the caller's quota with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := resolveRateTier(r)
		key := fmt.Sprintf("%s:%s", identity(r, tier), tier)

		if !l.getVisitor(key, limit, burst).Allow() {
			logger.FromCtx(r.Context()).Warn("rate limited")
			httputil.WriteJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// identity keys the session tier on the client address only, since the
// device header is client-controlled and every new session runs a fetch.
func identity(r *http.Request, tier string) string {
	if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" && tier != tierSession {
		return "device:" + deviceID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// resolveRateTier determines which rate limit policy applies to the request.
func resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/sessions":
		return limitSession, burstSession, tierSession
	case strings.HasSuffix(r.URL.Path, "/refresh"):
		return limitRefresh, burstRefresh, tierRefresh
	default:
		return limitGeneral, burstGeneral, tierGeneral
	}
}
