package httpapi

import (
	"net/http"

	"gallery-be/internal/auth"
	"gallery-be/internal/logger"
	"gallery-be/internal/middleware"
)

type RouterConfig struct {
	Issuer        *auth.Issuer
	Limiter       *middleware.RateLimiter
	AllowedOrigin string
}

// NewRouter mounts the gallery routes behind the shared middleware chain.
// Screen routes additionally require a session token.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.Limiter == nil {
		cfg.Limiter = middleware.NewRateLimiter()
	}
	requireSession := middleware.SessionAuth(cfg.Issuer)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /v1/sessions", h.CreateSession)
	mux.HandleFunc("POST /v1/macros/{name}", h.EvaluateMacro)

	mux.Handle("GET /v1/screen", requireSession(http.HandlerFunc(h.GetScreen)))
	mux.Handle("POST /v1/screen/select", requireSession(http.HandlerFunc(h.SelectCategory)))
	mux.Handle("POST /v1/screen/back", requireSession(http.HandlerFunc(h.Back)))
	mux.Handle("POST /v1/screen/refresh", requireSession(http.HandlerFunc(h.Refresh)))

	var handler http.Handler = mux
	handler = cfg.Limiter.Middleware(handler)
	handler = middleware.CORS(cfg.AllowedOrigin)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)
	return handler
}
