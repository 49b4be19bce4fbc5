package middleware

import (
	"net/http"

	"gallery-be/internal/auth"
	"gallery-be/internal/httputil"
	"gallery-be/internal/logger"

	"go.uber.org/zap"
)

// SessionAuth requires a valid session token and puts its session id in the
// request context.
func SessionAuth(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				httputil.WriteJSONError(w, "missing session token", http.StatusUnauthorized)
				return
			}

			claims, err := issuer.Parse(tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Info("session token rejected", zap.Error(err))
				httputil.WriteJSONError(w, "invalid session token", http.StatusUnauthorized)
				return
			}

			ctx := logger.WithSessionID(r.Context(), claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
