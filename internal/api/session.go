package api

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace/internal/auth"
	"marketplace/pkg/logger"
)

// SessionAuth validates the bearer session token and attaches the caller identity.
func SessionAuth(secret, audience string, log *logger.Zap) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				WriteError(w, http.StatusUnauthorized, "missing session token")
				return
			}

			id, err := auth.VerifyToken(strings.TrimSpace(authz[7:]), secret, audience, time.Now())
			if err != nil {
				log.Debug("session token rejected", zap.Error(err), zap.String("request_id", RequestIDFromContext(r.Context())))
				WriteError(w, http.StatusUnauthorized, "invalid session token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
