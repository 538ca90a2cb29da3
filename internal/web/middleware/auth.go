package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// APIKey rejects requests whose X-API-Key header does not match key. An
// empty key disables the check.
func APIKey(key string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				logger.WarnContext(r.Context(), "api key mismatch",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","detail":"valid X-API-Key header required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
