package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/graphcrm/graphcrm/internal/auth"
)

// minRejectDuration pads failed attempts so response time does not reveal
// how far verification got.
const minRejectDuration = 200 * time.Millisecond

// KeyVerifier checks a presented API key.
type KeyVerifier interface {
	Verify(key string) bool
}

// APIKeyConfig holds configuration for the API key middleware.
type APIKeyConfig struct {
	Logger   *slog.Logger
	Verifier KeyVerifier
	// MinRejectDuration overrides minRejectDuration; tests set it to zero.
	MinRejectDuration *time.Duration
}

// APIKey returns a middleware that requires a valid API key in the
// Authorization (Bearer) or X-API-Key header. A nil Verifier disables it.
func APIKey(cfg APIKeyConfig) func(http.Handler) http.Handler {
	pad := minRejectDuration
	if cfg.MinRejectDuration != nil {
		pad = *cfg.MinRejectDuration
	}

	return func(next http.Handler) http.Handler {
		if cfg.Verifier == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			key := extractAPIKey(r)
			reason := ""
			switch {
			case key == "":
				reason = "missing_key"
			case !cfg.Verifier.Verify(key):
				reason = "invalid_key"
			}

			if reason != "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", getClientIP(r)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				if elapsed := time.Since(start); elapsed < pad {
					time.Sleep(pad - elapsed)
				}
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "Invalid or missing API key")
				return
			}

			ctx := auth.ContextWithCaller(r.Context(), auth.Fingerprint(key))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAPIKey extracts the API key from the request headers.
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
			return strings.TrimSpace(authHeader[7:])
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
