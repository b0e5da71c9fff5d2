package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/notes/tarefas/internal/auth"
)

// UnauthorizedMessage is returned for every authentication failure.
const UnauthorizedMessage = "Token inválido ou ausente!"

// DefaultPublicPrefixes are the paths served without a token.
var DefaultPublicPrefixes = []string{
	"/hello",
	"/status",
	"/echo",
	"/saudacao",
	"/healthz",
	"/readyz",
	"/metrics",
}

// TokenAuthConfig holds configuration for the token auth middleware.
type TokenAuthConfig struct {
	Logger   *slog.Logger
	Verifier auth.Verifier
	// PublicPrefixes skip authentication. A prefix matches the path itself
	// and anything below it ("/saudacao" matches "/saudacao/Ana").
	PublicPrefixes []string
	// FailureDelay is the minimum time spent answering a rejected request.
	FailureDelay time.Duration
}

// TokenAuth returns a middleware that requires a valid token in the
// Authorization header, either raw or as "Bearer <token>".
func TokenAuth(cfg TokenAuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path, cfg.PublicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			token := extractToken(r)

			reason := ""
			switch {
			case token == "":
				reason = "missing_token"
			case !cfg.Verifier.Verify(token):
				reason = "invalid_token"
			}

			if reason != "" {
				logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				if wait := cfg.FailureDelay - time.Since(start); wait > 0 {
					time.Sleep(wait)
				}
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", UnauthorizedMessage)
				return
			}

			tokenID := auth.Fingerprint(token)
			logger.Debug("authentication successful",
				slog.String("token_id", tokenID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithTokenID(r.Context(), tokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the Authorization header, stripping an optional Bearer scheme.
func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func isPublicPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
