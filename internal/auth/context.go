package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// tokenIDContextKey holds the fingerprint of the token that authenticated the request.
const tokenIDContextKey contextKey = "token_id"

// ContextWithTokenID stores the authenticated token fingerprint.
func ContextWithTokenID(ctx context.Context, tokenID string) context.Context {
	return context.WithValue(ctx, tokenIDContextKey, tokenID)
}

// TokenIDFromContext returns the token fingerprint, or "" for anonymous requests.
func TokenIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(tokenIDContextKey).(string)
	return id
}

// Fingerprint is a short, non-reversible identifier safe to log.
func Fingerprint(token string) string {
	return QuickHash(token)[:12]
}
