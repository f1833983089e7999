package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// callerKey is the context key for the authenticated key fingerprint.
const callerKey contextKey = "auth_caller"

// ContextWithCaller records the fingerprint of the key that authenticated
// the request.
func ContextWithCaller(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, callerKey, fingerprint)
}

// CallerFromContext returns the caller fingerprint, or "" when the request
// was not authenticated.
func CallerFromContext(ctx context.Context) string {
	fp, _ := ctx.Value(callerKey).(string)
	return fp
}
