// Shared context keys for the HTTP transport.
// Kept in a leaf package so middleware and tool handlers can both read them.
package ctxkeys

import "context"

// Key is the named type for all API context keys.
// Using a named type avoids collisions with string keys from other packages
// at runtime (context.Value compares both type and value).
type Key string

const (
	// Subject is the token subject injected by AuthMiddleware.
	Subject Key = "subject"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// SubjectFrom returns the authenticated subject, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(Subject).(string)
	return v, ok && v != ""
}
