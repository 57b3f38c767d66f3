package idempotency

import "context"

type contextKey struct{}

// WithKey attaches the key of the request being served so downstream events
// can carry it.
func WithKey(ctx context.Context, key Key) context.Context {
	return context.WithValue(ctx, contextKey{}, key)
}

func FromContext(ctx context.Context) (Key, bool) {
	key, ok := ctx.Value(contextKey{}).(Key)

	return key, ok && key != ""
}
