package ctxutil

import "context"

// Default returns a background context when callers pass nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
