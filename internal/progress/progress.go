package progress

import "context"

// Func is a callback for reporting progress messages.
type Func func(msg string)

type ctxKey struct{}

// With returns a context carrying the given progress callback.
func With(ctx context.Context, fn Func) context.Context {
	return context.WithValue(ctx, ctxKey{}, fn)
}

// Report calls the progress callback in ctx, if any.
// Safe to call when no callback is set; it simply returns.
func Report(ctx context.Context, msg string) {
	if fn, ok := ctx.Value(ctxKey{}).(Func); ok && fn != nil {
		fn(msg)
	}
}
