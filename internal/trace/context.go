package trace

import "context"

// ctxKey is the key type for storing Tracer in context.
type ctxKey struct{}

// FromContext extracts the Tracer from context.
// If not found, returns the disabled tracer.
func FromContext(ctx context.Context) *Tracer {
	if ctx == nil {
		return Disabled
	}
	if t, ok := ctx.Value(ctxKey{}).(*Tracer); ok && t != nil {
		return t
	}
	return Disabled
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t *Tracer) context.Context {
	if t == nil {
		t = Disabled
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

type threadCtxKey struct{}

// ThreadFromContext retrieves the goroutine's recording handle.
// Returns a no-op handle if not found.
func ThreadFromContext(ctx context.Context) *Thread {
	if ctx == nil {
		return nopThread
	}
	if th, ok := ctx.Value(threadCtxKey{}).(*Thread); ok && th != nil {
		return th
	}
	return nopThread
}

// WithThread attaches a recording handle. The resulting context must stay
// on the goroutine that owns the handle.
func WithThread(ctx context.Context, th *Thread) context.Context {
	if th == nil {
		th = nopThread
	}
	return context.WithValue(ctx, threadCtxKey{}, th)
}
