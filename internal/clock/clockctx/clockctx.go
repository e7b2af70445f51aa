// Package clockctx carries a frozen billing instant through a context.
// The scheduler and the run-billing API both set it so every decision in a
// pass observes the same now.
package clockctx

import (
	"context"
	"time"
)

type key struct{}

var frozenTimeKey key

// WithFrozenTime returns a context whose clock reads t instead of wall time.
func WithFrozenTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, frozenTimeKey, t)
}

// FromContext returns the frozen instant, if one was set.
func FromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(frozenTimeKey).(time.Time)
	return t, ok
}
