package clock

import (
	"context"
	"time"

	"github.com/wifinitylabs/wifinity/internal/clock/clockctx"
)

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	if t, ok := clockctx.FromContext(ctx); ok {
		return t
	}
	return time.Now().UTC()
}
