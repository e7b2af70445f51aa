package clock

import (
	"context"
	"time"
)

// Clock supplies the billing engine's notion of now. Handlers and jobs pass
// it through context so a pass can run against a frozen instant in tests.
type Clock interface {
	Now(ctx context.Context) time.Time
}
