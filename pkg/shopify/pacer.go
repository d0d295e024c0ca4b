package shopify

import (
	"context"
	"time"
)

// DefaultRequestDelay averages two calls per second, which keeps a single
// client under the REST Admin API leaky bucket.
const DefaultRequestDelay = 500 * time.Millisecond

// Pacer is consulted once before every outbound call.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay pauses for the same duration before each call. It does not look
// at previous responses.
type FixedDelay time.Duration

func (d FixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(d))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
