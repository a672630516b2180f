// Package ctxcancel bridges cancellation tokens to the standard
// context.Context idiom. It lets token-unaware code observe a token's
// cancellation through the context it already accepts, without pulling
// context plumbing into the core primitive.
package ctxcancel

import (
	"context"
	"fmt"
	"sync"

	"github.com/NetPo4ki/go-cancel/cancel"
)

// Cause is the cancellation cause installed on contexts derived by
// Context. Recover the payload with errors.As on context.Cause(ctx).
type Cause[T any] struct {
	Payload T
}

func (c Cause[T]) Error() string {
	return fmt.Sprintf("ctxcancel: cancelled: %v", c.Payload)
}

// Context derives a context that is cancelled when tok's cancellation
// payload is delivered; the payload travels as the context cause.
// Abandonment of the token does not cancel the derived context, since
// cancellation can then never arrive. The returned CancelFunc releases
// the watcher and must be called when the context is no longer needed.
func Context[T any](parent context.Context, tok *cancel.Token[T]) (context.Context, context.CancelFunc) {
	ctx, cancelCause := context.WithCancelCause(parent)
	stop := make(chan struct{})

	go func() {
		select {
		case <-tok.Done():
			// Terminal already reached, so this never blocks.
			if payload, err := tok.Cancelled(context.Background()); err == nil {
				cancelCause(Cause[T]{Payload: payload})
			}
		case <-ctx.Done():
		case <-stop:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() { close(stop) })
		cancelCause(context.Canceled)
	}
}
