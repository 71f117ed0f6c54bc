package monitor

import (
	"context"
	"time"

	"github.com/grovetools/vigil/errors"
)

// callWithTimeout runs fn under a deadline and stops waiting once the
// deadline passes, even if fn ignores its context. The abandoned call's
// result is dropped.
func callWithTimeout[T any](ctx context.Context, operation string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(callCtx)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		if out.err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			var zero T
			return zero, errors.Timeout(operation, timeout)
		}
		return out.value, out.err
	case <-callCtx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, errors.Timeout(operation, timeout)
	}
}
