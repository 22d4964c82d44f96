package probe

import (
	"context"
	"time"
)

type outcome[T any] struct {
	val T
	err error
}

// awaitDeadline runs op in its own goroutine and returns whichever comes
// first: op's outcome, the deadline channel firing (ErrTimedOut) or ctx being
// done (ctx.Err()). The losing op is cancelled and, if it still produced a
// value, that value is handed to release.
func awaitDeadline[T any](
	ctx context.Context,
	deadline <-chan time.Time,
	op func(context.Context) (T, error),
	release func(T),
) (T, error) {
	opCtx, cancel := context.WithCancel(ctx)
	done := make(chan outcome[T], 1)
	go func() {
		v, err := op(opCtx)
		done <- outcome[T]{val: v, err: err}
	}()

	var zero T
	select {
	case o := <-done:
		cancel()
		return o.val, o.err
	case <-deadline:
		abandon(cancel, done, release)
		return zero, ErrTimedOut
	case <-ctx.Done():
		abandon(cancel, done, release)
		return zero, ctx.Err()
	}
}

func abandon[T any](cancel context.CancelFunc, done <-chan outcome[T], release func(T)) {
	cancel()
	go func() {
		if o := <-done; o.err == nil && release != nil {
			release(o.val)
		}
	}()
}
