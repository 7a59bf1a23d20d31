package importer

import (
	"context"
	"fmt"
)

type result[T any] struct {
	val T
	err error
}

// RunInBackground executes fn on its own goroutine and waits for the result
// or for ctx to be done, whichever comes first. A cancelled caller stops
// waiting; fn itself runs to completion and its result is discarded. A panic
// in fn is reported as ErrUnreadableFile.
func RunInBackground[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result[T]{val: zero, err: fmt.Errorf("%w: %v", ErrUnreadableFile, r)}
			}
		}()
		v, err := fn()
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
