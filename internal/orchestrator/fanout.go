package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// settled is one all-settled fan-out result: either a value or the error
// that produced it.
type settled[T any] struct {
	value T
	err   error
}

// fanOut runs fn once per input with bounded parallelism and a per-call
// timeout, and collects all-settled results in input order. A failed or
// timed-out call becomes an errored slot; it never aborts the other calls.
// Canceling ctx stops not-yet-started calls and times out in-flight ones.
func fanOut[I, O any](ctx context.Context, inputs []I, limit int, timeout time.Duration, fn func(context.Context, I) (O, error)) []settled[O] {
	results := make([]settled[O], len(inputs))

	var g errgroup.Group
	g.SetLimit(limit)

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = settled[O]{err: err}
				return nil
			}

			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			value, err := fn(callCtx, input)
			results[i] = settled[O]{value: value, err: err}
			return nil
		})
	}

	// Tasks never return errors; Wait is purely a join.
	_ = g.Wait()

	return results
}
