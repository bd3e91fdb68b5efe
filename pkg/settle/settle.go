// Package settle runs independent tasks concurrently and collects every outcome.
//
// Unlike errgroup's usual fail-fast use, a failing task never cancels or
// fails its siblings: each task settles into its own Result slot.
package settle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result is the tagged outcome of one task.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok reports whether the task succeeded.
func (r Result[T]) Ok() bool { return r.Err == nil }

// All runs f once per item and waits for every call to finish. Results are
// index-aligned with items regardless of completion order. limit <= 0 runs
// all items at once. A panicking task settles as a failure.
func All[In, Out any](ctx context.Context, items []In, limit int, f func(context.Context, In) (Out, error)) []Result[Out] {
	out := make([]Result[Out], len(items))
	if len(items) == 0 {
		return out
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					out[i] = Result[Out]{Err: fmt.Errorf("%w: %v", ErrPanicked, p)}
				}
			}()
			v, err := f(ctx, item)
			out[i] = Result[Out]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait() // tasks never return an error to the group
	return out
}

// Values keeps the successful values in input order.
func Values[T any](results []Result[T]) []T {
	vals := make([]T, 0, len(results))
	for _, r := range results {
		if r.Ok() {
			vals = append(vals, r.Value)
		}
	}
	return vals
}

// Failed counts the failed results.
func Failed[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if !r.Ok() {
			n++
		}
	}
	return n
}
