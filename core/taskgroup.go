package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Settle runs task(ctx, i) for i in [0, n) concurrently and waits for all of them.
// A failing task never cancels its siblings: the returned slice holds each task's
// own error at its index. limit <= 0 means no bound on in-flight tasks.
func Settle(ctx context.Context, n, limit int, task func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			errs[i] = task(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
