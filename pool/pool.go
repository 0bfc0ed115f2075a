// Package pool runs build work items across a bounded set of workers,
// each owning one exclusive resource for its whole lifetime.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultWorkers bounds parallelism when no count is configured.
const DefaultWorkers = 4

// Item is a unit of work with a stable name for progress reporting.
type Item interface {
	Name() string
}

// Progress observes item completion: the finished item's name, the number
// of items completed so far, and the total. The final call is guaranteed
// to report done == total unless the run aborts early.
type Progress func(name string, done, total int)

// Options tunes a run.
type Options struct {
	// Workers is the worker count; DefaultWorkers when zero.
	Workers int
	// ContinueOnError keeps the remaining items running after a failure
	// and returns the collected errors, instead of cancelling the run on
	// the first one.
	ContinueOnError bool
	// Progress, when set, observes each completed item.
	Progress Progress
}

// Run processes items across a bounded worker set. Each worker calls init
// exactly once to acquire its resource, processes items with it, then
// calls exit exactly once to release it, even when the run fails. The
// resource is never shared and never reacquired.
func Run[T Item, R any](
	ctx context.Context,
	items []T,
	opts Options,
	init func() (R, error),
	process func(ctx context.Context, resource R, item T) error,
	exit func(R) error,
) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}
	if len(items) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan T)
	errs := make(chan error, workers)

	var (
		mu      sync.Mutex
		done    int
		runErrs []error
	)
	// Progress runs under the lock so completion calls arrive in done
	// order and the done == total call is always last.
	complete := func(item T) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if opts.Progress != nil {
			opts.Progress(item.Name(), done, len(items))
		}
	}
	fail := func(err error) {
		mu.Lock()
		runErrs = append(runErrs, err)
		mu.Unlock()
		if !opts.ContinueOnError {
			cancel()
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resource, err := init()
			if err != nil {
				errs <- fmt.Errorf("initialize worker: %w", err)
				cancel()
				return
			}
			defer func() {
				if err := exit(resource); err != nil {
					errs <- fmt.Errorf("release worker resource: %w", err)
				}
			}()

			for item := range queue {
				if err := process(ctx, resource, item); err != nil {
					fail(fmt.Errorf("%s: %w", item.Name(), err))
					if !opts.ContinueOnError {
						return
					}
					continue
				}
				complete(item)
			}
		}()
	}

	feed := func() {
		defer close(queue)
		for _, item := range items {
			select {
			case queue <- item:
			case <-ctx.Done():
				return
			}
		}
	}
	feed()

	wg.Wait()
	close(errs)
	for err := range errs {
		runErrs = append(runErrs, err)
	}
	return errors.Join(runErrs...)
}
