package pool_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgevolve/wikidated/pool"
)

type task struct {
	id   int
	fail bool
}

func (t task) Name() string { return fmt.Sprintf("task-%d", t.id) }

func tasks(n int) []task {
	items := make([]task, n)
	for i := range items {
		items[i] = task{id: i}
	}
	return items
}

// resource tracks its own lifecycle so the test can assert on the
// acquire/release discipline.
type resource struct {
	released atomic.Bool
	used     atomic.Int64
}

func TestRunProcessesEveryItem(t *testing.T) {
	var (
		mu        sync.Mutex
		processed []string
		resources []*resource
		finalDone int
	)

	err := pool.Run(context.Background(), tasks(10),
		pool.Options{Workers: 3, Progress: func(name string, done, total int) {
			mu.Lock()
			defer mu.Unlock()
			processed = append(processed, name)
			assert.Equal(t, 10, total)
			finalDone = done
		}},
		func() (*resource, error) {
			r := &resource{}
			mu.Lock()
			resources = append(resources, r)
			mu.Unlock()
			return r, nil
		},
		func(_ context.Context, r *resource, item task) error {
			require.False(t, r.released.Load(), "resource used after release")
			r.used.Add(1)
			return nil
		},
		func(r *resource) error {
			r.released.Store(true)
			return nil
		})
	require.NoError(t, err)

	assert.Len(t, processed, 10)
	assert.Equal(t, 10, finalDone, "final progress call reports done == total")

	assert.Len(t, resources, 3, "one resource per worker, never reacquired")
	var used int64
	for _, r := range resources {
		assert.True(t, r.released.Load(), "every resource released")
		used += r.used.Load()
	}
	assert.Equal(t, int64(10), used)
}

func TestRunStopsOnFirstError(t *testing.T) {
	items := tasks(100)
	items[3] = task{id: 3, fail: true}

	var processed atomic.Int64
	err := pool.Run(context.Background(), items,
		pool.Options{Workers: 2},
		func() (struct{}, error) { return struct{}{}, nil },
		func(ctx context.Context, _ struct{}, item task) error {
			if item.fail {
				return errors.New("broken input")
			}
			processed.Add(1)
			return nil
		},
		func(struct{}) error { return nil })

	require.Error(t, err)
	assert.ErrorContains(t, err, "task-3")
	assert.Less(t, processed.Load(), int64(99), "run cancelled before draining the queue")
}

func TestRunContinueOnErrorCollectsAll(t *testing.T) {
	items := tasks(10)
	items[2] = task{id: 2, fail: true}
	items[7] = task{id: 7, fail: true}

	var processed atomic.Int64
	err := pool.Run(context.Background(), items,
		pool.Options{Workers: 2, ContinueOnError: true},
		func() (struct{}, error) { return struct{}{}, nil },
		func(_ context.Context, _ struct{}, item task) error {
			if item.fail {
				return fmt.Errorf("broken input")
			}
			processed.Add(1)
			return nil
		},
		func(struct{}) error { return nil })

	require.Error(t, err)
	assert.ErrorContains(t, err, "task-2")
	assert.ErrorContains(t, err, "task-7")
	assert.Equal(t, int64(8), processed.Load(), "healthy items still processed")
}

func TestRunInitFailureAborts(t *testing.T) {
	err := pool.Run(context.Background(), tasks(4),
		pool.Options{Workers: 1},
		func() (struct{}, error) { return struct{}{}, errors.New("no converter available") },
		func(_ context.Context, _ struct{}, _ task) error { return nil },
		func(struct{}) error { return nil })

	require.Error(t, err)
	assert.ErrorContains(t, err, "initialize worker")
}

func TestRunEmptyItems(t *testing.T) {
	err := pool.Run(context.Background(), []task{},
		pool.Options{},
		func() (struct{}, error) { return struct{}{}, nil },
		func(_ context.Context, _ struct{}, _ task) error { return nil },
		func(struct{}) error { return nil })
	require.NoError(t, err)
}
