package execution_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/andrewwormald/execution"
	"github.com/andrewwormald/execution/adapters/memstore"
)

type valueError struct{}

func (valueError) Error() string {
	return "bad"
}

func historyStatuses(r *execution.Record) []execution.Status {
	statuses := make([]execution.Status, 0, len(r.StatusHistory))
	for _, change := range r.StatusHistory {
		statuses = append(statuses, change.Status)
	}
	return statuses
}

func TestAdvanceToCompletion(t *testing.T) {
	ctx := context.Background()

	registry := execution.NewRegistry()
	jtest.RequireNil(t, registry.Register("echo", echo))

	store := memstore.New()
	c := execution.NewController(registry, store)

	snapshot, err := c.Create(ctx, "echo", map[string]any{"x": 1})
	jtest.RequireNil(t, err)

	// First advance executes the function and moves Created to Running.
	err = c.Advance(ctx, snapshot.ID)
	jtest.RequireNil(t, err)

	r, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusRunning, r.Status)
	require.JSONEq(t, `{"x":1}`, string(r.Output))
	require.False(t, r.HasErrored())

	// Second advance finds the output present and moves Running to Done.
	err = c.Advance(ctx, snapshot.ID)
	jtest.RequireNil(t, err)

	r, err = store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusDone, r.Status)
	require.JSONEq(t, `{"x":1}`, string(r.Output))
	require.Equal(t, []execution.Status{
		execution.StatusCreated,
		execution.StatusRunning,
		execution.StatusDone,
	}, historyStatuses(r))
	require.Equal(t, r.Status, r.StatusHistory[len(r.StatusHistory)-1].Status)
}

func TestAdvanceTerminalIsNoop(t *testing.T) {
	ctx := context.Background()

	registry := execution.NewRegistry()
	jtest.RequireNil(t, registry.Register("echo", echo))

	store := memstore.New()
	c := execution.NewController(registry, store)

	snapshot, err := c.Create(ctx, "echo", map[string]any{"x": 1})
	jtest.RequireNil(t, err)

	jtest.RequireNil(t, c.Advance(ctx, snapshot.ID))
	jtest.RequireNil(t, c.Advance(ctx, snapshot.ID))

	done, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusDone, done.Status)

	writes := len(store.Snapshots(snapshot.ID))

	// Advancing a terminal record changes nothing, including the history.
	jtest.RequireNil(t, c.Advance(ctx, snapshot.ID))

	after, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, done.Status, after.Status)
	require.Equal(t, done.Output, after.Output)
	require.Equal(t, done.Error, after.Error)
	require.Equal(t, done.StatusHistory, after.StatusHistory)
	require.Len(t, store.Snapshots(snapshot.ID), writes)
}

func TestAdvanceFunctionFailure(t *testing.T) {
	ctx := context.Background()

	registry := execution.NewRegistry()
	jtest.RequireNil(t, registry.Register("boom", func(ctx context.Context, input map[string]any) (any, error) {
		return nil, valueError{}
	}))

	store := memstore.New()
	c := execution.NewController(registry, store)

	snapshot, err := c.Create(ctx, "boom", map[string]any{"x": 1})
	jtest.RequireNil(t, err)

	err = c.Advance(ctx, snapshot.ID)
	jtest.Require(t, execution.ErrExecutionFailed, err)

	r, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusErrored, r.Status)
	require.False(t, r.IsComplete())

	payload, err := r.ErrorPayload()
	jtest.RequireNil(t, err)
	require.Equal(t, "execution_test.valueError", payload.Kind)
	require.Equal(t, "bad", payload.Message)

	// The failed record stays put: advancing again is a no-op and the first error
	// payload is preserved.
	jtest.RequireNil(t, c.Advance(ctx, snapshot.ID))

	after, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusErrored, after.Status)
	require.Equal(t, r.Error, after.Error)
}

func TestAdvanceNeverDoubleExecutes(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int64
	registry := execution.NewRegistry()
	jtest.RequireNil(t, registry.Register("count", func(ctx context.Context, input map[string]any) (any, error) {
		calls.Add(1)
		return input, nil
	}))

	store := memstore.New()
	c := execution.NewController(registry, store)

	snapshot, err := c.Create(ctx, "count", map[string]any{"x": 1})
	jtest.RequireNil(t, err)

	for i := 0; i < 5; i++ {
		jtest.RequireNil(t, c.Advance(ctx, snapshot.ID))
	}

	require.Equal(t, int64(1), calls.Load())

	r, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusDone, r.Status)
}

func TestAdvanceConcurrent(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int64
	registry := execution.NewRegistry()
	jtest.RequireNil(t, registry.Register("count", func(ctx context.Context, input map[string]any) (any, error) {
		calls.Add(1)
		return input, nil
	}))

	store := memstore.New()
	c := execution.NewController(registry, store)

	snapshot, err := c.Create(ctx, "count", map[string]any{"x": 1})
	jtest.RequireNil(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Advance(ctx, snapshot.ID)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		jtest.RequireNil(t, err)
	}

	// Exactly one execution and a consistent state: the second advance either found
	// the record Running and completed it, or found it already advanced.
	require.Equal(t, int64(1), calls.Load())

	r, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusDone, r.Status)
	require.JSONEq(t, `{"x":1}`, string(r.Output))
	require.False(t, r.HasErrored())
	require.Equal(t, r.Status, r.StatusHistory[len(r.StatusHistory)-1].Status)
}

func TestAdvanceUnknownRecord(t *testing.T) {
	ctx := context.Background()

	c := execution.NewController(execution.NewRegistry(), memstore.New())

	err := c.Advance(ctx, "b7c81b38-7b97-4bb4-9d0a-2f1a3e6c5d42")
	jtest.Require(t, execution.ErrRecordNotFound, err)
}
