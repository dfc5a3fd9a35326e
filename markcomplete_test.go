package execution_test

import (
	"context"
	"testing"

	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/andrewwormald/execution"
	"github.com/andrewwormald/execution/adapters/memstore"
)

func TestMarkCompleteNotReady(t *testing.T) {
	ctx := context.Background()

	registry := execution.NewRegistry()
	jtest.RequireNil(t, registry.Register("echo", echo))

	store := memstore.New()
	c := execution.NewController(registry, store)

	snapshot, err := c.Create(ctx, "echo", map[string]any{"x": 1})
	jtest.RequireNil(t, err)

	r, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)

	// No output yet: not ready is a normal outcome, not an error.
	done, err := c.MarkComplete(ctx, r)
	jtest.RequireNil(t, err)
	require.Nil(t, done)

	stored, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusCreated, stored.Status)
}

func TestMarkCompleteMovesRunningToDone(t *testing.T) {
	ctx := context.Background()

	registry := execution.NewRegistry()
	jtest.RequireNil(t, registry.Register("echo", echo))

	store := memstore.New()
	c := execution.NewController(registry, store)

	snapshot, err := c.Create(ctx, "echo", map[string]any{"x": 1})
	jtest.RequireNil(t, err)

	// First advance executes and leaves the record Running with output set.
	jtest.RequireNil(t, c.Advance(ctx, snapshot.ID))

	r, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusRunning, r.Status)

	done, err := c.MarkComplete(ctx, r)
	jtest.RequireNil(t, err)
	require.NotNil(t, done)
	require.Equal(t, execution.StatusDone, done.Status)
	require.JSONEq(t, `{"x":1}`, string(done.Output))

	stored, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusDone, stored.Status)
}

func TestMarkCompleteTerminalRecord(t *testing.T) {
	ctx := context.Background()

	registry := execution.NewRegistry()
	jtest.RequireNil(t, registry.Register("echo", echo))

	store := memstore.New()
	c := execution.NewController(registry, store)

	snapshot, err := c.Create(ctx, "echo", map[string]any{"x": 1})
	jtest.RequireNil(t, err)

	jtest.RequireNil(t, c.Advance(ctx, snapshot.ID))
	jtest.RequireNil(t, c.Advance(ctx, snapshot.ID))

	r, err := store.Lookup(ctx, snapshot.ID)
	jtest.RequireNil(t, err)
	require.Equal(t, execution.StatusDone, r.Status)

	// Complete but already terminal: no applicable transition, quietly a no-op.
	done, err := c.MarkComplete(ctx, r)
	jtest.RequireNil(t, err)
	require.Nil(t, done)
}
