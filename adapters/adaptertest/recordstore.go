package adaptertest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/require"

	"github.com/andrewwormald/execution"
)

// RunRecordStoreTest runs the RecordStore contract against the provided store
// implementation. All RecordStore implementations should pass this suite.
func RunRecordStoreTest(t *testing.T, factory func() execution.RecordStore) {
	tests := []func(t *testing.T, store execution.RecordStore){
		testLookup,
		testStoreUpdates,
		testListPending,
		testTerminalConflict,
	}

	for _, test := range tests {
		test(t, factory())
	}
}

func testLookup(t *testing.T, store execution.RecordStore) {
	t.Run("Lookup", func(t *testing.T) {
		ctx := context.Background()

		r := newRecord(t, "echo")
		err := store.Store(ctx, r)
		jtest.RequireNil(t, err)

		found, err := store.Lookup(ctx, r.ID)
		jtest.RequireNil(t, err)

		require.Equal(t, r.ID, found.ID)
		require.Equal(t, r.FuncName, found.FuncName)
		require.Equal(t, r.Input, found.Input)
		require.Equal(t, execution.StatusCreated, found.Status)
		require.Equal(t, r.StatusHistory, found.StatusHistory)
		require.WithinDuration(t, r.CreatedAt, found.CreatedAt, time.Second)
		require.WithinDuration(t, r.UpdatedAt, found.UpdatedAt, time.Second)

		_, err = store.Lookup(ctx, uuid.New().String())
		jtest.Require(t, execution.ErrRecordNotFound, err)
	})
}

func testStoreUpdates(t *testing.T, store execution.RecordStore) {
	t.Run("Store updates are visible and atomic", func(t *testing.T) {
		ctx := context.Background()

		r := newRecord(t, "echo")
		err := store.Store(ctx, r)
		jtest.RequireNil(t, err)

		r.Status = execution.StatusRunning
		r.Output = []byte(`{"x":1}`)
		r.StatusHistory = append(r.StatusHistory, execution.StatusChange{
			Status:     execution.StatusRunning,
			OccurredAt: "2024-01-01 00:00:01 (UTC)",
		})
		r.StatusModifiedAt = r.StatusModifiedAt.Add(time.Second)
		r.UpdatedAt = r.UpdatedAt.Add(time.Second)

		err = store.Store(ctx, r)
		jtest.RequireNil(t, err)

		found, err := store.Lookup(ctx, r.ID)
		jtest.RequireNil(t, err)

		require.Equal(t, execution.StatusRunning, found.Status)
		require.Equal(t, []byte(`{"x":1}`), found.Output)
		require.Len(t, found.StatusHistory, 2)
		require.Equal(t, found.Status, found.StatusHistory[len(found.StatusHistory)-1].Status)
	})
}

func testListPending(t *testing.T, store execution.RecordStore) {
	t.Run("ListPending excludes terminal records", func(t *testing.T) {
		ctx := context.Background()

		statuses := []execution.Status{
			execution.StatusCreated,
			execution.StatusRunning,
			execution.StatusDone,
			execution.StatusErrored,
		}

		var pendingIDs []string
		for _, status := range statuses {
			r := newRecord(t, "echo")
			r.Status = status
			r.StatusHistory = []execution.StatusChange{
				{Status: status, OccurredAt: "2024-01-01 00:00:00 (UTC)"},
			}
			if status == execution.StatusDone {
				r.Output = []byte(`{"x":1}`)
			}
			if status == execution.StatusErrored {
				r.Error = []byte(`{"kind":"testError","message":"boom"}`)
			}

			err := store.Store(ctx, r)
			jtest.RequireNil(t, err)

			if !status.Terminal() {
				pendingIDs = append(pendingIDs, r.ID)
			}
		}

		pending, err := store.ListPending(ctx)
		jtest.RequireNil(t, err)

		require.Len(t, pending, len(pendingIDs))
		for _, r := range pending {
			require.False(t, r.Status.Terminal())
			require.Contains(t, pendingIDs, r.ID)
		}
	})
}

func testTerminalConflict(t *testing.T, store execution.RecordStore) {
	t.Run("Terminal records cannot change status", func(t *testing.T) {
		ctx := context.Background()

		r := newRecord(t, "echo")
		r.Status = execution.StatusDone
		r.Output = []byte(`{"x":1}`)
		r.StatusHistory = []execution.StatusChange{
			{Status: execution.StatusDone, OccurredAt: "2024-01-01 00:00:00 (UTC)"},
		}

		err := store.Store(ctx, r)
		jtest.RequireNil(t, err)

		// Re-writing the same terminal status is allowed so retries stay idempotent.
		err = store.Store(ctx, r)
		jtest.RequireNil(t, err)

		conflicting := *r
		conflicting.Status = execution.StatusErrored
		err = store.Store(ctx, &conflicting)
		jtest.Require(t, execution.ErrStaleRecord, err)

		found, err := store.Lookup(ctx, r.ID)
		jtest.RequireNil(t, err)
		require.Equal(t, execution.StatusDone, found.Status)
	})
}

func newRecord(t *testing.T, funcName string) *execution.Record {
	t.Helper()

	now := time.Now().Round(time.Millisecond)
	return &execution.Record{
		ID:               uuid.New().String(),
		FuncName:         funcName,
		Input:            []byte(`{"x":1}`),
		Status:           execution.StatusCreated,
		StatusModifiedAt: now,
		StatusHistory: []execution.StatusChange{
			{Status: execution.StatusCreated, OccurredAt: "2024-01-01 00:00:00 (UTC)"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
