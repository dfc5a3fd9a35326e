package execution

import (
	"context"
)

// RecordStore implementations should all be tested with adaptertest.RunRecordStoreTest.
// Store must be atomic: either the whole record (status, payloads and history) commits
// or nothing does. A store must refuse to move a record out of a terminal status and
// return ErrStaleRecord instead, so that two racing writers cannot commit conflicting
// terminal outcomes.
type RecordStore interface {
	// Store creates the record if its ID is unknown and replaces it otherwise.
	Store(ctx context.Context, r *Record) error

	// Lookup returns the record for the given ID or ErrRecordNotFound.
	Lookup(ctx context.Context, id string) (*Record, error)

	// ListPending returns all records whose status is not terminal.
	ListPending(ctx context.Context) ([]Record, error)
}

// TestingRecordStore is implemented by stores that capture a per-record snapshot of
// every committed write, which tests use to assert on intermediate states.
type TestingRecordStore interface {
	RecordStore

	Snapshots(id string) []*Record
}
