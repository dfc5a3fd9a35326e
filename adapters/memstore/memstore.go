package memstore

import (
	"context"
	"sync"

	"github.com/andrewwormald/execution"
)

// New returns an in-memory RecordStore. Every committed write is also captured as a
// per-record snapshot which tests use to assert on intermediate states.
func New() *Store {
	return &Store{
		store:     make(map[string]*execution.Record),
		snapshots: make(map[string][]*execution.Record),
	}
}

var _ execution.TestingRecordStore = (*Store)(nil)

type Store struct {
	mu sync.Mutex

	store map[string]*execution.Record
	// order preserves insertion order so ListPending is deterministic.
	order []string

	snapshots map[string][]*execution.Record
}

func (s *Store) Store(ctx context.Context, r *execution.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.store[r.ID]
	if ok && existing.Status.Terminal() && existing.Status != r.Status {
		// A terminal record never moves again. Refusing the write means two racing
		// writers cannot commit conflicting terminal outcomes.
		return execution.ErrStaleRecord
	}

	if !ok {
		s.order = append(s.order, r.ID)
	}

	c := clone(r)
	s.store[r.ID] = c
	s.snapshots[r.ID] = append(s.snapshots[r.ID], clone(c))

	return nil
}

func (s *Store) Lookup(ctx context.Context, id string) (*execution.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.store[id]
	if !ok {
		return nil, execution.ErrRecordNotFound
	}

	// Return a copy so modifications don't affect the store.
	return clone(r), nil
}

func (s *Store) ListPending(ctx context.Context) ([]execution.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []execution.Record
	for _, id := range s.order {
		r := s.store[id]
		if r.Status.Terminal() {
			continue
		}

		pending = append(pending, *clone(r))
	}

	return pending, nil
}

// Snapshots returns a copy of every write committed for the record, oldest first.
func (s *Store) Snapshots(id string) []*execution.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots := make([]*execution.Record, 0, len(s.snapshots[id]))
	for _, r := range s.snapshots[id] {
		snapshots = append(snapshots, clone(r))
	}

	return snapshots
}

func clone(r *execution.Record) *execution.Record {
	c := *r
	c.Input = append([]byte(nil), r.Input...)
	c.Output = append([]byte(nil), r.Output...)
	c.Error = append([]byte(nil), r.Error...)
	c.StatusHistory = append([]execution.StatusChange(nil), r.StatusHistory...)
	return &c
}
