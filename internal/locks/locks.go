package locks

import "sync"

// New returns a KeyedMutex with an initialised internal store ready for use.
func New() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// KeyedMutex serialises work per key while allowing full parallelism across distinct
// keys. Entries are reference counted and removed once the last holder unlocks, so
// the map does not grow with the number of keys ever seen.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until the key's lock is held and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		defer k.mu.Unlock()

		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
	}
}
