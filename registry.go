package execution

import (
	"context"
	"sort"
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// Func is a registered function. It receives the record's decoded input payload and
// returns a result that will be serialized into the record's output payload.
type Func func(ctx context.Context, input map[string]any) (any, error)

// Registry is an explicit mapping from name to Func. It is long-lived, constructed
// once and passed into the Controller - functions are never resolved via ambient
// package state.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Func),
	}
}

// Register adds fn under name. A name can only be registered once.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return errors.New("function name cannot be empty")
	}

	if fn == nil {
		return errors.New("function cannot be nil", j.MKV{"func_name": name})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.funcs[name]; ok {
		return errors.Wrap(ErrFuncAlreadyRegistered, "", j.MKV{"func_name": name})
	}

	r.funcs[name] = fn
	return nil
}

// Resolve returns the function registered under name or ErrFuncNotRegistered.
func (r *Registry) Resolve(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[name]
	if !ok {
		return nil, errors.Wrap(ErrFuncNotRegistered, "", j.MKV{"func_name": name})
	}

	return fn, nil
}

// Names returns the sorted names of all registered functions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
