package execution

import (
	"context"
	"os"

	"k8s.io/utils/clock"

	"github.com/andrewwormald/execution/internal/locks"
	"github.com/andrewwormald/execution/internal/logger"
)

// ValidateFunc is the input validation hook run by Create before anything is
// persisted. Returning a non-nil error rejects the input.
type ValidateFunc func(ctx context.Context, id string, funcName string, input map[string]any) error

// Controller owns all mutation of execution records. It resolves functions from the
// registry, invokes them, interprets their results and drives records through the
// transition table. Advancement of a given record is serialized on its ID while
// distinct records advance in parallel.
type Controller struct {
	registry *Registry
	store    RecordStore
	validate ValidateFunc
	clock    clock.Clock
	logger   Logger
	locks    *locks.KeyedMutex
}

func NewController(registry *Registry, store RecordStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		registry: registry,
		store:    store,
		clock:    clock.RealClock{},
		logger:   logger.New(os.Stderr),
		locks:    locks.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type ControllerOption func(c *Controller)

func WithClock(clock clock.Clock) ControllerOption {
	return func(c *Controller) {
		c.clock = clock
	}
}

func WithLogger(l Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithValidator sets the input validation hook. Without it all input is accepted.
func WithValidator(v ValidateFunc) ControllerOption {
	return func(c *Controller) {
		c.validate = v
	}
}
