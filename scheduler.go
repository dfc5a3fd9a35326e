package execution

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/robfig/cron/v3"
	"k8s.io/utils/clock"

	"github.com/andrewwormald/execution/internal/errmeta"
	"github.com/andrewwormald/execution/internal/errorcounter"
	"github.com/andrewwormald/execution/internal/logger"
	"github.com/andrewwormald/execution/internal/metrics"
)

// Submitter enqueues independent asynchronous advancement work for a record. The
// only contract is that submitted work eventually calls Advance for the ID at least
// once; repeated submissions are safe because Advance is idempotent.
type Submitter interface {
	Submit(ctx context.Context, recordID string) error
}

const (
	defaultSpec                = "@every 30s"
	defaultErrBackOff          = time.Second * 30
	defaultFailureLogThreshold = 3
)

// Scheduler periodically queries the store for all non-terminal records and advances
// each one as an independent unit of work. One record's failure, or its function
// blocking, never holds up the rest of the batch.
type Scheduler struct {
	controller *Controller
	store      RecordStore
	clock      clock.Clock
	logger     Logger
	spec       string
	schedule   cron.Schedule
	errBackOff time.Duration

	// failures counts consecutive advance failures per record so repeat offenders
	// get escalated in the logs.
	failures            *errorcounter.Counter
	failureLogThreshold int

	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

func NewScheduler(controller *Controller, store RecordStore, opts ...SchedulerOption) (*Scheduler, error) {
	s := &Scheduler{
		controller:          controller,
		store:               store,
		clock:               clock.RealClock{},
		logger:              logger.New(os.Stderr),
		spec:                defaultSpec,
		errBackOff:          defaultErrBackOff,
		failures:            errorcounter.New(),
		failureLogThreshold: defaultFailureLogThreshold,
	}

	for _, opt := range opts {
		opt(s)
	}

	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse schedule spec")
	}
	s.schedule = schedule

	return s, nil
}

type SchedulerOption func(s *Scheduler)

// WithSchedule sets the cadence as a cron spec, e.g. "@every 10s" or "*/5 * * * *".
func WithSchedule(spec string) SchedulerOption {
	return func(s *Scheduler) {
		s.spec = spec
	}
}

func WithSchedulerClock(clock clock.Clock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func WithSchedulerLogger(l Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

func WithErrBackOff(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.errBackOff = d
	}
}

// Run blocks, advancing all pending records on the configured cadence until ctx is
// cancelled or Stop is called. Scan failures back off and retry; they never stop the
// loop.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer s.inflight.Wait()

	for {
		next := s.schedule.Next(s.clock.Now())
		err := waitUntil(ctx, s.clock, next)
		if err != nil {
			return err
		}

		err = s.AdvanceAll(ctx)
		if errors.Is(err, context.Canceled) {
			return err
		} else if err != nil {
			s.logger.Error(ctx, err)
			err = wait(ctx, s.clock, s.errBackOff)
			if err != nil {
				return err
			}
		}
	}
}

// Stop cancels the run loop and waits for in-flight advances to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	s.inflight.Wait()
}

// AdvanceAll scans for all records whose status is not terminal and dispatches an
// advance for each in its own goroutine, waiting for the batch to finish. Per-record
// failures are recorded on the record itself and logged here - they never abort the
// batch. Only a scan failure is returned.
func (s *Scheduler) AdvanceAll(ctx context.Context) error {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return err
	}

	metrics.SchedulerPending.Set(float64(len(pending)))
	s.logger.Debug(ctx, "advancing pending executions", MKV{
		"count": strconv.Itoa(len(pending)),
	})

	var wg sync.WaitGroup
	for _, r := range pending {
		wg.Add(1)
		go func(id, funcName string) {
			defer wg.Done()
			s.advanceOne(ctx, id, funcName)
		}(r.ID, r.FuncName)
	}
	wg.Wait()

	return nil
}

// Submit dispatches advancement of a single record and returns immediately. The
// result is logged, not returned: a failed advance is always inspectable via the
// record's error payload.
func (s *Scheduler) Submit(ctx context.Context, recordID string) error {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.advanceOne(ctx, recordID, "")
	}()

	return nil
}

var _ Submitter = (*Scheduler)(nil)

func (s *Scheduler) advanceOne(ctx context.Context, id, funcName string) {
	err := s.controller.Advance(ctx, id)
	if err != nil {
		count := s.failures.Add(id)
		meta := map[string]string{
			"record_id": id,
			"func_name": funcName,
		}
		if count >= s.failureLogThreshold {
			meta["consecutive_failures"] = strconv.Itoa(count)
		}

		// NoReturnErr: one record's failure must not halt the scan; log and move on.
		s.logger.Error(ctx, errmeta.New(err, meta))
		return
	}

	s.failures.Clear(id)
}

func waitUntil(ctx context.Context, clock clock.Clock, t time.Time) error {
	return wait(ctx, clock, t.Sub(clock.Now()))
}

func wait(ctx context.Context, clock clock.Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
