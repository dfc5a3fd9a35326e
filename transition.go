package execution

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/andrewwormald/execution/internal/metrics"
)

// Trigger names an attempted state change. Triggers are looked up against the
// transition table together with the record's current status.
type Trigger int

const (
	TriggerUnknown  Trigger = 0
	TriggerCreate   Trigger = 1
	TriggerAdvance  Trigger = 2
	TriggerError    Trigger = 3
	triggerSentinel Trigger = 4
)

func (t Trigger) String() string {
	switch t {
	case TriggerUnknown:
		return "Unknown"
	case TriggerCreate:
		return "Create"
	case TriggerAdvance:
		return "Advance"
	case TriggerError:
		return "Error"
	default:
		return fmt.Sprintf("Trigger(%d)", t)
	}
}

func (t Trigger) Valid() bool {
	return t > TriggerUnknown && t < triggerSentinel
}

type transition struct {
	to Status

	// guard must hold for the transition to apply. A nil guard always holds.
	guard func(r *Record) bool
}

// transitions is keyed by the record's current status and then by trigger. No
// entries exist for StatusDone or StatusErrored so terminal records never move.
var transitions = map[Status]map[Trigger]transition{
	StatusUnknown: {
		TriggerCreate: {to: StatusCreated},
	},
	StatusCreated: {
		TriggerAdvance: {to: StatusRunning},
		TriggerError:   {to: StatusErrored, guard: (*Record).HasErrored},
	},
	StatusRunning: {
		TriggerAdvance: {to: StatusDone, guard: (*Record).IsComplete},
		TriggerError:   {to: StatusErrored, guard: (*Record).HasErrored},
	},
}

type storeFunc func(ctx context.Context, r *Record) error

// apply looks up the transition for the record's current status and the trigger. A
// missing transition or a failing guard returns (false, nil) - not applicable is a
// normal outcome, not an error. On a match the record moves to the destination
// status, the state change is tracked onto the history and the record is persisted
// in a single Store call so that the status change and the history entry commit
// together.
func apply(ctx context.Context, store storeFunc, clock clock.Clock, r *Record, t Trigger) (bool, error) {
	candidates, ok := transitions[r.Status]
	if !ok {
		return false, nil
	}

	tr, ok := candidates[t]
	if !ok {
		return false, nil
	}

	if tr.guard != nil && !tr.guard(r) {
		return false, nil
	}

	from := r.Status
	r.Status = tr.to
	trackStateChange(r, clock.Now())

	err := store(ctx, r)
	if err != nil {
		return false, err
	}

	metrics.Transitions.WithLabelValues(r.FuncName, from.String(), tr.to.String()).Inc()
	return true, nil
}

// historyTimeFormat labels every history entry with the timezone it was recorded in.
const historyTimeFormat = "2006-01-02 15:04:05 (MST)"

// trackStateChange runs on every applied transition and is the only place the
// status history grows. The last entry always matches the record's current status.
func trackStateChange(r *Record, now time.Time) {
	r.StatusModifiedAt = now
	r.UpdatedAt = now
	r.StatusHistory = append(r.StatusHistory, StatusChange{
		Status:     r.Status,
		OccurredAt: now.Format(historyTimeFormat),
	})
}
