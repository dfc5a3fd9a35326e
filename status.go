package execution

import "fmt"

// Status is the lifecycle state of an execution record. StatusCreated is the only
// valid initial status and StatusDone and StatusErrored are terminal.
type Status int

const (
	StatusUnknown  Status = 0
	StatusCreated  Status = 1
	StatusRunning  Status = 2
	StatusDone     Status = 3
	StatusErrored  Status = 4
	statusSentinel Status = 5
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "Unknown"
	case StatusCreated:
		return "Created"
	case StatusRunning:
		return "Running"
	case StatusDone:
		return "Done"
	case StatusErrored:
		return "Errored"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

func (s Status) Valid() bool {
	return s > StatusUnknown && s < statusSentinel
}

// Terminal reports whether no further transition is defined out of s. Terminal
// records are excluded from the scheduler's pending query and advancing them is
// a no-op.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusErrored:
		return true
	default:
		return false
	}
}

// TerminalStatuses returns the set of statuses no transition leaves. It is exposed
// so that stores can build their pending queries from the same definition the
// transition table uses.
func TerminalStatuses() []Status {
	return []Status{StatusDone, StatusErrored}
}
