package execution

import (
	"encoding/json"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// Record is the persisted entity for a single registered function call. The
// controller is the only writer; all mutation commits through RecordStore.Store
// which must be atomic. Output and Error are mutually exclusive: at most one is
// ever non-empty and once set neither is cleared or overwritten.
type Record struct {
	// ID is assigned at creation and never changes.
	ID string

	// FuncName identifies the registered function to invoke.
	FuncName string

	// Input is the JSON encoded input payload, immutable after creation.
	Input []byte

	// Output is set exactly once, at successful completion.
	Output []byte

	// Error is the JSON encoded ErrorPayload, set exactly once, at failure.
	Error []byte

	Status           Status
	StatusModifiedAt time.Time
	StatusHistory    []StatusChange

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusChange is appended to the history every time a transition commits.
type StatusChange struct {
	Status     Status `json:"status"`
	OccurredAt string `json:"occurred_at"`
}

// IsComplete is the guard for the Running to Done transition.
func (r *Record) IsComplete() bool {
	return len(r.Output) > 0
}

// HasErrored is the guard for the transitions into Errored.
func (r *Record) HasErrored() bool {
	return len(r.Error) > 0
}

// ErrorPayload holds what is known about a failure: the kind groups failures by
// cause, the message is the failure's own description and the trace points at
// where it was captured.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// ErrorPayload decodes the record's error payload. The zero payload is returned
// for records that have not errored.
func (r *Record) ErrorPayload() (ErrorPayload, error) {
	var p ErrorPayload
	if !r.HasErrored() {
		return p, nil
	}

	err := Unmarshal(r.Error, &p)
	if err != nil {
		return ErrorPayload{}, errors.Wrap(err, "failed to decode error payload", j.MKV{
			"record_id": r.ID,
		})
	}

	return p, nil
}

// InputMap decodes the input payload into the key value mapping the registered
// function is invoked with.
func (r *Record) InputMap() (map[string]any, error) {
	input := make(map[string]any)
	if len(r.Input) == 0 {
		return input, nil
	}

	err := Unmarshal(r.Input, &input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode input payload", j.MKV{
			"record_id": r.ID,
		})
	}

	return input, nil
}

// Snapshot is a read-only projection of a record's current fields for consumption
// by presentation layers.
type Snapshot struct {
	ID               string          `json:"id"`
	FuncName         string          `json:"func_name"`
	Input            json.RawMessage `json:"input_json"`
	Status           Status          `json:"status"`
	StatusHistory    []StatusChange  `json:"status_history"`
	StatusModifiedAt time.Time       `json:"status_modified_at"`
	Output           json.RawMessage `json:"output_json,omitempty"`
}

// Snapshot copies the record's current state. The returned value shares no memory
// with the record so consumers cannot mutate persisted state.
func (r *Record) Snapshot() Snapshot {
	history := make([]StatusChange, len(r.StatusHistory))
	copy(history, r.StatusHistory)

	return Snapshot{
		ID:               r.ID,
		FuncName:         r.FuncName,
		Input:            append([]byte(nil), r.Input...),
		Status:           r.Status,
		StatusHistory:    history,
		StatusModifiedAt: r.StatusModifiedAt,
		Output:           append([]byte(nil), r.Output...),
	}
}
