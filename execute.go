package execution

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// Execute invokes the registered function with the record's input payload and stores
// the serialized result as the record's output. The original, pre-serialization
// result is returned to the caller.
//
// A function error is captured onto the record via HandleErrorResponse and returned
// wrapped as ErrExecutionFailed - the only path that both records and propagates a
// failure. A result that cannot be structurally encoded falls back to its string
// form: the string is stored as output, the record is not errored, and
// ErrNotSerializable is returned so the direct caller knows the output is best
// effort.
func (c *Controller) Execute(ctx context.Context, r *Record) (any, error) {
	fn, err := c.registry.Resolve(r.FuncName)
	if err != nil {
		return nil, err
	}

	if r.IsComplete() || r.HasErrored() {
		// The function already produced its outcome. Never invoke it twice.
		return nil, nil
	}

	input, err := r.InputMap()
	if err != nil {
		return nil, err
	}

	result, err := fn(ctx, input)
	if err != nil {
		resp := c.HandleErrorResponse(ctx, r, errorPayloadFor(err))
		return nil, errors.Wrap(ErrExecutionFailed, err.Error(), j.MKV{
			"record_id":  r.ID,
			"func_name":  r.FuncName,
			"error_kind": resp.ErrorDetails.Kind,
		})
	}

	object, err := Marshal(&result)
	if err != nil {
		if !notSerializable(err) {
			return nil, errors.Wrap(err, "failed to encode result", j.MKV{
				"record_id": r.ID,
				"func_name": r.FuncName,
			})
		}

		// Best effort fallback: store the string form so there is at least something
		// to show.
		text := fmt.Sprintf("%v", result)
		object, merr := Marshal(&text)
		if merr != nil {
			return nil, merr
		}

		err = c.storeOutput(ctx, r, object)
		if err != nil {
			return nil, err
		}

		return result, errors.Wrap(ErrNotSerializable, "", j.MKV{
			"record_id": r.ID,
			"func_name": r.FuncName,
		})
	}

	err = c.storeOutput(ctx, r, object)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Controller) storeOutput(ctx context.Context, r *Record, object []byte) error {
	r.Output = object
	r.UpdatedAt = c.clock.Now()
	return c.store.Store(ctx, r)
}

// notSerializable reports whether err is encoding/json's signal that the value has no
// structural encoding, as opposed to an encoder failure that should be treated as a
// real error.
func notSerializable(err error) bool {
	var (
		typeErr      *json.UnsupportedTypeError
		valueErr     *json.UnsupportedValueError
		marshalerErr *json.MarshalerError
	)
	return errors.As(err, &typeErr) || errors.As(err, &valueErr) || errors.As(err, &marshalerErr)
}
