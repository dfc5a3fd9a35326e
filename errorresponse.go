package execution

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/andrewwormald/execution/internal/errmeta"
	"github.com/andrewwormald/execution/internal/stack"
)

// ErrorResponse is returned to callers so a synchronous failure carries the same
// details that were persisted onto the record.
type ErrorResponse struct {
	ID           string       `json:"id"`
	ErrorDetails ErrorPayload `json:"error_details"`
}

// HandleErrorResponse records the failure details onto the record's error payload
// and applies the error transition, committing both in a single atomic write. It is
// the terminal sink for error information and never returns an error to the caller;
// persistence failures are logged.
//
// First error wins: calling it again on an already errored record leaves the stored
// payload untouched and returns it, preserving the root cause.
func (c *Controller) HandleErrorResponse(ctx context.Context, r *Record, details ErrorPayload) ErrorResponse {
	if r.HasErrored() {
		existing, err := r.ErrorPayload()
		if err != nil {
			// NoReturnErr: the stored payload cannot be decoded; report the new
			// details but leave the stored bytes alone.
			c.logger.Error(ctx, errmeta.New(err, map[string]string{"record_id": r.ID}))
			return ErrorResponse{ID: r.ID, ErrorDetails: details}
		}

		return ErrorResponse{ID: r.ID, ErrorDetails: existing}
	}

	if r.Status.Terminal() {
		// A Done record already holds an output and output and error are mutually
		// exclusive. Nothing is recorded.
		c.logger.Debug(ctx, "dropping error details for terminal record", MKV{
			"record_id": r.ID,
			"status":    r.Status.String(),
		})
		return ErrorResponse{ID: r.ID, ErrorDetails: details}
	}

	object, err := Marshal(&details)
	if err != nil {
		// NoReturnErr: keep at least the kind and message rather than losing the
		// failure entirely.
		c.logger.Error(ctx, errmeta.New(err, map[string]string{"record_id": r.ID}))
		object = []byte(fmt.Sprintf(`{"kind":%q,"message":%q}`, details.Kind, details.Message))
	}
	r.Error = object

	_, err = apply(ctx, c.store.Store, c.clock, r, TriggerError)
	if err != nil {
		// NoReturnErr: the terminal sink cannot raise. The next scheduler pass will
		// find the record still pending and capture the failure again.
		c.logger.Error(ctx, errmeta.New(err, map[string]string{"record_id": r.ID}))
	}

	return ErrorResponse{ID: r.ID, ErrorDetails: details}
}

// errorPayloadFor builds the payload persisted for a failure. The trace is captured
// here so the payload points at the call site that routed the error.
func errorPayloadFor(err error) ErrorPayload {
	return ErrorPayload{
		Kind:    errKind(err),
		Message: err.Error(),
		Trace:   stack.Trace(1),
	}
}

// errKind names the root cause's concrete type so failures can be grouped by kind.
func errKind(err error) string {
	for {
		next := stderrors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}

	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
