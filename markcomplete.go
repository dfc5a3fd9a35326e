package execution

import (
	"context"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// MarkComplete attempts the guarded Running to Done transition. When the record is
// not complete it returns (nil, nil) - not ready yet is a normal outcome and a later
// advance will try again. On success it returns the record's snapshot. Failures are
// captured onto the record before being returned.
func (c *Controller) MarkComplete(ctx context.Context, r *Record) (*Snapshot, error) {
	if !r.IsComplete() {
		return nil, nil
	}

	ok, err := apply(ctx, c.store.Store, c.clock, r, TriggerAdvance)
	if err != nil {
		resp := c.HandleErrorResponse(ctx, r, errorPayloadFor(err))
		return nil, errors.Wrap(err, "failed to mark complete", j.MKV{
			"record_id":  resp.ID,
			"func_name":  r.FuncName,
			"error_kind": resp.ErrorDetails.Kind,
		})
	} else if !ok {
		// No applicable transition, the record is already terminal.
		return nil, nil
	}

	snapshot := r.Snapshot()
	return &snapshot, nil
}
