package execution

import (
	"context"

	"github.com/luno/jettison/errors"

	"github.com/andrewwormald/execution/internal/errmeta"
	"github.com/andrewwormald/execution/internal/metrics"
)

// Advance is the idempotent re-entrant driver: calling it any number of times on the
// same record converges to a terminal status and never re-invokes the function once
// an output or error payload is set. Advancement is serialized per record ID so two
// concurrent calls for one record cannot race; distinct records advance in parallel.
//
// Advancing a terminal record is a no-op. Otherwise a record that is not yet Running
// is executed and moved Created to Running, and a Running record is offered the
// guarded Running to Done transition. Any failure is captured onto the record before
// being returned wrapped with context - callers scheduling batches must treat a
// non-nil error as "this record failed this round" and carry on with the rest.
func (c *Controller) Advance(ctx context.Context, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	r, err := c.store.Lookup(ctx, id)
	if err != nil {
		return err
	}

	if r.Status.Terminal() {
		metrics.AdvanceNoops.WithLabelValues(r.FuncName).Inc()
		return nil
	}

	t0 := c.clock.Now()
	err = c.advanceOnce(ctx, r)
	metrics.AdvanceLatency.WithLabelValues(r.FuncName).Observe(c.clock.Since(t0).Seconds())
	if err != nil {
		metrics.AdvanceErrors.WithLabelValues(r.FuncName).Inc()
		return err
	}

	c.logger.Debug(ctx, "advanced execution", MKV{
		"record_id": r.ID,
		"func_name": r.FuncName,
		"status":    r.Status.String(),
	})

	return nil
}

func (c *Controller) advanceOnce(ctx context.Context, r *Record) error {
	if r.Status != StatusRunning {
		_, err := c.Execute(ctx, r)
		if errors.Is(err, ErrNotSerializable) {
			// NoReturnErr: the string form of the result was stored as output and the
			// record still advances. The warning only matters to direct callers of
			// Execute.
			c.logger.Debug(ctx, "stored non-serializable result as its string form", MKV{
				"record_id": r.ID,
				"func_name": r.FuncName,
			})
		} else if err != nil {
			return c.failAdvance(ctx, r, err)
		}

		_, err = apply(ctx, c.store.Store, c.clock, r, TriggerAdvance)
		if err != nil {
			return c.failAdvance(ctx, r, err)
		}

		return nil
	}

	_, err := c.MarkComplete(ctx, r)
	if err != nil {
		// MarkComplete already captured the failure onto the record.
		return errors.Wrap(err, "failed to advance")
	}

	return nil
}

// failAdvance is the single error exit for advancement: the failure is captured onto
// the record before being returned so it is never silently lost.
func (c *Controller) failAdvance(ctx context.Context, r *Record, err error) error {
	resp := c.HandleErrorResponse(ctx, r, errorPayloadFor(err))

	return errmeta.New(errors.Wrap(err, "failed to advance"), map[string]string{
		"record_id":  resp.ID,
		"func_name":  r.FuncName,
		"error_kind": resp.ErrorDetails.Kind,
	})
}
