package execution

import (
	"context"

	"github.com/google/uuid"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// Create resolves the target function, validates the input and persists a new record
// in the Created status, returning its snapshot. Validation runs before the first
// write so a rejected input never leaves a half-created record behind. Create is the
// only side effect that introduces a record; everything after it goes through
// Advance.
func (c *Controller) Create(ctx context.Context, funcName string, input map[string]any) (Snapshot, error) {
	_, err := c.registry.Resolve(funcName)
	if err != nil {
		return Snapshot{}, err
	}

	uid, err := uuid.NewRandom()
	if err != nil {
		return Snapshot{}, err
	}
	id := uid.String()

	if c.validate != nil {
		err := c.validate(ctx, id, funcName, input)
		if err != nil {
			return Snapshot{}, errors.Wrap(ErrInvalidInput, err.Error(), j.MKV{
				"record_id": id,
				"func_name": funcName,
			})
		}
	}

	object, err := Marshal(&input)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "failed to encode input payload", j.MKV{
			"func_name": funcName,
		})
	}

	now := c.clock.Now()
	r := &Record{
		ID:        id,
		FuncName:  funcName,
		Input:     object,
		Status:    StatusUnknown,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ok, err := apply(ctx, c.store.Store, c.clock, r, TriggerCreate)
	if err != nil {
		return Snapshot{}, err
	} else if !ok {
		// A fresh record always matches the create transition. Not matching means the
		// transition table was edited out from under us.
		return Snapshot{}, errors.New("create transition not applicable", j.MKV{
			"record_id": id,
			"status":    r.Status.String(),
		})
	}

	c.logger.Debug(ctx, "created execution", MKV{
		"record_id": id,
		"func_name": funcName,
	})

	return r.Snapshot(), nil
}
