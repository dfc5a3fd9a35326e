package sqlstore

import (
	"context"
	"database/sql"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"

	"github.com/andrewwormald/execution"
)

func (s *SQLStore) create(ctx context.Context, tx *sql.Tx, r *execution.Record) error {
	history, err := execution.Marshal(&r.StatusHistory)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, "insert into "+s.tableName+" set "+
		" `id`=?, `func_name`=?, `input`=?, `output`=?, `error`=?, `status`=?, "+
		" `status_modified_at`=?, `status_history`=?, `created_at`=?, `updated_at`=? ",
		r.ID,
		r.FuncName,
		r.Input,
		r.Output,
		r.Error,
		int(r.Status),
		r.StatusModifiedAt,
		history,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create record", j.MKV{
			"id":        r.ID,
			"func_name": r.FuncName,
			"status":    r.Status.String(),
		})
	}

	return nil
}

// update is conditional on the status the transaction read: zero rows affected means
// another writer moved the record first.
func (s *SQLStore) update(ctx context.Context, tx *sql.Tx, r *execution.Record, prior execution.Status) error {
	history, err := execution.Marshal(&r.StatusHistory)
	if err != nil {
		return err
	}

	resp, err := tx.ExecContext(ctx, "update "+s.tableName+" set "+
		" `output`=?, `error`=?, `status`=?, `status_modified_at`=?, `status_history`=?, `updated_at`=? "+
		" where `id`=? and `status`=?",
		r.Output,
		r.Error,
		int(r.Status),
		r.StatusModifiedAt,
		history,
		r.UpdatedAt,
		r.ID,
		int(prior),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update record", j.MKV{
			"id":        r.ID,
			"func_name": r.FuncName,
			"status":    r.Status.String(),
		})
	}

	n, err := resp.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 && prior != r.Status {
		return errors.Wrap(execution.ErrStaleRecord, "", j.MKV{
			"id":     r.ID,
			"status": r.Status.String(),
		})
	}

	return nil
}

func (s *SQLStore) lookupWhere(ctx context.Context, dbc *sql.DB, where string, args ...any) (*execution.Record, error) {
	return recordScan(dbc.QueryRowContext(ctx, s.selectPrefix+where, args...))
}

// listWhere queries the table with the provided where clause, then scans and returns
// all the rows.
func (s *SQLStore) listWhere(ctx context.Context, dbc *sql.DB, where string, args ...any) ([]*execution.Record, error) {
	rows, err := dbc.QueryContext(ctx, s.selectPrefix+where, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listWhere")
	}
	defer rows.Close()

	var res []*execution.Record
	for rows.Next() {
		r, err := recordScan(rows)
		if err != nil {
			return nil, err
		}

		res = append(res, r)
	}

	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	return res, nil
}

type row interface {
	Scan(dest ...any) error
}

func recordScan(row row) (*execution.Record, error) {
	var (
		r       execution.Record
		status  int
		history []byte
	)
	err := row.Scan(
		&r.ID,
		&r.FuncName,
		&r.Input,
		&r.Output,
		&r.Error,
		&status,
		&r.StatusModifiedAt,
		&history,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(execution.ErrRecordNotFound, "")
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to scan record")
	}

	r.Status = execution.Status(status)

	if len(history) > 0 {
		err = execution.Unmarshal(history, &r.StatusHistory)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode status history", j.MKV{
				"id": r.ID,
			})
		}
	}

	return &r, nil
}
