package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/luno/jettison/errors"

	"github.com/andrewwormald/execution"
)

// SQLStore is a MySQL backed RecordStore. Writes commit inside a transaction and
// updates are conditional on the status the row held when the transaction read it,
// so two racing writers cannot both apply conflicting transitions.
type SQLStore struct {
	writer *sql.DB
	reader *sql.DB

	tableName    string
	cols         string
	selectPrefix string
}

func New(writer *sql.DB, reader *sql.DB, tableName string) *SQLStore {
	s := &SQLStore{
		writer:    writer,
		reader:    reader,
		tableName: tableName,
	}

	s.cols = " `id`, `func_name`, `input`, `output`, `error`, `status`, `status_modified_at`, `status_history`, `created_at`, `updated_at` "
	s.selectPrefix = " select " + s.cols + " from " + s.tableName + " where "

	return s
}

var _ execution.RecordStore = (*SQLStore)(nil)

func (s *SQLStore) Store(ctx context.Context, r *execution.Record) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		mustCreate bool
		prior      execution.Status
	)
	err = tx.QueryRowContext(ctx,
		"select `status` from "+s.tableName+" where `id`=? for update", r.ID,
	).Scan(&prior)
	if errors.Is(err, sql.ErrNoRows) {
		mustCreate = true
	} else if err != nil {
		return err
	}

	if !mustCreate && prior.Terminal() && prior != r.Status {
		return errors.Wrap(execution.ErrStaleRecord, "")
	}

	if mustCreate {
		err = s.create(ctx, tx, r)
	} else {
		err = s.update(ctx, tx, r, prior)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLStore) Lookup(ctx context.Context, id string) (*execution.Record, error) {
	return s.lookupWhere(ctx, s.reader, "`id`=?", id)
}

func (s *SQLStore) ListPending(ctx context.Context) ([]execution.Record, error) {
	terminal := execution.TerminalStatuses()
	placeholders := make([]string, 0, len(terminal))
	args := make([]any, 0, len(terminal))
	for _, status := range terminal {
		placeholders = append(placeholders, "?")
		args = append(args, int(status))
	}

	where := "`status` not in (" + strings.Join(placeholders, ",") + ") order by `created_at` asc"
	rs, err := s.listWhere(ctx, s.reader, where, args...)
	if err != nil {
		return nil, err
	}

	pending := make([]execution.Record, 0, len(rs))
	for _, r := range rs {
		pending = append(pending, *r)
	}

	return pending, nil
}

// Schema returns the create table statement for the given table name, used for
// bootstrapping test databases and as reference for migrations.
func Schema(tableName string) string {
	return `
create table ` + tableName + ` (
  id varchar(36) not null,
  func_name varchar(512) not null,
  input mediumblob,
  output mediumblob,
  error mediumblob,
  status int not null default ` + strconv.Itoa(int(execution.StatusUnknown)) + `,
  status_modified_at datetime(3) not null,
  status_history mediumblob,
  created_at datetime(3) not null,
  updated_at datetime(3) not null,

  primary key (id),
  index by_status (status)
);`
}
