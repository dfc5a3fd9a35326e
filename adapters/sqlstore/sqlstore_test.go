package sqlstore_test

import (
	"database/sql"
	"testing"

	"github.com/corverroos/truss"
	_ "github.com/go-sql-driver/mysql"

	"github.com/andrewwormald/execution"
	"github.com/andrewwormald/execution/adapters/adaptertest"
	"github.com/andrewwormald/execution/adapters/sqlstore"
)

func TestStore(t *testing.T) {
	adaptertest.RunRecordStoreTest(t, func() execution.RecordStore {
		dbc := ConnectForTesting(t)
		return sqlstore.New(dbc, dbc, "executions")
	})
}

func ConnectForTesting(t *testing.T) *sql.DB {
	return truss.ConnectForTesting(t, sqlstore.Schema("executions"))
}
