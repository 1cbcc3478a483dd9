package intercept_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlprobe/internal/intercept"
	"github.com/roach88/sqlprobe/internal/ir"
	"github.com/roach88/sqlprobe/internal/recorder"
	"github.com/roach88/sqlprobe/internal/testutil"
)

// openTracedSQLite opens an in-memory database whose driver calls are
// dispatched through a fresh table.
func openTracedSQLite(t *testing.T) (*sql.DB, *recorder.ExecutionTrace) {
	t.Helper()
	trace := recorder.NewExecutionTrace()
	table := intercept.NewTable(trace, intercept.WithClock(testutil.NewStepClock(2*time.Millisecond)))

	drv := intercept.WrapDriver(&sqlite3.SQLiteDriver{}, table)
	connector, err := drv.(driver.DriverContext).OpenConnector(":memory:")
	require.NoError(t, err)

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db, trace
}

func TestDriver_RecordsExecAndQuery(t *testing.T) {
	db, trace := openTracedSQLite(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE foo (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO foo (name) VALUES (?)", "a")
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT name FROM foo WHERE id = ?", 1).Scan(&name))
	assert.Equal(t, "a", name)

	facts := trace.Snapshot()
	require.Len(t, facts, 3)
	assert.Equal(t, string(intercept.OpDriverExec), facts[0].Operation)
	assert.Equal(t, string(intercept.OpDriverExec), facts[1].Operation)
	assert.Equal(t, string(intercept.OpDriverQuery), facts[2].Operation)
	assert.Equal(t, "SELECT name FROM foo WHERE id = ?", facts[2].Statement)
	for _, f := range facts {
		assert.False(t, f.Failed)
		assert.Equal(t, int64(2), f.ExecutionMillis)
	}
}

func TestDriver_FailureRecordsSentinel(t *testing.T) {
	db, trace := openTracedSQLite(t)

	_, err := db.ExecContext(context.Background(), "SELEC 1")
	require.Error(t, err)

	var sqliteErr sqlite3.Error
	assert.ErrorAs(t, err, &sqliteErr, "driver error must reach the caller unchanged")

	facts := trace.Snapshot()
	require.Len(t, facts, 1)
	assert.Equal(t, ir.NewFailureFact("SELEC 1", string(intercept.OpDriverExec)), facts[0])
}

func TestDriver_PreparedStatementRecordedPerExecution(t *testing.T) {
	db, trace := openTracedSQLite(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE foo (v INTEGER)")
	require.NoError(t, err)

	stmt, err := db.PrepareContext(ctx, "INSERT INTO foo (v) VALUES (?)")
	require.NoError(t, err)
	defer stmt.Close()

	for i := 0; i < 3; i++ {
		_, err := stmt.ExecContext(ctx, i)
		require.NoError(t, err)
	}

	facts := trace.Snapshot()
	require.Len(t, facts, 4)
	for _, f := range facts[1:] {
		assert.Equal(t, "INSERT INTO foo (v) VALUES (?)", f.Statement)
		assert.Equal(t, string(intercept.OpDriverExec), f.Operation)
	}
}

func TestDriver_TransactionsPassThrough(t *testing.T) {
	db, trace := openTracedSQLite(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE foo (v INTEGER)")
	require.NoError(t, err)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO foo (v) VALUES (1)")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM foo").Scan(&n))
	assert.Zero(t, n)
	assert.Equal(t, 3, trace.Len())
}

func TestDriverInstaller_RegistersOnce(t *testing.T) {
	trace := recorder.NewExecutionTrace()
	table := intercept.NewTable(trace)
	name := "sqlprobe-" + strings.ReplaceAll(t.Name(), "/", "-")

	inst := intercept.DriverInstaller{Name: name, Base: &sqlite3.SQLiteDriver{}}
	require.NoError(t, intercept.Install(table, inst))
	assert.True(t, table.Sealed())

	db, err := sql.Open(name, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	_, err = db.Exec("CREATE TABLE bar (x INTEGER)")
	require.NoError(t, err)
	assert.Equal(t, 1, trace.Len())

	err = inst.Install(table)
	require.Error(t, err, "second registration under the same name")
	assert.Contains(t, err.Error(), name)
}

func TestDriverInstaller_RequiresNameAndBase(t *testing.T) {
	table := intercept.NewTable(nil)
	assert.Error(t, intercept.DriverInstaller{Base: &sqlite3.SQLiteDriver{}}.Install(table))
	assert.Error(t, intercept.DriverInstaller{Name: "x"}.Install(table))
}
