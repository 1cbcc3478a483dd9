package intercept_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlprobe/internal/intercept"
	"github.com/roach88/sqlprobe/internal/ir"
	"github.com/roach88/sqlprobe/internal/recorder"
	"github.com/roach88/sqlprobe/internal/testutil"
)

func TestCatalogue_CoversStatementMethods(t *testing.T) {
	shapes := intercept.Catalogue()
	require.Len(t, shapes, 15)

	ops := make(map[intercept.Operation]bool, len(shapes))
	for _, s := range shapes {
		assert.False(t, ops[s.Op], "duplicate operation %q", s.Op)
		ops[s.Op] = true
		assert.NotEmpty(t, s.Method)
		assert.NotEmpty(t, s.Result)
	}

	shapes[0].Op = "mutated"
	assert.Equal(t, intercept.OpExecute, intercept.Catalogue()[0].Op, "Catalogue returns a copy")
}

func TestKnown(t *testing.T) {
	assert.True(t, intercept.Known(intercept.OpExecuteLargeUpdateColumnNames))
	assert.True(t, intercept.Known(intercept.OpDriverQuery))
	assert.False(t, intercept.Known("execute_batch"))
}

func TestNewTable_TracksEveryOperation(t *testing.T) {
	table := intercept.NewTable(recorder.NewExecutionTrace())
	for _, s := range intercept.Catalogue() {
		_, ok := table.Lookup(s.Op)
		assert.True(t, ok, "no wrapper for %q", s.Op)
	}
}

func TestTable_RegisterReplacesWrapper(t *testing.T) {
	table := intercept.NewTable(recorder.NewExecutionTrace())

	var got []string
	err := table.Register(intercept.OpExecute, func(ctx context.Context, op intercept.Operation, query string, original func(context.Context) error) error {
		got = append(got, string(op)+":"+query)
		return original(ctx)
	})
	require.NoError(t, err)

	called := false
	err = table.Dispatch(context.Background(), intercept.OpExecute, "SELECT 1", func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"execute:SELECT 1"}, got)
}

func TestTable_RegisterErrors(t *testing.T) {
	table := intercept.NewTable(recorder.NewExecutionTrace())
	noop := func(ctx context.Context, _ intercept.Operation, _ string, original func(context.Context) error) error {
		return original(ctx)
	}

	err := table.Register("execute_batch", noop)
	assert.ErrorIs(t, err, intercept.ErrUnknownOperation)

	err = table.Register(intercept.OpExecute, nil)
	assert.Error(t, err)

	table.Seal()
	assert.True(t, table.Sealed())
	err = table.Register(intercept.OpExecute, noop)
	assert.ErrorIs(t, err, intercept.ErrSealed)
}

func TestInstall_SealsOnSuccess(t *testing.T) {
	table := intercept.NewTable(recorder.NewExecutionTrace())
	var installed int
	inst := intercept.InstallerFunc(func(*intercept.Table) error {
		installed++
		return nil
	})

	require.NoError(t, intercept.Install(table, inst, inst))
	assert.Equal(t, 2, installed)
	assert.True(t, table.Sealed())
}

func TestInstall_LeavesTableOpenOnError(t *testing.T) {
	table := intercept.NewTable(recorder.NewExecutionTrace())
	failing := intercept.InstallerFunc(func(*intercept.Table) error {
		return errors.New("cannot patch")
	})

	err := intercept.Install(table, failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installer 0")
	assert.False(t, table.Sealed())
}

func TestTrack_SkipIsNotRecorded(t *testing.T) {
	trace := recorder.NewExecutionTrace()
	w := intercept.Track(trace, testutil.NewStepClock(0), nil)

	err := w(context.Background(), intercept.OpDriverExec, "SELECT 1", func(context.Context) error {
		return driver.ErrSkip
	})
	assert.ErrorIs(t, err, driver.ErrSkip)
	assert.Zero(t, trace.Len())
}

// panickingTracer fails on every append.
type panickingTracer struct{}

func (panickingTracer) Append(ir.ExecutionFact) { panic("trace full") }

func TestTrack_RecordingPanicIsContained(t *testing.T) {
	table := intercept.NewTable(panickingTracer{})

	err := table.Dispatch(context.Background(), intercept.OpExecuteUpdate, "UPDATE t SET a = 1", func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	err = table.Dispatch(context.Background(), intercept.OpExecuteUpdate, "UPDATE t SET a = 1", func(context.Context) error {
		return errBoom
	})
	assert.Same(t, errBoom, err)
}

func TestTrack_NilTracer(t *testing.T) {
	table := intercept.NewTable(nil)
	err := table.Dispatch(context.Background(), intercept.OpExecute, "SELECT 1", func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestOutcome_Fact(t *testing.T) {
	ok := intercept.Outcome{ExecutionMillis: 12}.Fact("SELECT 1", intercept.OpExecuteQuery)
	assert.Equal(t, ir.NewSuccessFact("SELECT 1", "execute_query", 12), ok)

	failed := intercept.Outcome{Failed: true}.Fact("SELEC 1", intercept.OpExecute)
	assert.Equal(t, ir.FailureExecutionMillis, failed.ExecutionMillis)
	assert.True(t, failed.Failed)
}
