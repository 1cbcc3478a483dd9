package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlprobe/internal/ir"
)

func boolPtr(b bool) *bool { return &b }

func sampleFacts() []ir.ExecutionFact {
	return []ir.ExecutionFact{
		ir.NewSuccessFact("INSERT INTO foo VALUES (1)", "execute_update", 2),
		ir.NewSuccessFact("SELECT * FROM foo", "execute_query", 1),
		ir.NewFailureFact("SELEC 1", "execute"),
	}
}

func sampleConstraints() []ir.ColumnConstraint {
	return []ir.ColumnConstraint{
		{TableName: "EntityX", ColumnName: "y"},
		{TableName: "BAR", ColumnName: "foo", MaxLength: 64},
		{TableName: "BAR", ColumnName: "email", Nullable: true, Unique: true},
	}
}

func TestAssertFactCount(t *testing.T) {
	facts := sampleFacts()

	assert.NoError(t, assertFactCount(facts, Assertion{Type: AssertFactCount, Count: 3}))
	assert.NoError(t, assertFactCount(facts, Assertion{Type: AssertFactCount, Count: 1, Failed: boolPtr(true)}))
	assert.NoError(t, assertFactCount(facts, Assertion{Type: AssertFactCount, Count: 2, Failed: boolPtr(false)}))

	err := assertFactCount(facts, Assertion{Type: AssertFactCount, Count: 2, Failed: boolPtr(true)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 2 facts (failed)")
	assert.Contains(t, err.Error(), "Actual: 1 facts")
	assert.Contains(t, err.Error(), `[3] execute failed "SELEC 1"`)
}

func TestAssertFactContains(t *testing.T) {
	facts := sampleFacts()

	assert.NoError(t, assertFactContains(facts, Assertion{SQL: "SELECT * FROM foo"}))
	assert.NoError(t, assertFactContains(facts, Assertion{SQL: "SELECT * FROM foo", Op: "execute_query"}))
	assert.NoError(t, assertFactContains(facts, Assertion{SQL: "SELEC 1", Failed: boolPtr(true)}))

	err := assertFactContains(facts, Assertion{SQL: "SELECT * FROM foo", Op: "execute"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in trace")

	err = assertFactContains(facts, Assertion{SQL: "SELEC 1", Failed: boolPtr(false)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(succeeded)")
}

func TestAssertFactContains_FailedFactNeedsSentinel(t *testing.T) {
	facts := []ir.ExecutionFact{{Statement: "SELEC 1", Failed: true, ExecutionMillis: 4}}

	err := assertFactContains(facts, Assertion{SQL: "SELEC 1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentinel timing")
}

func TestAssertFactOrder(t *testing.T) {
	facts := sampleFacts()

	assert.NoError(t, assertFactOrder(facts, Assertion{SQLs: []string{"INSERT INTO foo VALUES (1)", "SELEC 1"}}))

	err := assertFactOrder(facts, Assertion{SQLs: []string{"SELEC 1", "SELECT * FROM foo"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = assertFactOrder(facts, Assertion{SQLs: []string{"SELECT * FROM foo", "DELETE FROM foo"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing statement: "DELETE FROM foo"`)
}

func TestAssertConstraintCount(t *testing.T) {
	cs := sampleConstraints()

	assert.NoError(t, assertConstraintCount(cs, Assertion{Count: 3}))
	assert.NoError(t, assertConstraintCount(cs, Assertion{Count: 2, Table: "BAR"}))
	assert.NoError(t, assertConstraintCount(cs, Assertion{Count: 0, Table: "nope"}))

	err := assertConstraintCount(cs, Assertion{Count: 1, Table: "BAR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 constraints for table BAR")
}

func TestAssertConstraintContains(t *testing.T) {
	cs := sampleConstraints()

	assert.NoError(t, assertConstraintContains(cs, Assertion{Table: "BAR", Column: "foo"}))
	assert.NoError(t, assertConstraintContains(cs, Assertion{Table: "BAR", Column: "email", Nullable: boolPtr(true)}))

	err := assertConstraintContains(cs, Assertion{Table: "BAR", Column: "email", Nullable: boolPtr(false)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAR.email nullable=true")

	err = assertConstraintContains(cs, Assertion{Table: "EntityX", Column: "foo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint for EntityX.foo")
}

func TestAssertAnalysisFailed(t *testing.T) {
	failures := []AnalysisFailure{{TypeID: "com.foo.Missing", Code: "TYPE_NOT_FOUND"}}

	assert.NoError(t, assertAnalysisFailed(failures, Assertion{Types: []string{"com.foo.Missing"}}))
	assert.NoError(t, assertAnalysisFailed(failures, Assertion{Types: []string{"com.foo.Missing"}, Code: "TYPE_NOT_FOUND"}))

	err := assertAnalysisFailed(failures, Assertion{Types: []string{"com.foo.Missing"}, Code: "INVALID_METADATA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed with TYPE_NOT_FOUND")

	err = assertAnalysisFailed(failures, Assertion{Types: []string{"com.foo.EntityX"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysed successfully")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Snapshot = ir.EpisodeSnapshot{
		EpisodeID:   "ep",
		Executions:  sampleFacts(),
		Constraints: sampleConstraints(),
	}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertFactCount, Count: 3},
		{Type: AssertConstraintCount, Count: 99},
		{Type: "bogus"},
	})

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "constraint_count")
	assert.Contains(t, errs[1], `assertion[2]: unknown assertion type "bogus"`)
}
