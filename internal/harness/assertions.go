package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlprobe/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type       string             // Assertion type for categorization
	Expected   string             // Human-readable expected outcome
	Actual     string             // Human-readable actual outcome
	Executions []ir.ExecutionFact // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Executions) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, f := range e.Executions {
			status := "ok"
			if f.Failed {
				status = "failed"
			}
			fmt.Fprintf(&buf, "  [%d] %s %s %q\n", i+1, f.Operation, status, f.Statement)
		}
	}

	return buf.String()
}

func matchOutcome(f ir.ExecutionFact, failed *bool) bool {
	return failed == nil || f.Failed == *failed
}

// assertFactCount checks the number of facts, optionally filtered by outcome.
func assertFactCount(facts []ir.ExecutionFact, a Assertion) error {
	count := 0
	for _, f := range facts {
		if matchOutcome(f, a.Failed) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:       AssertFactCount,
		Expected:   fmt.Sprintf("%d facts%s", a.Count, outcomeSuffix(a.Failed)),
		Actual:     fmt.Sprintf("%d facts", count),
		Executions: facts,
	}
}

// assertFactContains checks that a fact with the statement text exists.
func assertFactContains(facts []ir.ExecutionFact, a Assertion) error {
	for _, f := range facts {
		if f.Statement != a.SQL || !matchOutcome(f, a.Failed) {
			continue
		}
		if a.Op != "" && f.Operation != a.Op {
			continue
		}
		if f.Failed && !f.HasSentinelTiming() {
			return &AssertionError{
				Type:       AssertFactContains,
				Expected:   fmt.Sprintf("failed fact %q with sentinel timing", a.SQL),
				Actual:     fmt.Sprintf("execution_millis = %d", f.ExecutionMillis),
				Executions: facts,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:       AssertFactContains,
		Expected:   fmt.Sprintf("fact %q%s", a.SQL, outcomeSuffix(a.Failed)),
		Actual:     "not found in trace",
		Executions: facts,
	}
}

// assertFactOrder checks that statements appear in the given order.
// Statements don't need to be consecutive (intervening facts are allowed).
func assertFactOrder(facts []ir.ExecutionFact, a Assertion) error {
	positions := make(map[string]int)
	for i, f := range facts {
		if _, seen := positions[f.Statement]; !seen {
			positions[f.Statement] = i + 1 // 1-indexed for readability
		}
	}

	for _, sql := range a.SQLs {
		if positions[sql] == 0 {
			return &AssertionError{
				Type:       AssertFactOrder,
				Expected:   fmt.Sprintf("all statements present: %q", a.SQLs),
				Actual:     fmt.Sprintf("missing statement: %q", sql),
				Executions: facts,
			}
		}
	}

	for i := 1; i < len(a.SQLs); i++ {
		prev, curr := a.SQLs[i-1], a.SQLs[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertFactOrder,
				Expected: fmt.Sprintf("statements in order: %q", a.SQLs),
				Actual: fmt.Sprintf("%q (pos %d) should be before %q (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Executions: facts,
			}
		}
	}
	return nil
}

// assertConstraintCount checks the number of constraints, optionally for
// one table.
func assertConstraintCount(constraints []ir.ColumnConstraint, a Assertion) error {
	count := 0
	for _, c := range constraints {
		if a.Table == "" || c.TableName == a.Table {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	scope := "in total"
	if a.Table != "" {
		scope = "for table " + a.Table
	}
	return &AssertionError{
		Type:     AssertConstraintCount,
		Expected: fmt.Sprintf("%d constraints %s", a.Count, scope),
		Actual:   fmt.Sprintf("%d constraints", count),
	}
}

// assertConstraintContains checks that table.column has a constraint.
func assertConstraintContains(constraints []ir.ColumnConstraint, a Assertion) error {
	key := a.Table + "." + a.Column
	for _, c := range constraints {
		if c.Key() != key {
			continue
		}
		if a.Nullable != nil && c.Nullable != *a.Nullable {
			return &AssertionError{
				Type:     AssertConstraintContains,
				Expected: fmt.Sprintf("%s nullable=%t", key, *a.Nullable),
				Actual:   fmt.Sprintf("%s nullable=%t", key, c.Nullable),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertConstraintContains,
		Expected: fmt.Sprintf("constraint for %s", key),
		Actual:   "not found in units info",
	}
}

// assertAnalysisFailed checks that every listed type failed analysis.
func assertAnalysisFailed(failures []AnalysisFailure, a Assertion) error {
	byType := make(map[string]AnalysisFailure, len(failures))
	for _, f := range failures {
		byType[f.TypeID] = f
	}
	for _, id := range a.Types {
		f, ok := byType[id]
		if !ok {
			return &AssertionError{
				Type:     AssertAnalysisFailed,
				Expected: fmt.Sprintf("type %s to fail analysis", id),
				Actual:   "analysed successfully",
			}
		}
		if a.Code != "" && f.Code != a.Code {
			return &AssertionError{
				Type:     AssertAnalysisFailed,
				Expected: fmt.Sprintf("type %s to fail with %s", id, a.Code),
				Actual:   fmt.Sprintf("failed with %s", f.Code),
			}
		}
	}
	return nil
}

func outcomeSuffix(failed *bool) string {
	if failed == nil {
		return ""
	}
	if *failed {
		return " (failed)"
	}
	return " (succeeded)"
}

// EvaluateAssertions runs all assertions against a result.
// Returns the error messages of failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFactCount:
			err = assertFactCount(result.Snapshot.Executions, assertion)
		case AssertFactContains:
			err = assertFactContains(result.Snapshot.Executions, assertion)
		case AssertFactOrder:
			err = assertFactOrder(result.Snapshot.Executions, assertion)
		case AssertConstraintCount:
			err = assertConstraintCount(result.Snapshot.Constraints, assertion)
		case AssertConstraintContains:
			err = assertConstraintContains(result.Snapshot.Constraints, assertion)
		case AssertAnalysisFailed:
			err = assertAnalysisFailed(result.Failures, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
