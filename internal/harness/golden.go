package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sqlprobe/internal/ir"
)

// goldenDocument builds the canonical map of a run: the episode snapshot
// plus analysis failures. Failure messages are left out so that golden
// files do not depend on error wording.
func goldenDocument(scenarioName string, result *Result) map[string]any {
	snap := result.Snapshot
	executions := make([]any, len(snap.Executions))
	for i, f := range snap.Executions {
		executions[i] = f
	}
	constraints := make([]any, len(snap.Constraints))
	for i, c := range snap.Constraints {
		constraints[i] = c
	}
	failures := make([]any, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = map[string]any{
			"type_id": f.TypeID,
			"code":    f.Code,
		}
	}

	return map[string]any{
		"scenario_name":     scenarioName,
		"episode_id":        snap.EpisodeID,
		"executions":        executions,
		"constraints":       constraints,
		"analysis_failures": failures,
	}
}

// MarshalGolden returns the canonical JSON compared against golden files.
func MarshalGolden(scenarioName string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(goldenDocument(scenarioName, result))
}

// RunWithGolden executes a scenario and compares the snapshot against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalGolden(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
