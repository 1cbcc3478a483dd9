package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_BasicStatement(t *testing.T) {
	// To regenerate:
	//   go test ./internal/harness -run TestRunWithGolden -update
	result, err := RunWithGolden(t, loadTestScenario(t, "basic_statement"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithGolden_DriverMode(t *testing.T) {
	result, err := RunWithGolden(t, loadTestScenario(t, "driver_mode"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestMarshalGolden_Deterministic(t *testing.T) {
	scenario := loadTestScenario(t, "basic_statement")

	r1, err := Run(scenario)
	require.NoError(t, err)
	r2, err := Run(scenario)
	require.NoError(t, err)

	g1, err := MarshalGolden(scenario.Name, r1)
	require.NoError(t, err)
	g2, err := MarshalGolden(scenario.Name, r2)
	require.NoError(t, err)

	assert.Equal(t, string(g1), string(g2))
}

func TestMarshalGolden_OmitsFailureMessages(t *testing.T) {
	result := NewResult()
	result.Failures = []AnalysisFailure{{TypeID: "T", Code: "TYPE_NOT_FOUND", Message: "type not found: T"}}

	data, err := MarshalGolden("s", result)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "type not found")
	assert.Contains(t, string(data), `"analysis_failures":[{"code":"TYPE_NOT_FOUND","type_id":"T"}]`)
}
