package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Text(t *testing.T) {
	out, _, err := execute(t, "run", testdataPath("scenarios", "orders.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ orders (episode ep-orders)")
	assert.Contains(t, out, `[1] execute_update ok 1ms "INSERT INTO orders (total) VALUES (10)"`)
	assert.Contains(t, out, `[3] execute_update FAILED "UPDAT orders SET total = 0"`)
	assert.Contains(t, out, "BAR.foo NOT NULL SIZE(64)")
	assert.NotContains(t, out, "Episode archived.")
}

func TestRun_JSONWithMetrics(t *testing.T) {
	out, _, err := execute(t, "run", "--format", "json", "--metrics", testdataPath("scenarios", "orders.yaml"))
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "ep-orders", resp["episode_id"])

	metrics := resp["data"].(map[string]any)["metrics"].(map[string]any)
	assert.Equal(t, float64(1), metrics["execute_update/ok"])
	assert.Equal(t, float64(1), metrics["execute_update/failed"])
	assert.Equal(t, float64(1), metrics["execute_query/ok"])
}

func TestRun_FailingScenario(t *testing.T) {
	out, _, err := execute(t, "run", testdataPath("scenarios", "failing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "Expected: 5 facts")
}

func TestRun_MissingScenario(t *testing.T) {
	_, _, err := execute(t, "run", testdataPath("scenarios", "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_ArchivesThenTrace(t *testing.T) {
	db := filepath.Join(t.TempDir(), "episodes.db")

	out, _, err := execute(t, "run", "--db", db, testdataPath("scenarios", "orders.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Episode archived.")

	out, _, err = execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] ep-orders  executions=3 failed=1 constraints=4")

	out, _, err = execute(t, "trace", "--db", db, "--episode", "ep-orders")
	require.NoError(t, err)
	assert.Contains(t, out, "Episode: ep-orders")
	assert.Contains(t, out, `[2] execute_query ok 1ms "SELECT total FROM orders"`)
	assert.Contains(t, out, "Failed:      1")
	assert.Contains(t, out, "Tables:      1")

	out, _, err = execute(t, "trace", "--db", db, "--statement", "SELECT total FROM orders", "--format", "json")
	require.NoError(t, err)
	events := decodeResponse(t, out)["data"].([]any)
	require.Len(t, events, 1)
	assert.Equal(t, "ep-orders", events[0].(map[string]any)["episode_id"])
	assert.Equal(t, float64(2), events[0].(map[string]any)["seq"])
}
