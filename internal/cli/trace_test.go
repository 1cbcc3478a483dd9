package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlprobe/internal/ir"
	"github.com/roach88/sqlprobe/internal/store"
)

func archiveWith(t *testing.T, snaps ...ir.EpisodeSnapshot) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "episodes.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	for _, snap := range snaps {
		_, err := st.WriteEpisode(context.Background(), snap)
		require.NoError(t, err)
	}
	require.NoError(t, st.Close())
	return db
}

func TestTrace_EmptyArchive(t *testing.T) {
	db := archiveWith(t)

	out, _, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No episodes archived.")
}

func TestTrace_EpisodeJSON(t *testing.T) {
	db := archiveWith(t, ir.EpisodeSnapshot{
		EpisodeID: "ep-1",
		Executions: []ir.ExecutionFact{
			ir.NewSuccessFact("SELECT 1", "execute_query", 3),
			ir.NewFailureFact("SELEC 1", "execute"),
		},
		Constraints: []ir.ColumnConstraint{{TableName: "BAR", ColumnName: "x"}},
	})

	out, _, err := execute(t, "trace", "--db", db, "--episode", "ep-1", "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ep-1", resp["episode_id"])
	data := resp["data"].(map[string]any)
	timeline := data["timeline"].([]any)
	require.Len(t, timeline, 2)
	assert.Equal(t, float64(-1), timeline[1].(map[string]any)["execution_millis"])

	stats := data["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["failed"])
	assert.Len(t, stats["executions_hash"], 64)
}

func TestTrace_EpisodeNotFound(t *testing.T) {
	db := archiveWith(t)

	out, _, err := execute(t, "trace", "--db", db, "--episode", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOT_FOUND]: episode not found: nope")
}

func TestTrace_RequiresArchive(t *testing.T) {
	_, _, err := execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no archive")
}

func TestTrace_ExclusiveFlags(t *testing.T) {
	db := archiveWith(t)
	_, _, err := execute(t, "trace", "--db", db, "--episode", "a", "--statement", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestFormatFact(t *testing.T) {
	assert.Equal(t, `execute ok 2ms "SELECT 1"`, formatFact(ir.NewSuccessFact("SELECT 1", "execute", 2)))
	assert.Equal(t, `- FAILED "SELEC 1"`, formatFact(ir.NewFailureFact("SELEC 1", "")))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "01234567...89abcdef", truncateID("0123456789abcdef0123456789abcdef"))
}
