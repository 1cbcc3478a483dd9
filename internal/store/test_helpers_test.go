package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/sqlprobe/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot creates a snapshot with one success, one failure and
// two constraints.
func createTestSnapshot(id string) ir.EpisodeSnapshot {
	return ir.EpisodeSnapshot{
		EpisodeID: id,
		Executions: []ir.ExecutionFact{
			ir.NewSuccessFact("SELECT * FROM foo", "execute_query", 4),
			ir.NewFailureFact("SELEC 1", "execute"),
		},
		Constraints: []ir.ColumnConstraint{
			{TableName: "BAR", ColumnName: "x"},
			{TableName: "BAR", ColumnName: "foo", Unique: true, MaxLength: 64},
		},
	}
}
