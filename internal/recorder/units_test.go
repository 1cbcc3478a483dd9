package recorder

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlprobe/internal/ir"
)

func TestUnitsInfo_AppendBatchAndSnapshot(t *testing.T) {
	u := NewUnitsInfo()
	u.AppendBatch([]ir.ColumnConstraint{
		{TableName: "EntityX", ColumnName: "y"},
		{TableName: "BAR", ColumnName: "x"},
		{TableName: "EntityX", ColumnName: "k"},
	})

	snap := u.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "y", snap[0].ColumnName)

	x := u.TableConstraints("EntityX")
	require.Len(t, x, 2)
	assert.Equal(t, "y", x[0].ColumnName)
	assert.Equal(t, "k", x[1].ColumnName)

	assert.Equal(t, []string{"EntityX", "BAR"}, u.Tables())
	assert.Empty(t, u.TableConstraints("missing"))
}

func TestUnitsInfo_ResetThenSnapshotIsEmpty(t *testing.T) {
	u := NewUnitsInfo()
	u.AppendBatch([]ir.ColumnConstraint{{TableName: "T", ColumnName: "c"}})
	u.Reset()

	snap := u.Snapshot()
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestUnitsInfo_EmptyBatchIsNoop(t *testing.T) {
	u := NewUnitsInfo()
	u.AppendBatch(nil)
	u.AppendBatch([]ir.ColumnConstraint{})
	assert.Empty(t, u.Snapshot())
}

func TestUnitsInfo_BatchIsCopiedOnAppend(t *testing.T) {
	batch := []ir.ColumnConstraint{{TableName: "T", ColumnName: "c"}}
	u := NewUnitsInfo()
	u.AppendBatch(batch)

	batch[0].ColumnName = "mutated"
	assert.Equal(t, "c", u.Snapshot()[0].ColumnName)
}

func TestUnitsInfo_ConcurrentBatchesAreAtomic(t *testing.T) {
	u := NewUnitsInfo()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.AppendBatch([]ir.ColumnConstraint{
				{TableName: "T", ColumnName: "first"},
				{TableName: "T", ColumnName: "second"},
			})
		}()
	}
	wg.Wait()

	snap := u.Snapshot()
	require.Len(t, snap, 32)
	for i := 0; i < len(snap); i += 2 {
		assert.Equal(t, "first", snap[i].ColumnName)
		assert.Equal(t, "second", snap[i+1].ColumnName)
	}
}
