package recorder

import (
	"sync"

	"github.com/roach88/sqlprobe/internal/ir"
)

// UnitsInfo stores statically discovered constraint facts for the current
// episode. It is written once per episode by the schema analyzer and read
// many times afterwards.
//
// Thread-safety: all methods are safe for concurrent use. A batch becomes
// visible to Snapshot atomically.
type UnitsInfo struct {
	mu          sync.RWMutex
	constraints []ir.ColumnConstraint
}

// NewUnitsInfo creates an empty recorder.
func NewUnitsInfo() *UnitsInfo {
	return &UnitsInfo{}
}

// Reset clears all constraints.
func (u *UnitsInfo) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.constraints = nil
}

// AppendBatch adds constraints in the given order. Empty batches are a no-op.
func (u *UnitsInfo) AppendBatch(batch []ir.ColumnConstraint) {
	if len(batch) == 0 {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.constraints = append(u.constraints, batch...)
}

// Snapshot returns a copy of all constraints in append order.
// Returns an empty slice (not nil) when nothing was recorded.
func (u *UnitsInfo) Snapshot() []ir.ColumnConstraint {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]ir.ColumnConstraint, len(u.constraints))
	copy(out, u.constraints)
	return out
}

// TableConstraints returns the constraints recorded for one table, in
// append order.
func (u *UnitsInfo) TableConstraints(table string) []ir.ColumnConstraint {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := []ir.ColumnConstraint{}
	for _, c := range u.constraints {
		if c.TableName == table {
			out = append(out, c)
		}
	}
	return out
}

// Tables returns the distinct table names in first-seen order.
func (u *UnitsInfo) Tables() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, c := range u.constraints {
		if !seen[c.TableName] {
			seen[c.TableName] = true
			out = append(out, c.TableName)
		}
	}
	return out
}
