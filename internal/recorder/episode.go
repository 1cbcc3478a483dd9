package recorder

import (
	"sync"

	"github.com/google/uuid"
)

// EpisodeIDGenerator produces identifiers for episodes.
type EpisodeIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 episode IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns predetermined episode IDs in order.
//
// Used for deterministic tests and golden snapshots. Panics once all IDs
// are consumed so that a misconfigured test fails fast.
type SequenceGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewSequenceGenerator creates a generator returning ids in order.
func NewSequenceGenerator(ids ...string) *SequenceGenerator {
	return &SequenceGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("SequenceGenerator: all episode IDs exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
