package testutil

// FixedEpisodeGenerator returns the same episode ID every time.
//
// This enables golden snapshot comparison: the same scenario run twice
// produces byte-identical snapshots.
//
// Thread-safety: FixedEpisodeGenerator is stateless and safe for concurrent use.
type FixedEpisodeGenerator struct {
	id string
}

// NewFixedEpisodeGenerator creates a generator for id.
// If id is empty, Generate returns "test-episode-default".
func NewFixedEpisodeGenerator(id string) *FixedEpisodeGenerator {
	if id == "" {
		id = "test-episode-default"
	}
	return &FixedEpisodeGenerator{id: id}
}

// Generate returns the fixed episode ID.
func (g *FixedEpisodeGenerator) Generate() string {
	return g.id
}
