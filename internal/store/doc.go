// Package store provides the SQLite episode archive.
//
// The archive keeps finished episode snapshots for offline inspection:
//   - Episodes: one row per episode with its archive sequence and fingerprints
//   - Execution facts: the ordered execution trace of an episode
//   - Column constraints: the ordered units info of an episode
//
// The in-memory recorders stay the source of truth during an episode; the
// archive is written once an episode is over.
//
// # Ordering
//
//   - Episodes are ordered by seq INTEGER (archive order), never timestamps
//   - Facts keep their original position in an ordinal column
//   - All queries include an explicit ORDER BY so results are reproducible
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Fingerprints are computed with internal/ir/hash.go.
package store
