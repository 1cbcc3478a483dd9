// Package recorder holds the episode-scoped fact stores read by an external
// search driver.
//
// A Session owns one ExecutionTrace (runtime facts appended by the
// interception layer) and one UnitsInfo (static facts appended by the schema
// analyzer). Sessions are explicit values passed by handle; there is no
// package-level state, so several sessions can coexist in one process.
//
// # Lifecycle
//
//   - BeginEpisode (or ResetExecutionTrace/ResetUnitsInfo) at episode start
//   - Append/AppendBatch from any number of goroutines during the episode
//   - Snapshot from the driver at episode end
//
// Reset and Snapshot are driver operations and are expected to be called
// while no SUT traffic is flowing. The recorders still guarantee that a
// Snapshot taken after a Reset never contains facts appended before it.
package recorder
