// Package harness runs recorded episodes described in YAML scenarios.
//
// A scenario drives one episode end to end: it runs untraced setup SQL,
// begins an episode, analyses entity types, executes statements through
// the interception layer, and asserts on the resulting snapshot.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	episode_id: ep-basic          # optional, fixed for golden comparison
//	mode: statement               # statement (default) or driver
//	schemas:
//	  - entities.yaml             # relative to the scenario file
//	types:
//	  - com.foo.EntityX
//	setup:
//	  - CREATE TABLE foo (id INTEGER PRIMARY KEY, name TEXT NOT NULL)
//	statements:
//	  - op: execute_update
//	    sql: INSERT INTO foo (name) VALUES ('a')
//	  - op: execute
//	    sql: SELEC 1
//	    expect_error: true
//	assertions:
//	  - type: fact_count
//	    count: 2
//	  - type: fact_contains
//	    sql: SELEC 1
//	    failed: true
//
// # Modes
//
// In statement mode each step calls the named Statement method on a
// wrapped SQL statement, so facts carry the statement operation. In driver
// mode the same calls go to an unwrapped statement over a *sql.DB whose
// driver is traced, so facts carry driver_exec or driver_query.
//
// # Assertion Types
//
//   - fact_count: number of execution facts, optionally only failed ones
//   - fact_contains: a fact with the given statement text (and outcome)
//   - fact_order: statements recorded in the given relative order
//   - constraint_count: number of constraints, optionally for one table
//   - constraint_contains: a constraint for table.column (and nullability)
//   - analysis_failed: the listed types failed analysis
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite database, a step clock
// (testutil.StepClock, one millisecond per call) and a fixed episode ID, so
// the same scenario always yields the same canonical snapshot.
package harness
