// Package intercept wraps SQL statement execution and records one execution
// fact per call.
//
// The package is built around a dispatch Table mapping each intercepted call
// shape (an Operation) to a Wrapper. NewTable installs the tracking wrapper
// for the whole catalogue. How calls reach the table is an installation
// strategy:
//
//   - Wrap decorates a Statement value, the statement-level data-access API
//   - OpenDB, WrapDriver and DriverInstaller decorate a database/sql driver,
//     so every ExecContext/QueryContext on a *sql.DB is dispatched
//
// # Wrapper Contract
//
// The tracking wrapper never changes what the caller sees:
//
//   - return values and errors of the original call are passed through as-is
//   - a successful call records Failed=false and the measured milliseconds
//   - a failed call records Failed=true and ir.FailureExecutionMillis
//   - recording problems are recovered and never reach the caller
//   - calls with empty or whitespace-only statement text are not recorded
//
// Panics raised by the original call propagate unrecorded.
package intercept
