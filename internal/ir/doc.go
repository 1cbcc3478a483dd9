// Package ir provides the fact types exchanged between the interception
// layer, the schema analyzer and the recorders.
//
// This package contains value types and their canonical encoding only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Facts are plain values; recorders copy them, nobody mutates them
//   - A failed execution carries FailureExecutionMillis, never a measured duration
//   - All JSON tags use snake_case
//   - Canonical JSON has no floats, so durations are integer milliseconds
package ir
