package ir

// FailureExecutionMillis is recorded instead of a measured duration when the
// wrapped call returned an error. Measured durations are never negative.
const FailureExecutionMillis int64 = -1

// ExecutionFact describes one observed statement execution.
type ExecutionFact struct {
	// Statement is the exact statement text passed to the wrapped call.
	// Never empty: no fact is created for calls without statement text.
	Statement string `json:"statement"`

	// Operation names the intercepted call shape (e.g. "execute_update").
	Operation string `json:"operation,omitempty"`

	// Failed is true when the wrapped call returned an error.
	Failed bool `json:"failed"`

	// ExecutionMillis is the wall-clock duration of the call, or
	// FailureExecutionMillis when Failed is true.
	ExecutionMillis int64 `json:"execution_millis"`
}

// NewSuccessFact builds the fact for a call that completed normally.
// Negative durations (clock adjustments) are clamped to zero so that they
// can never be mistaken for the failure sentinel.
func NewSuccessFact(statement, operation string, millis int64) ExecutionFact {
	if millis < 0 {
		millis = 0
	}
	return ExecutionFact{
		Statement:       statement,
		Operation:       operation,
		Failed:          false,
		ExecutionMillis: millis,
	}
}

// NewFailureFact builds the fact for a call that returned an error.
func NewFailureFact(statement, operation string) ExecutionFact {
	return ExecutionFact{
		Statement:       statement,
		Operation:       operation,
		Failed:          true,
		ExecutionMillis: FailureExecutionMillis,
	}
}

// HasSentinelTiming reports whether the fact carries the failure sentinel.
func (f ExecutionFact) HasSentinelTiming() bool {
	return f.ExecutionMillis == FailureExecutionMillis
}

// ColumnConstraint describes one statically discovered column constraint.
type ColumnConstraint struct {
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
	Nullable   bool   `json:"nullable"`

	// Unique is true when the column is declared unique.
	Unique bool `json:"unique,omitempty"`

	// MaxLength is the declared maximum length, 0 when undeclared.
	MaxLength int `json:"max_length,omitempty"`
}

// Key identifies the column a constraint applies to.
func (c ColumnConstraint) Key() string {
	return c.TableName + "." + c.ColumnName
}

// EpisodeSnapshot is what a driver reads from a session at the end of an
// episode.
type EpisodeSnapshot struct {
	EpisodeID   string             `json:"episode_id"`
	Executions  []ExecutionFact    `json:"executions"`
	Constraints []ColumnConstraint `json:"constraints"`
}

// FailedExecutions returns the number of failed execution facts.
func (s EpisodeSnapshot) FailedExecutions() int {
	n := 0
	for _, f := range s.Executions {
		if f.Failed {
			n++
		}
	}
	return n
}
