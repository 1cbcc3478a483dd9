package intercept

import (
	"context"
	"time"

	"github.com/roach88/sqlprobe/internal/ir"
)

// Clock is the time source used to measure wrapped calls.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock (with its monotonic reading).
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Outcome is the tagged result of invoking an original call: either a
// success with a measured duration or a failure with the sentinel
// duration.
type Outcome struct {
	Failed          bool
	ExecutionMillis int64
}

// Fact converts the outcome into the execution fact for query.
func (o Outcome) Fact(query string, op Operation) ir.ExecutionFact {
	if o.Failed {
		return ir.NewFailureFact(query, string(op))
	}
	return ir.NewSuccessFact(query, string(op), o.ExecutionMillis)
}

// invoke runs original and classifies the result. The error is returned
// unchanged so the caller can hand it back to the SUT.
func invoke(ctx context.Context, clock Clock, original func(context.Context) error) (Outcome, error) {
	start := clock.Now()
	if err := original(ctx); err != nil {
		return Outcome{Failed: true, ExecutionMillis: ir.FailureExecutionMillis}, err
	}
	return Outcome{ExecutionMillis: clock.Now().Sub(start).Milliseconds()}, nil
}
