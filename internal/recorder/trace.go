package recorder

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/sqlprobe/internal/ir"
)

// Observer is notified after each fact accepted by an ExecutionTrace.
// Observers run on the appending goroutine, outside the trace lock.
type Observer interface {
	ObserveExecution(fact ir.ExecutionFact)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(fact ir.ExecutionFact)

// ObserveExecution calls f(fact).
func (f ObserverFunc) ObserveExecution(fact ir.ExecutionFact) { f(fact) }

// TraceOption configures an ExecutionTrace.
type TraceOption func(*ExecutionTrace)

// WithMaxFacts caps the number of facts kept per episode.
// Facts beyond the cap are dropped and counted. Zero means unlimited.
func WithMaxFacts(n int) TraceOption {
	return func(t *ExecutionTrace) {
		if n > 0 {
			t.maxFacts = n
		}
	}
}

// WithObserver registers observers notified after each accepted fact.
func WithObserver(observers ...Observer) TraceOption {
	return func(t *ExecutionTrace) {
		for _, o := range observers {
			if o != nil {
				t.observers = append(t.observers, o)
			}
		}
	}
}

// WithTraceLogger sets the logger that reports recovered observer panics
// (default discards).
func WithTraceLogger(l *slog.Logger) TraceOption {
	return func(t *ExecutionTrace) {
		if l != nil {
			t.logger = l
		}
	}
}

// ExecutionTrace is an ordered, append-only store of execution facts for the
// current episode.
//
// Thread-safety: Append is safe for any number of concurrent callers. The
// critical section is a slice append, so callers never block for longer
// than other appenders take to copy one fact.
type ExecutionTrace struct {
	mu      sync.Mutex
	facts   []ir.ExecutionFact
	dropped int64

	// Fixed at construction; read without the lock.
	maxFacts  int
	observers []Observer
	logger    *slog.Logger
}

// NewExecutionTrace creates an empty trace.
func NewExecutionTrace(opts ...TraceOption) *ExecutionTrace {
	t := &ExecutionTrace{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Reset clears all facts and the dropped counter.
// The backing slice is replaced, never truncated in place, so snapshots
// handed out earlier keep their contents.
func (t *ExecutionTrace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.facts = nil
	t.dropped = 0
}

// Append adds one fact. It never fails observably: facts without statement
// text are ignored, facts beyond the capacity are dropped, and observer
// panics are recovered.
func (t *ExecutionTrace) Append(fact ir.ExecutionFact) {
	if fact.Statement == "" {
		return
	}

	t.mu.Lock()
	if t.maxFacts > 0 && len(t.facts) >= t.maxFacts {
		t.dropped++
		t.mu.Unlock()
		return
	}
	t.facts = append(t.facts, fact)
	t.mu.Unlock()

	for _, o := range t.observers {
		t.notify(o, fact)
	}
}

// Snapshot returns a point-in-time copy of the facts in append order.
// Returns an empty slice (not nil) when nothing was recorded.
func (t *ExecutionTrace) Snapshot() []ir.ExecutionFact {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ir.ExecutionFact, len(t.facts))
	copy(out, t.facts)
	return out
}

// Len returns the number of facts currently held.
func (t *ExecutionTrace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.facts)
}

// Dropped returns the number of facts discarded because of the capacity
// limit since the last Reset.
func (t *ExecutionTrace) Dropped() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// notify calls the observer. A panic is logged and does not reach the
// appending caller.
func (t *ExecutionTrace) notify(o Observer, fact ir.ExecutionFact) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Debug("execution observer panicked",
				"observer", fmt.Sprintf("%T", o),
				"statement", fact.Statement,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	o.ObserveExecution(fact)
}
