package intercept

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/roach88/sqlprobe/internal/ir"
)

// ErrSealed is returned when registering into a sealed table.
var ErrSealed = errors.New("intercept: dispatch table is sealed")

// ErrUnknownOperation is returned when registering an operation that is not
// part of the catalogue.
var ErrUnknownOperation = errors.New("intercept: unknown operation")

// Tracer receives execution facts. *recorder.ExecutionTrace implements it.
type Tracer interface {
	Append(fact ir.ExecutionFact)
}

// Wrapper replaces one call shape. It receives the statement text and the
// original call, and must return the original call's error unchanged.
type Wrapper func(ctx context.Context, op Operation, query string, original func(context.Context) error) error

// Installer is an installation strategy: something that redirects calls of
// the target data-access API into a Table.
type Installer interface {
	Install(t *Table) error
}

// InstallerFunc adapts a function to the Installer interface.
type InstallerFunc func(t *Table) error

// Install calls f(t).
func (f InstallerFunc) Install(t *Table) error { return f(t) }

// Option configures a Table.
type Option func(*tableConfig)

type tableConfig struct {
	clock  Clock
	logger *slog.Logger
}

// WithClock sets the time source for the tracking wrapper.
func WithClock(c Clock) Option {
	return func(cfg *tableConfig) { cfg.clock = c }
}

// WithLogger sets the logger used for suppressed recording problems.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *tableConfig) { cfg.logger = l }
}

// Table is the registered dispatch table mapping operations to wrappers.
//
// Thread-safety: Dispatch is lock-free. Register publishes a new copy of
// the map, so concurrent dispatches always see a complete table.
type Table struct {
	wrappers atomic.Pointer[map[Operation]Wrapper]
	sealed   atomic.Bool
	mu       sync.Mutex // serializes Register
}

// NewTable creates a table with the tracking wrapper installed for every
// operation in the catalogue, forwarding facts to tracer.
func NewTable(tracer Tracer, opts ...Option) *Table {
	cfg := &tableConfig{
		clock:  SystemClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	track := Track(tracer, cfg.clock, cfg.logger)
	m := make(map[Operation]Wrapper, len(catalogue))
	for _, s := range catalogue {
		m[s.Op] = track
	}

	t := &Table{}
	t.wrappers.Store(&m)
	return t
}

// Register replaces the wrapper for op.
func (t *Table) Register(op Operation, w Wrapper) error {
	if !Known(op) {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if w == nil {
		return fmt.Errorf("register %q: nil wrapper", op)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed.Load() {
		return ErrSealed
	}

	old := *t.wrappers.Load()
	m := make(map[Operation]Wrapper, len(old))
	for k, v := range old {
		m[k] = v
	}
	m[op] = w
	t.wrappers.Store(&m)
	return nil
}

// Seal freezes the table. Further Register calls fail with ErrSealed.
func (t *Table) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed.Store(true)
}

// Sealed reports whether the table has been sealed.
func (t *Table) Sealed() bool { return t.sealed.Load() }

// Lookup returns the wrapper registered for op.
func (t *Table) Lookup(op Operation) (Wrapper, bool) {
	w, ok := (*t.wrappers.Load())[op]
	return w, ok
}

// Dispatch runs original through the wrapper registered for op. Without a
// wrapper the original is called directly.
func (t *Table) Dispatch(ctx context.Context, op Operation, query string, original func(context.Context) error) error {
	w, ok := t.Lookup(op)
	if !ok {
		return original(ctx)
	}
	return w(ctx, op, query, original)
}

// Install runs each installer against t, then seals the table.
// Stops at the first installer error; the table is left unsealed in that
// case so installation can be retried.
func Install(t *Table, installers ...Installer) error {
	for i, inst := range installers {
		if err := inst.Install(t); err != nil {
			return fmt.Errorf("installer %d: %w", i, err)
		}
	}
	t.Seal()
	return nil
}

// Track returns the tracking wrapper: it measures the original call and
// forwards one fact per call with non-blank statement text to tracer.
func Track(tracer Tracer, clock Clock, logger *slog.Logger) Wrapper {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func(ctx context.Context, op Operation, query string, original func(context.Context) error) error {
		outcome, err := invoke(ctx, clock, original)
		// ErrSkip asks database/sql to retry on another path; that retry is
		// dispatched and recorded on its own.
		if err != nil && errors.Is(err, driver.ErrSkip) {
			return err
		}
		record(tracer, logger, query, op, outcome)
		return err
	}
}

// record forwards a fact, best effort.
func record(tracer Tracer, logger *slog.Logger, query string, op Operation, outcome Outcome) {
	if tracer == nil || strings.TrimSpace(query) == "" {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("execution fact dropped", "operation", string(op), "panic", fmt.Sprint(r))
		}
	}()
	tracer.Append(outcome.Fact(query, op))
}

// call dispatches fn and carries its typed result through the wrapper.
func call[T any](ctx context.Context, t *Table, op Operation, query string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := t.Dispatch(ctx, op, query, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
