package recorder

import (
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/sqlprobe/internal/ir"
)

// Session is the explicit context object owned by a test-session controller.
// It is handed to the interception layer (as its trace sink) and to the
// schema analyzer (as its units sink), and exposes the query interface the
// search driver uses between episodes.
type Session struct {
	trace *ExecutionTrace
	units *UnitsInfo
	ids   EpisodeIDGenerator

	mu        sync.Mutex
	episodeID string
	logger    *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	ids       EpisodeIDGenerator
	logger    *slog.Logger
	traceOpts []TraceOption
}

// WithEpisodeIDs sets the episode ID generator (default UUIDv7).
func WithEpisodeIDs(g EpisodeIDGenerator) SessionOption {
	return func(c *sessionConfig) { c.ids = g }
}

// WithLogger sets the session logger (default discards).
func WithLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// WithTraceOptions forwards options to the session's ExecutionTrace.
func WithTraceOptions(opts ...TraceOption) SessionOption {
	return func(c *sessionConfig) { c.traceOpts = append(c.traceOpts, opts...) }
}

// NewSession creates a session with empty recorders and no active episode.
func NewSession(opts ...SessionOption) *Session {
	cfg := &sessionConfig{
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Session{
		trace:  NewExecutionTrace(append([]TraceOption{WithTraceLogger(cfg.logger)}, cfg.traceOpts...)...),
		units:  NewUnitsInfo(),
		ids:    cfg.ids,
		logger: cfg.logger,
	}
}

// Trace returns the session's execution trace.
func (s *Session) Trace() *ExecutionTrace { return s.trace }

// Units returns the session's units info recorder.
func (s *Session) Units() *UnitsInfo { return s.units }

// BeginEpisode resets both recorders and assigns a fresh episode ID.
// Returns the new ID.
func (s *Session) BeginEpisode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace.Reset()
	s.units.Reset()
	s.episodeID = s.ids.Generate()
	s.logger.Debug("episode started", "episode_id", s.episodeID)
	return s.episodeID
}

// EpisodeID returns the current episode ID, empty before the first
// BeginEpisode.
func (s *Session) EpisodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episodeID
}

// ResetExecutionTrace clears the runtime facts.
func (s *Session) ResetExecutionTrace() { s.trace.Reset() }

// SnapshotExecutionTrace returns the runtime facts in append order.
func (s *Session) SnapshotExecutionTrace() []ir.ExecutionFact { return s.trace.Snapshot() }

// ResetUnitsInfo clears the static facts.
func (s *Session) ResetUnitsInfo() { s.units.Reset() }

// SnapshotUnitsInfo returns the static facts in append order.
func (s *Session) SnapshotUnitsInfo() []ir.ColumnConstraint { return s.units.Snapshot() }

// Snapshot returns both fact sets together with the episode ID.
func (s *Session) Snapshot() ir.EpisodeSnapshot {
	snap := ir.EpisodeSnapshot{
		EpisodeID:   s.EpisodeID(),
		Executions:  s.trace.Snapshot(),
		Constraints: s.units.Snapshot(),
	}
	if dropped := s.trace.Dropped(); dropped > 0 {
		s.logger.Warn("execution facts dropped at capacity",
			"episode_id", snap.EpisodeID,
			"dropped", dropped,
		)
	}
	return snap
}
