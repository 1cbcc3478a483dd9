package harness

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/sqlprobe/internal/intercept"
	"github.com/roach88/sqlprobe/internal/recorder"
	"github.com/roach88/sqlprobe/internal/schema"
	"github.com/roach88/sqlprobe/internal/store"
	"github.com/roach88/sqlprobe/internal/testutil"
)

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger    *slog.Logger
	providers []schema.MetadataProvider
	archive   *store.Store
	metrics   *recorder.Metrics
	maxFacts  int
}

// WithLogger sets the logger (default discards).
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// WithProvider adds a metadata provider consulted before the scenario's
// schema files.
func WithProvider(p schema.MetadataProvider) Option {
	return func(c *runConfig) { c.providers = append(c.providers, p) }
}

// WithArchive writes the episode snapshot to st after the run.
func WithArchive(st *store.Store) Option {
	return func(c *runConfig) { c.archive = st }
}

// WithMetrics counts every recorded fact in m.
func WithMetrics(m *recorder.Metrics) Option {
	return func(c *runConfig) { c.metrics = m }
}

// WithMaxFacts caps the episode trace (0 means unlimited).
func WithMaxFacts(n int) Option {
	return func(c *runConfig) { c.maxFacts = n }
}

// Harness is the episode execution engine for one scenario run.
type Harness struct {
	session  *recorder.Session
	table    *intercept.Table
	db       *sql.DB
	stmt     intercept.Statement
	analyzer *schema.Analyzer
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Open a fresh in-memory database (traced in driver mode)
//  2. Execute setup SQL
//  3. Begin the episode (resets both recorders)
//  4. Analyse the scenario's types
//  5. Execute statements through the interception layer
//  6. Snapshot the episode and evaluate assertions
//
// An error is returned only when the run itself cannot proceed; statement
// and assertion mismatches are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}

	h, err := newHarness(scenario, cfg)
	if err != nil {
		return nil, err
	}
	defer h.db.Close()

	ctx := context.Background()

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	episodeID := h.session.BeginEpisode()
	h.logger.Info("episode started", "scenario", scenario.Name, "episode_id", episodeID)

	result := NewResult()
	report := h.analyzer.Analyze(ctx, scenario.Types)
	result.addReport(report)

	h.executeStatements(ctx, scenario.Statements, result)
	result.Snapshot = h.session.Snapshot()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	if cfg.archive != nil {
		inserted, err := cfg.archive.WriteEpisode(ctx, result.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to archive episode: %w", err)
		}
		result.Archived = inserted
	}

	h.logger.Info("episode finished",
		"scenario", scenario.Name,
		"episode_id", episodeID,
		"executions", len(result.Snapshot.Executions),
		"constraints", len(result.Snapshot.Constraints),
		"pass", result.Pass,
	)
	return result, nil
}

func newHarness(scenario *Scenario, cfg *runConfig) (*Harness, error) {
	traceOpts := []recorder.TraceOption{recorder.WithMaxFacts(cfg.maxFacts)}
	if cfg.metrics != nil {
		traceOpts = append(traceOpts, recorder.WithObserver(cfg.metrics))
	}
	session := recorder.NewSession(
		recorder.WithEpisodeIDs(testutil.NewFixedEpisodeGenerator(scenario.EpisodeID)),
		recorder.WithLogger(cfg.logger),
		recorder.WithTraceOptions(traceOpts...),
	)

	table := intercept.NewTable(session.Trace(),
		intercept.WithClock(testutil.NewStepClock(time.Millisecond)),
		intercept.WithLogger(cfg.logger),
	)

	files, err := schema.LoadFiles(scenario.Schemas...)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	provider := append(schema.ChainProvider{}, cfg.providers...)
	provider = append(provider, files...)

	h := &Harness{
		session:  session,
		table:    table,
		analyzer: schema.NewAnalyzer(provider, session.Units(), schema.WithLogger(cfg.logger)),
		logger:   cfg.logger,
	}

	if scenario.Mode == ModeDriver {
		connector, err := intercept.WrapDriver(&sqlite3.SQLiteDriver{}, table).(driver.DriverContext).OpenConnector(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to open traced database: %w", err)
		}
		h.db = sql.OpenDB(connector)
		h.stmt = intercept.NewStatement(h.db)
	} else {
		h.db, err = sql.Open("sqlite3", ":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		h.stmt = intercept.Wrap(intercept.NewStatement(h.db), table)
	}
	// One connection: every :memory: connection is its own database.
	h.db.SetMaxOpenConns(1)

	if err := intercept.Install(table); err != nil {
		h.db.Close()
		return nil, err
	}
	return h, nil
}

// executeSetup runs setup SQL before the episode begins.
func (h *Harness) executeSetup(ctx context.Context, setup []string) error {
	for i, query := range setup {
		if _, err := h.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		h.logger.Debug("setup statement executed", "step", i)
	}
	return nil
}

// executeStatements runs every step and checks its expect_error flag.
func (h *Harness) executeStatements(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		err := callStep(ctx, h.stmt, step)
		switch {
		case step.ExpectError && err == nil:
			result.AddError(fmt.Sprintf("statements[%d]: %s %q: expected an error, got none", i, step.Op, step.SQL))
		case !step.ExpectError && err != nil:
			result.AddError(fmt.Sprintf("statements[%d]: %s %q: unexpected error: %v", i, step.Op, step.SQL, err))
		}
		h.logger.Debug("statement executed",
			"step", i,
			"op", step.Op,
			"error", err,
		)
	}
}

// callStep calls the Statement method named by step.Op.
func callStep(ctx context.Context, s intercept.Statement, step Step) error {
	keys := intercept.NoGeneratedKeys
	if step.Keys {
		keys = intercept.ReturnGeneratedKeys
	}

	var err error
	switch intercept.Operation(step.Op) {
	case intercept.OpExecute:
		_, err = s.Execute(ctx, step.SQL)
	case intercept.OpExecuteKeys:
		_, err = s.ExecuteKeys(ctx, step.SQL, keys)
	case intercept.OpExecuteColumnIndexes:
		_, err = s.ExecuteColumnIndexes(ctx, step.SQL, step.ColumnIndexes)
	case intercept.OpExecuteColumnNames:
		_, err = s.ExecuteColumnNames(ctx, step.SQL, step.ColumnNames)
	case intercept.OpExecuteUpdate:
		_, err = s.ExecuteUpdate(ctx, step.SQL)
	case intercept.OpExecuteUpdateKeys:
		_, err = s.ExecuteUpdateKeys(ctx, step.SQL, keys)
	case intercept.OpExecuteUpdateColumnIndexes:
		_, err = s.ExecuteUpdateColumnIndexes(ctx, step.SQL, step.ColumnIndexes)
	case intercept.OpExecuteUpdateColumnNames:
		_, err = s.ExecuteUpdateColumnNames(ctx, step.SQL, step.ColumnNames)
	case intercept.OpExecuteLargeUpdate:
		_, err = s.ExecuteLargeUpdate(ctx, step.SQL)
	case intercept.OpExecuteLargeUpdateKeys:
		_, err = s.ExecuteLargeUpdateKeys(ctx, step.SQL, keys)
	case intercept.OpExecuteLargeUpdateColumnIndexes:
		_, err = s.ExecuteLargeUpdateColumnIndexes(ctx, step.SQL, step.ColumnIndexes)
	case intercept.OpExecuteLargeUpdateColumnNames:
		_, err = s.ExecuteLargeUpdateColumnNames(ctx, step.SQL, step.ColumnNames)
	case intercept.OpExecuteQuery:
		err = drainQuery(ctx, s, step.SQL)
	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}
	return err
}

func drainQuery(ctx context.Context, s intercept.Statement, query string) error {
	rows, err := s.ExecuteQuery(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}
