package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlprobe/internal/harness"
	"github.com/roach88/sqlprobe/internal/recorder"
	"github.com/roach88/sqlprobe/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Metrics  bool
}

// RunResult holds the run command output.
type RunResult struct {
	Scenario string            `json:"scenario"`
	Result   *harness.Result   `json:"result"`
	Metrics  map[string]uint64 `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Record one episode from a scenario",
		Long: `Run a harness scenario as one recorded episode.

The scenario's statements execute against a fresh in-memory SQLite
database through the interception layer. With --db (or archive.path in
the config) the episode snapshot is archived for the trace command.

Exit codes:
  0 - Scenario passed
  1 - Statement outcomes or assertions failed
  2 - Command error (invalid scenario, archive not writable, etc.)

Example:
  sqlprobe run --db ./episodes.db ./scenarios/orders.yaml
  sqlprobe run ./scenarios/orders.yaml --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the episode archive (SQLite)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print statement counters after the run")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	logger := opts.Logger
	formatter := opts.formatter(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := []harness.Option{
		harness.WithLogger(logger),
		harness.WithMaxFacts(opts.Config.Trace.MaxFacts),
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.Archive.Path
	}
	if dbPath != "" {
		logger.Info("opening archive", "path", dbPath)
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open archive", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing archive", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithArchive(st))
	}

	var metrics *recorder.Metrics
	if opts.Metrics || opts.Config.Metrics.Enabled {
		metrics = recorder.NewMetrics()
		runOpts = append(runOpts, harness.WithMetrics(metrics))
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}
	formatter.VerboseLog("Episode %s: %d fact(s), %d constraint(s)",
		result.Snapshot.EpisodeID, len(result.Snapshot.Executions), len(result.Snapshot.Constraints))

	out := RunResult{Scenario: scenario.Name, Result: result}
	if metrics != nil {
		out.Metrics, err = statementCounts(metrics)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: out, EpisodeID: result.Snapshot.EpisodeID}
		if !result.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeTestFailed,
				Message: fmt.Sprintf("scenario %s failed", scenario.Name),
				Details: result.Errors,
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		outputRunText(cmd.OutOrStdout(), out)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// statementCounts flattens the statement counter into "operation/status" keys.
func statementCounts(m *recorder.Metrics) (map[string]uint64, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]uint64)
	for _, mf := range families {
		if mf.GetName() != "sqlprobe_statements_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			var op, status string
			for _, label := range metric.GetLabel() {
				switch label.GetName() {
				case "operation":
					op = label.GetValue()
				case "status":
					status = label.GetValue()
				}
			}
			counts[op+"/"+status] = uint64(metric.GetCounter().GetValue())
		}
	}
	return counts, nil
}

func outputRunText(w io.Writer, out RunResult) {
	result := out.Result
	snap := result.Snapshot

	mark := "✓"
	if !result.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (episode %s)\n", mark, out.Scenario, snap.EpisodeID)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Executions ===")
	if len(snap.Executions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, f := range snap.Executions {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, formatFact(f))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Constraints ===")
	if len(snap.Constraints) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range snap.Constraints {
		fmt.Fprintf(w, "  %s\n", formatConstraint(c))
	}

	if len(result.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Analysis Failures ===")
		for _, f := range result.Failures {
			fmt.Fprintf(w, "  %s %s\n", f.Code, f.TypeID)
		}
	}

	if len(out.Metrics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Metrics ===")
		keys := make([]string, 0, len(out.Metrics))
		for k := range out.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %d\n", k, out.Metrics[k])
		}
	}

	if result.Archived {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Episode archived.")
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
