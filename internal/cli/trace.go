package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlprobe/internal/ir"
	"github.com/roach88/sqlprobe/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	EpisodeID string
	Statement string // optional - every archived execution of one statement
}

// TraceEvent represents a single fact in the episode timeline.
type TraceEvent struct {
	Seq             int    `json:"seq"`
	EpisodeID       string `json:"episode_id,omitempty"`
	Statement       string `json:"statement"`
	Operation       string `json:"operation,omitempty"`
	Failed          bool   `json:"failed"`
	ExecutionMillis int64  `json:"execution_millis"`
}

// TraceResult holds one archived episode.
type TraceResult struct {
	EpisodeID   string                `json:"episode_id"`
	Timeline    []TraceEvent          `json:"timeline"`
	Constraints []ir.ColumnConstraint `json:"constraints"`
	Stats       TraceStats            `json:"stats"`
}

// TraceStats holds summary statistics for the episode.
type TraceStats struct {
	Executions      int    `json:"executions"`
	Failed          int    `json:"failed"`
	Constraints     int    `json:"constraints"`
	Tables          int    `json:"tables"`
	ExecutionsHash  string `json:"executions_hash"`
	ConstraintsHash string `json:"constraints_hash"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect archived episodes",
		Long: `Inspect episodes archived by the run command.

Without --episode, lists every archived episode in archive order.
With --episode, prints that episode's execution timeline and the
constraints recorded for it. With --statement, lists every archived
execution of one statement across episodes.

Examples:
  sqlprobe trace --db ./episodes.db
  sqlprobe trace --db ./episodes.db --episode ep-basic
  sqlprobe trace --db ./episodes.db --statement "SELECT 1" --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the episode archive (defaults to archive.path)")
	cmd.Flags().StringVar(&opts.EpisodeID, "episode", "", "episode to print")
	cmd.Flags().StringVar(&opts.Statement, "statement", "", "statement text to look up")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.Archive.Path
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no archive: pass --db or set archive.path in the config")
	}
	if opts.EpisodeID != "" && opts.Statement != "" {
		return NewExitError(ExitCommandError, "--episode and --statement are mutually exclusive")
	}

	// Open archive
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer st.Close()

	switch {
	case opts.Statement != "":
		facts, err := st.FindStatement(ctx, opts.Statement)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find statement", err)
		}
		timeline := make([]TraceEvent, len(facts))
		for i, a := range facts {
			timeline[i] = traceEvent(a.Ordinal+1, a.Fact)
			timeline[i].EpisodeID = a.EpisodeID
		}
		if opts.Format == "json" {
			return opts.formatter(cmd).Respond(CLIResponse{Status: "ok", Data: timeline})
		}
		outputStatementText(cmd.OutOrStdout(), opts.Statement, timeline)
		return nil

	case opts.EpisodeID != "":
		return traceEpisode(opts, cmd, st)

	default:
		episodes, err := st.ListEpisodes(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list episodes", err)
		}
		if opts.Format == "json" {
			return opts.formatter(cmd).Respond(CLIResponse{Status: "ok", Data: episodes})
		}
		outputEpisodesText(cmd.OutOrStdout(), episodes)
		return nil
	}
}

func traceEpisode(opts *TraceOptions, cmd *cobra.Command, st *store.Store) error {
	ctx := commandContext(cmd)
	formatter := opts.formatter(cmd)

	snap, err := st.ReadEpisode(ctx, opts.EpisodeID)
	if errors.Is(err, store.ErrEpisodeNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("episode not found: %s", opts.EpisodeID), nil)
		return WrapExitError(ExitCommandError, "episode not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read episode", err)
	}

	result, err := buildTraceResult(snap)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fingerprint episode", err)
	}

	if opts.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result, EpisodeID: snap.EpisodeID})
	}
	outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

// buildTraceResult converts an archived snapshot into the trace view.
func buildTraceResult(snap ir.EpisodeSnapshot) (TraceResult, error) {
	timeline := make([]TraceEvent, len(snap.Executions))
	for i, f := range snap.Executions {
		timeline[i] = traceEvent(i+1, f)
	}

	tables := make(map[string]bool)
	for _, c := range snap.Constraints {
		tables[c.TableName] = true
	}

	execHash, err := ir.ExecutionsFingerprint(snap.Executions)
	if err != nil {
		return TraceResult{}, err
	}
	consHash, err := ir.ConstraintsFingerprint(snap.Constraints)
	if err != nil {
		return TraceResult{}, err
	}

	return TraceResult{
		EpisodeID:   snap.EpisodeID,
		Timeline:    timeline,
		Constraints: snap.Constraints,
		Stats: TraceStats{
			Executions:      len(snap.Executions),
			Failed:          snap.FailedExecutions(),
			Constraints:     len(snap.Constraints),
			Tables:          len(tables),
			ExecutionsHash:  execHash,
			ConstraintsHash: consHash,
		},
	}, nil
}

func traceEvent(seq int, f ir.ExecutionFact) TraceEvent {
	return TraceEvent{
		Seq:             seq,
		Statement:       f.Statement,
		Operation:       f.Operation,
		Failed:          f.Failed,
		ExecutionMillis: f.ExecutionMillis,
	}
}

// outputTraceText outputs one episode as human-readable text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Episode: %s\n", result.EpisodeID)
	fmt.Fprintln(w)

	// Timeline section
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no executions)")
	}
	for _, event := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s\n", event.Seq, formatEvent(event))
	}
	fmt.Fprintln(w)

	// Constraints section
	fmt.Fprintln(w, "=== Constraints ===")
	if len(result.Constraints) == 0 {
		fmt.Fprintln(w, "  (no constraints)")
	}
	for _, c := range result.Constraints {
		fmt.Fprintf(w, "  %s\n", formatConstraint(c))
	}
	fmt.Fprintln(w)

	// Stats section
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Executions:  %d\n", result.Stats.Executions)
	fmt.Fprintf(w, "  Failed:      %d\n", result.Stats.Failed)
	fmt.Fprintf(w, "  Constraints: %d\n", result.Stats.Constraints)
	fmt.Fprintf(w, "  Tables:      %d\n", result.Stats.Tables)
	if verbose {
		fmt.Fprintf(w, "  Executions hash:  %s\n", truncateID(result.Stats.ExecutionsHash))
		fmt.Fprintf(w, "  Constraints hash: %s\n", truncateID(result.Stats.ConstraintsHash))
	}
}

func outputEpisodesText(w io.Writer, episodes []store.EpisodeSummary) {
	if len(episodes) == 0 {
		fmt.Fprintln(w, "No episodes archived.")
		return
	}
	for _, e := range episodes {
		fmt.Fprintf(w, "  [%d] %s  executions=%d failed=%d constraints=%d\n",
			e.Seq, e.ID, e.Executions, e.FailedCount, e.Constraints)
	}
}

func outputStatementText(w io.Writer, statement string, timeline []TraceEvent) {
	if len(timeline) == 0 {
		fmt.Fprintf(w, "No executions found for statement: %s\n", statement)
		return
	}
	for _, event := range timeline {
		fmt.Fprintf(w, "  %s [%d] %s\n", event.EpisodeID, event.Seq, formatEvent(event))
	}
}

// formatEvent renders an event as "operation ok 3ms "statement"".
func formatEvent(e TraceEvent) string {
	return formatFact(ir.ExecutionFact{
		Statement:       e.Statement,
		Operation:       e.Operation,
		Failed:          e.Failed,
		ExecutionMillis: e.ExecutionMillis,
	})
}

// formatFact renders a fact for text output. Failed facts show no duration.
func formatFact(f ir.ExecutionFact) string {
	op := f.Operation
	if op == "" {
		op = "-"
	}
	if f.Failed {
		return fmt.Sprintf("%s FAILED %q", op, f.Statement)
	}
	return fmt.Sprintf("%s ok %dms %q", op, f.ExecutionMillis, f.Statement)
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
