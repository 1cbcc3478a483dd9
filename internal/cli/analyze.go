package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlprobe/internal/ir"
	"github.com/roach88/sqlprobe/internal/schema"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Schemas []string
}

// TypeReport is the outcome of analysing one type.
type TypeReport struct {
	TypeID      string                `json:"type_id"`
	Table       string                `json:"table,omitempty"`
	Constraints []ir.ColumnConstraint `json:"constraints"`
	Code        string                `json:"code,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// AnalyzeResult holds the analyze command output.
type AnalyzeResult struct {
	Types       []TypeReport          `json:"types"`
	Constraints []ir.ColumnConstraint `json:"constraints"`
	Fingerprint string                `json:"fingerprint"`
	Failed      int                   `json:"failed"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <type-id>...",
		Short: "Derive column constraints for entity types",
		Long: `Derive the column constraints of entity types described in schema files.

Schema files are CUE (.cue) or YAML (.yaml, .yml) entity descriptions.
When --schema is not given, the files listed under schema.files in the
config are used. Types are analysed in the given order; duplicates once.

Exit codes:
  0 - Every type was analysed
  1 - One or more types failed analysis
  2 - Command error (unreadable or invalid schema files, etc.)

Examples:
  sqlprobe analyze --schema entities.cue com.foo.EntityX com.foo.EntityY
  sqlprobe analyze --config sqlprobe.yaml --format json com.foo.EntityX`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Schemas, "schema", "s", nil, "entity description file (repeatable)")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, typeIDs []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	files := opts.Schemas
	if len(files) == 0 {
		files = opts.Config.Schema.Files
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, "no schema files: pass --schema or set schema.files in the config")
	}
	formatter.VerboseLog("Loading %d schema file(s)", len(files))

	provider, err := schema.LoadFiles(files...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schemas", err)
	}

	report := schema.NewAnalyzer(provider, nil, schema.WithLogger(opts.Logger)).Analyze(commandContext(cmd), typeIDs)
	result, err := buildAnalyzeResult(report)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeAnalysisFailed,
				Message: fmt.Sprintf("%d type(s) failed analysis", result.Failed),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		outputAnalyzeText(cmd, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d type(s) failed analysis", result.Failed))
	}
	return nil
}

func buildAnalyzeResult(report *schema.Report) (AnalyzeResult, error) {
	result := AnalyzeResult{
		Types:       make([]TypeReport, 0, len(report.Results)),
		Constraints: report.Constraints(),
	}
	for _, res := range report.Results {
		tr := TypeReport{TypeID: res.TypeID, Table: res.Table, Constraints: res.Constraints}
		if tr.Constraints == nil {
			tr.Constraints = []ir.ColumnConstraint{}
		}
		if res.Err != nil {
			result.Failed++
			tr.Error = res.Err.Error()
			var ae *schema.AnalysisError
			if errors.As(res.Err, &ae) {
				tr.Code = ae.Code
			}
		}
		result.Types = append(result.Types, tr)
	}

	fp, err := ir.ConstraintsFingerprint(result.Constraints)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("failed to fingerprint constraints: %w", err)
	}
	result.Fingerprint = fp
	return result, nil
}

func outputAnalyzeText(cmd *cobra.Command, result AnalyzeResult) {
	w := cmd.OutOrStdout()

	for _, tr := range result.Types {
		if tr.Error != "" {
			fmt.Fprintf(w, "✗ %s\n", tr.TypeID)
			fmt.Fprintf(w, "  %s\n", tr.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s (table %s)\n", tr.TypeID, tr.Table)
		for _, c := range tr.Constraints {
			fmt.Fprintf(w, "  %s\n", formatConstraint(c))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Analysis Summary: %d constraint(s), %d type(s) failed\n", len(result.Constraints), result.Failed)
}

// formatConstraint renders a constraint as "table.column NOT NULL UNIQUE SIZE(n)".
func formatConstraint(c ir.ColumnConstraint) string {
	s := c.Key()
	if !c.Nullable {
		s += " NOT NULL"
	}
	if c.Unique {
		s += " UNIQUE"
	}
	if c.MaxLength > 0 {
		s += fmt.Sprintf(" SIZE(%d)", c.MaxLength)
	}
	return s
}
