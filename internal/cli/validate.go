package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlprobe/internal/harness"
	"github.com/roach88/sqlprobe/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Scenarios []string
}

// ValidationError is one problem found in a file.
type ValidationError struct {
	File    string `json:"file"`
	TypeID  string `json:"type_id,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Types  int               `json:"types"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// typeLister is implemented by the file-backed schema providers.
type typeLister interface {
	TypeIDs() []string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [schema-file]...",
		Short: "Validate schema and scenario files without running them",
		Long: `Validate entity description files and harness scenarios.

Schema files are loaded and every entity they declare is checked, so
duplicate columns and negative lengths are reported before analysis.
Scenario files passed with --scenario are parsed strictly.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Scenarios, "scenario", nil, "scenario file to validate (repeatable)")

	return cmd
}

func runValidate(opts *ValidateOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if len(files) == 0 && len(opts.Scenarios) == 0 {
		files = opts.Config.Schema.Files
	}
	if len(files) == 0 && len(opts.Scenarios) == 0 {
		return outputValidateError(formatter, ErrCodeGeneric, "nothing to validate: pass schema files or --scenario", nil)
	}

	result := ValidationResult{Valid: true}
	for _, file := range files {
		formatter.VerboseLog("Validating schema: %s", file)
		result.Files++
		n, errs := validateSchemaFile(file)
		result.Types += n
		result.Errors = append(result.Errors, errs...)
	}
	for _, file := range opts.Scenarios {
		formatter.VerboseLog("Validating scenario: %s", file)
		result.Files++
		if _, err := harness.LoadScenario(file); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				File:    file,
				Message: err.Error(),
				Code:    ErrCodeInvalidScenario,
			})
		}
	}

	if len(result.Errors) > 0 {
		result.Valid = false
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateSchemaFile loads one file and checks each declared entity.
// Returns the number of entities found and the problems.
func validateSchemaFile(path string) (int, []ValidationError) {
	provider, err := schema.LoadFile(path)
	if err != nil {
		ve := ValidationError{File: path, Message: err.Error(), Code: ErrCodeInvalidSchema}
		var se *schema.SchemaError
		if errors.As(err, &se) {
			ve.Message = se.Message
			if se.Pos.IsValid() {
				ve.Line = se.Pos.Line()
				ve.Column = se.Pos.Column()
			}
		}
		return 0, []ValidationError{ve}
	}

	lister, ok := provider.(typeLister)
	if !ok {
		return 0, nil
	}

	var errs []ValidationError
	ids := lister.TypeIDs()
	for _, id := range ids {
		if _, err := provider.Describe(id); err != nil {
			errs = append(errs, ValidationError{
				File:    path,
				TypeID:  id,
				Message: err.Error(),
				Code:    schema.CodeInvalidMetadata,
			})
		}
	}
	return len(ids), errs
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result})
	}

	fmt.Fprintf(formatter.Writer, "✓ All files valid (%d file(s), %d type(s))\n", result.Files, result.Types)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Usage errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.Respond(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", err.File, err.Line, err.Column)
		} else {
			fmt.Fprintln(formatter.Writer, err.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
