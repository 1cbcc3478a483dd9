package harness

import (
	"errors"

	"github.com/roach88/sqlprobe/internal/ir"
	"github.com/roach88/sqlprobe/internal/schema"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every statement behaved as expected and all assertions hold.
	Pass bool `json:"pass"`

	// Snapshot is the episode snapshot read after the last statement.
	Snapshot ir.EpisodeSnapshot `json:"snapshot"`

	// Failures lists the analysis failures, in input order.
	Failures []AnalysisFailure `json:"analysis_failures,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Archived reports whether the snapshot was written to an archive.
	Archived bool `json:"archived,omitempty"`
}

// AnalysisFailure is a type that produced no constraints.
type AnalysisFailure struct {
	TypeID  string `json:"type_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addReport(report *schema.Report) {
	for _, res := range report.Failed() {
		f := AnalysisFailure{TypeID: res.TypeID, Code: schema.CodeInvalidMetadata, Message: res.Err.Error()}
		var ae *schema.AnalysisError
		if errors.As(res.Err, &ae) {
			f.Code = ae.Code
		}
		r.Failures = append(r.Failures, f)
	}
}
