package schema

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sqlprobe/internal/ir"
)

// UnitsSink receives the constraint batch of an analysis pass.
// *recorder.UnitsInfo implements it.
type UnitsSink interface {
	AppendBatch(batch []ir.ColumnConstraint)
}

// TypeResult is the outcome of analysing one type.
type TypeResult struct {
	TypeID      string
	Table       string
	Constraints []ir.ColumnConstraint
	Err         error // *AnalysisError on failure
}

// OK reports whether the type was analysed successfully.
func (r TypeResult) OK() bool { return r.Err == nil }

// Report lists per-type results in input order, duplicates removed.
type Report struct {
	Results []TypeResult
}

// Failed returns the results of types that produced no constraints
// because of an error.
func (r *Report) Failed() []TypeResult {
	var out []TypeResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Constraints returns all successful constraints in result order.
func (r *Report) Constraints() []ir.ColumnConstraint {
	out := []ir.ColumnConstraint{}
	for _, res := range r.Results {
		out = append(out, res.Constraints...)
	}
	return out
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the logger for per-type failures (default discards).
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// Analyzer derives constraints for entity types and hands them to a sink.
type Analyzer struct {
	provider MetadataProvider
	sink     UnitsSink
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer reading from provider and writing to sink.
// A nil sink keeps results in the report only.
func NewAnalyzer(provider MetadataProvider, sink UnitsSink, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		provider: provider,
		sink:     sink,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze derives constraints for each type in order.
//
// A type that cannot be resolved or described fails on its own; the rest of
// the batch is still analysed. Constraints of all successful types are
// appended to the sink as one batch after the last type. Once ctx is done,
// the remaining types fail with CANCELED.
func (a *Analyzer) Analyze(ctx context.Context, typeIDs []string) *Report {
	report := &Report{Results: make([]TypeResult, 0, len(typeIDs))}
	seen := make(map[string]bool, len(typeIDs))

	for _, id := range typeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		res := a.analyzeType(ctx, id)
		if res.Err != nil {
			a.logger.Warn("type analysis failed",
				"type", id,
				"error", res.Err,
			)
		}
		report.Results = append(report.Results, res)
	}

	batch := report.Constraints()
	if a.sink != nil {
		a.sink.AppendBatch(batch)
	}
	a.logger.Debug("analysis complete",
		"types", len(report.Results),
		"failed", len(report.Failed()),
		"constraints", len(batch),
	)
	return report
}

// analyzeType resolves and derives one type. A provider panic becomes an
// INVALID_METADATA failure for that type only.
func (a *Analyzer) analyzeType(ctx context.Context, id string) (res TypeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = TypeResult{
				TypeID: id,
				Err:    newAnalysisError(id, fmt.Errorf("%w: describe panicked: %v", ErrInvalidMetadata, r)),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return TypeResult{TypeID: id, Err: newAnalysisError(id, err)}
	}
	if a.provider == nil {
		return TypeResult{TypeID: id, Err: newAnalysisError(id, ErrTypeNotFound)}
	}

	entity, err := a.provider.Describe(id)
	if err != nil {
		return TypeResult{TypeID: id, Err: newAnalysisError(id, err)}
	}
	return TypeResult{
		TypeID:      id,
		Table:       entity.TableName(),
		Constraints: Derive(entity),
	}
}

// Derive applies the constraint rules to one entity. The result depends
// only on the entity's declared metadata.
func Derive(e Entity) []ir.ColumnConstraint {
	table := e.TableName()
	out := []ir.ColumnConstraint{}
	for _, c := range e.Columns {
		nullable := !(c.Required || c.NonNullType)
		if nullable && !c.Unique && c.MaxLength == 0 {
			continue
		}
		out = append(out, ir.ColumnConstraint{
			TableName:  table,
			ColumnName: c.Name,
			Nullable:   nullable,
			Unique:     c.Unique,
			MaxLength:  c.MaxLength,
		})
	}
	return out
}
