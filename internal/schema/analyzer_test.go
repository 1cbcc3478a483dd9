package schema_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlprobe/internal/ir"
	"github.com/roach88/sqlprobe/internal/recorder"
	"github.com/roach88/sqlprobe/internal/schema"
)

func TestAnalyze_FixtureEntities(t *testing.T) {
	units := recorder.NewUnitsInfo()
	report := schema.NewAnalyzer(fixtureProvider(), units).
		Analyze(context.Background(), []string{entityXID, entityYID})

	require.Empty(t, report.Failed())

	x := units.TableConstraints("EntityX")
	y := units.TableConstraints("BAR")
	require.Len(t, x, 2)
	require.Len(t, y, 4)

	assert.Equal(t, []string{"y", "k"}, columnNames(x))
	assert.Equal(t, []string{"x", "foo", "hello", "k"}, columnNames(y))
	for _, c := range append(x, y...) {
		assert.False(t, c.Nullable, c.Key())
	}
	assert.Equal(t, 64, y[1].MaxLength)
}

func TestAnalyze_Idempotent(t *testing.T) {
	units := recorder.NewUnitsInfo()
	analyzer := schema.NewAnalyzer(fixtureProvider(), units)
	ids := []string{entityXID, entityYID}

	analyzer.Analyze(context.Background(), ids)
	first, err := ir.ConstraintsFingerprint(units.Snapshot())
	require.NoError(t, err)

	units.Reset()
	analyzer.Analyze(context.Background(), ids)
	second, err := ir.ConstraintsFingerprint(units.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyze_PerTypeOutputIndependentOfOrder(t *testing.T) {
	forward := schema.NewAnalyzer(fixtureProvider(), nil).
		Analyze(context.Background(), []string{entityXID, entityYID})
	backward := schema.NewAnalyzer(fixtureProvider(), nil).
		Analyze(context.Background(), []string{entityYID, entityXID})

	assert.Equal(t, forward.Results[0].Constraints, backward.Results[1].Constraints)
	assert.Equal(t, forward.Results[1].Constraints, backward.Results[0].Constraints)
}

func TestAnalyze_UnresolvableTypeIsIsolated(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	units := recorder.NewUnitsInfo()

	report := schema.NewAnalyzer(fixtureProvider(), units, schema.WithLogger(logger)).
		Analyze(context.Background(), []string{entityXID, "com.foo.DoesNotExist", entityYID})

	require.Len(t, report.Results, 3)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "com.foo.DoesNotExist", failed[0].TypeID)
	assert.True(t, schema.IsTypeNotFound(failed[0].Err))
	assert.Empty(t, failed[0].Constraints)

	assert.Len(t, units.Snapshot(), 6, "resolvable types still recorded")
	assert.Contains(t, logs.String(), "type analysis failed")
	assert.Contains(t, logs.String(), "com.foo.DoesNotExist")
}

func TestAnalyze_InvalidMetadataCode(t *testing.T) {
	report := schema.NewAnalyzer(fixtureProvider(), nil).
		Analyze(context.Background(), []string{schema.TypeID(badSize{})})

	failed := report.Failed()
	require.Len(t, failed, 1)

	var ae *schema.AnalysisError
	require.ErrorAs(t, failed[0].Err, &ae)
	assert.Equal(t, schema.CodeInvalidMetadata, ae.Code)
	assert.ErrorIs(t, failed[0].Err, schema.ErrInvalidMetadata)
}

func TestAnalyze_PanickingTableNameIsIsolated(t *testing.T) {
	units := recorder.NewUnitsInfo()
	report := schema.NewAnalyzer(fixtureProvider(), units).
		Analyze(context.Background(), []string{schema.TypeID(prefixed{}), entityXID})

	require.Len(t, report.Results, 2)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, schema.TypeID(prefixed{}), failed[0].TypeID)

	var ae *schema.AnalysisError
	require.ErrorAs(t, failed[0].Err, &ae)
	assert.Equal(t, schema.CodeInvalidMetadata, ae.Code)
	assert.ErrorIs(t, failed[0].Err, schema.ErrInvalidMetadata)

	assert.Len(t, units.TableConstraints("EntityX"), 2)
	assert.Len(t, units.Snapshot(), 2)
}

func TestAnalyze_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := recorder.NewUnitsInfo()
	report := schema.NewAnalyzer(fixtureProvider(), units).Analyze(ctx, []string{entityXID})

	var ae *schema.AnalysisError
	require.ErrorAs(t, report.Results[0].Err, &ae)
	assert.Equal(t, schema.CodeCanceled, ae.Code)
	assert.Empty(t, units.Snapshot())
}

func TestAnalyze_DuplicatesAnalysedOnce(t *testing.T) {
	units := recorder.NewUnitsInfo()
	report := schema.NewAnalyzer(fixtureProvider(), units).
		Analyze(context.Background(), []string{entityXID, entityXID})

	assert.Len(t, report.Results, 1)
	assert.Len(t, units.Snapshot(), 2)
}

func TestAnalyze_NilProvider(t *testing.T) {
	report := schema.NewAnalyzer(nil, nil).Analyze(context.Background(), []string{"a"})
	require.Len(t, report.Failed(), 1)
	assert.True(t, schema.IsTypeNotFound(report.Failed()[0].Err))
}

func TestDerive_NullableColumnsWithoutConstraintsAreSkipped(t *testing.T) {
	got := schema.Derive(schema.Entity{
		SimpleName: "T",
		Columns: []schema.Column{
			{Name: "plain"},
			{Name: "email", Unique: true},
			{Name: "code", MaxLength: 8},
			{Name: "n", NonNullType: true},
		},
	})
	assert.Equal(t, []ir.ColumnConstraint{
		{TableName: "T", ColumnName: "email", Nullable: true, Unique: true},
		{TableName: "T", ColumnName: "code", Nullable: true, MaxLength: 8},
		{TableName: "T", ColumnName: "n", Nullable: false},
	}, got)
}

func columnNames(cs []ir.ColumnConstraint) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ColumnName
	}
	return out
}
