package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlprobe/internal/intercept"
)

// Scenario defines one recorded episode.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// EpisodeID is an optional fixed episode ID.
	// If empty, defaults to "test-episode-default" for deterministic golden file comparison.
	EpisodeID string `yaml:"episode_id,omitempty"`

	// Mode selects how statements reach the interception layer:
	// "statement" (default) or "driver".
	Mode string `yaml:"mode,omitempty"`

	// Schemas lists entity description files (.cue, .yaml, .yml).
	// Paths are relative to the scenario file location.
	Schemas []string `yaml:"schemas,omitempty"`

	// Types lists entity type identifiers to analyse, in order.
	Types []string `yaml:"types,omitempty"`

	// Setup contains SQL run before the episode begins. It is not traced
	// and must succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Statements are executed in order during the episode.
	Statements []Step `yaml:"statements,omitempty"`

	// Assertions validate the episode snapshot.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one intercepted call.
type Step struct {
	// Op is the Statement operation to call, e.g. "execute_update".
	Op string `yaml:"op"`

	// SQL is the statement text. Empty text is allowed and is not recorded.
	SQL string `yaml:"sql"`

	// Keys requests generated keys (the *_keys operations).
	Keys bool `yaml:"keys,omitempty"`

	// ColumnIndexes and ColumnNames feed the column specifier operations.
	ColumnIndexes []int    `yaml:"column_indexes,omitempty"`
	ColumnNames   []string `yaml:"column_names,omitempty"`

	// ExpectError states that the call must fail.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Assertion validates the episode snapshot or analysis report.
type Assertion struct {
	// Type specifies the assertion type:
	// - "fact_count": Check the number of execution facts
	// - "fact_contains": Check a fact with the given statement exists
	// - "fact_order": Check statements appear in order
	// - "constraint_count": Check the number of constraints
	// - "constraint_contains": Check a constraint for table.column exists
	// - "analysis_failed": Check the listed types failed analysis
	Type string `yaml:"type"`

	// SQL is the statement text (used by fact_contains).
	SQL string `yaml:"sql,omitempty"`

	// Op is the expected operation (used by fact_contains).
	Op string `yaml:"op,omitempty"`

	// Failed filters facts by outcome (used by fact_count, fact_contains).
	Failed *bool `yaml:"failed,omitempty"`

	// Count is the expected number (used by fact_count, constraint_count).
	Count int `yaml:"count,omitempty"`

	// SQLs is the expected statement order (used by fact_order).
	SQLs []string `yaml:"sqls,omitempty"`

	// Table and Column locate a constraint (used by constraint_*).
	Table  string `yaml:"table,omitempty"`
	Column string `yaml:"column,omitempty"`

	// Nullable is the expected nullability (used by constraint_contains).
	Nullable *bool `yaml:"nullable,omitempty"`

	// Types lists type identifiers (used by analysis_failed).
	Types []string `yaml:"types,omitempty"`

	// Code is the expected failure code (used by analysis_failed).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertFactCount          = "fact_count"
	AssertFactContains       = "fact_contains"
	AssertFactOrder          = "fact_order"
	AssertConstraintCount    = "constraint_count"
	AssertConstraintContains = "constraint_contains"
	AssertAnalysisFailed     = "analysis_failed"
)

// Execution modes.
const (
	ModeStatement = "statement"
	ModeDriver    = "driver"
)

// LoadScenario reads and parses a scenario YAML file.
// Schema paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving schema paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve schema paths relative to base path BEFORE validation
	for i, p := range scenario.Schemas {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Schemas[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Mode {
	case "", ModeStatement, ModeDriver:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeStatement, ModeDriver, s.Mode)
	}

	if len(s.Statements) == 0 && len(s.Types) == 0 {
		return fmt.Errorf("statements or types are required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range s.Schemas {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", p)
		}
	}

	for i, sql := range s.Setup {
		if strings.TrimSpace(sql) == "" {
			return fmt.Errorf("setup[%d]: sql is required", i)
		}
	}

	for i, step := range s.Statements {
		if step.Op == "" {
			return fmt.Errorf("statements[%d]: op is required", i)
		}
		if !isStatementOp(intercept.Operation(step.Op)) {
			return fmt.Errorf("statements[%d]: unknown op %q", i, step.Op)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFactCount, AssertConstraintCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertFactContains:
		if a.SQL == "" {
			return fmt.Errorf("assertions[%d]: sql is required for fact_contains", index)
		}
	case AssertFactOrder:
		if len(a.SQLs) == 0 {
			return fmt.Errorf("assertions[%d]: sqls list is required for fact_order", index)
		}
	case AssertConstraintContains:
		if a.Table == "" || a.Column == "" {
			return fmt.Errorf("assertions[%d]: table and column are required for constraint_contains", index)
		}
	case AssertAnalysisFailed:
		if len(a.Types) == 0 {
			return fmt.Errorf("assertions[%d]: types list is required for analysis_failed", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// isStatementOp reports whether op is a Statement method, as opposed to a
// driver-level call shape.
func isStatementOp(op intercept.Operation) bool {
	return intercept.Known(op) && op != intercept.OpDriverExec && op != intercept.OpDriverQuery
}
