package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed entity_schema.cue
var entitySchema string

// SchemaError is a CUE validation failure with its source position.
type SchemaError struct {
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// CUEProvider describes entities declared in CUE. Documents are unified
// with an embedded schema, so misspelled fields and negative lengths are
// rejected at load time.
type CUEProvider struct {
	*documentProvider
}

// NewCUEProvider compiles src (reported as filename) and validates it.
func NewCUEProvider(filename string, src []byte) (*CUEProvider, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(entitySchema, cue.Filename("entity_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile entity schema: %w", err)
	}

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc document
	entities := unified.LookupPath(cue.ParsePath("entities"))
	if entities.Exists() {
		if err := entities.Decode(&doc.Entities); err != nil {
			return nil, formatCUEError(err)
		}
	}

	dp, err := newDocumentProvider(filename, doc)
	if err != nil {
		return nil, err
	}
	return &CUEProvider{documentProvider: dp}, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &SchemaError{Message: first.Error(), Pos: positions[0]}
	}
	return &SchemaError{Message: first.Error()}
}
