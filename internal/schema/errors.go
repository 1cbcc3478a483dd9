package schema

import (
	"context"
	"errors"
	"fmt"
)

// Error codes for per-type analysis failures.
const (
	CodeTypeNotFound    = "TYPE_NOT_FOUND"
	CodeInvalidMetadata = "INVALID_METADATA"
	CodeCanceled        = "CANCELED"
)

// AnalysisError reports why one type produced no constraints.
type AnalysisError struct {
	Code   string
	TypeID string
	Err    error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.TypeID, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// newAnalysisError classifies err for typeID.
func newAnalysisError(typeID string, err error) *AnalysisError {
	code := CodeInvalidMetadata
	switch {
	case errors.Is(err, ErrTypeNotFound):
		code = CodeTypeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = CodeCanceled
	}
	return &AnalysisError{Code: code, TypeID: typeID, Err: err}
}

// IsTypeNotFound reports whether err is a TYPE_NOT_FOUND analysis failure.
func IsTypeNotFound(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == CodeTypeNotFound
}
