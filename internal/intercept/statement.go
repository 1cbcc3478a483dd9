package intercept

import (
	"context"
	"database/sql"
)

// KeyHint tells a statement whether auto-generated keys should be made
// available after an insert.
type KeyHint int

const (
	// NoGeneratedKeys leaves generated keys unavailable.
	NoGeneratedKeys KeyHint = iota
	// ReturnGeneratedKeys makes generated keys available.
	ReturnGeneratedKeys
)

// Statement is the data-access API whose calls are intercepted. Each method
// corresponds to one Operation of the catalogue.
//
// Execute variants report whether the statement produced a row set.
// ExecuteUpdate variants return the affected row count; the Large variants
// return it as int64. ExecuteQuery returns rows the caller must close.
type Statement interface {
	Execute(ctx context.Context, query string) (bool, error)
	ExecuteKeys(ctx context.Context, query string, keys KeyHint) (bool, error)
	ExecuteColumnIndexes(ctx context.Context, query string, columnIndexes []int) (bool, error)
	ExecuteColumnNames(ctx context.Context, query string, columnNames []string) (bool, error)

	ExecuteUpdate(ctx context.Context, query string) (int, error)
	ExecuteUpdateKeys(ctx context.Context, query string, keys KeyHint) (int, error)
	ExecuteUpdateColumnIndexes(ctx context.Context, query string, columnIndexes []int) (int, error)
	ExecuteUpdateColumnNames(ctx context.Context, query string, columnNames []string) (int, error)

	ExecuteLargeUpdate(ctx context.Context, query string) (int64, error)
	ExecuteLargeUpdateKeys(ctx context.Context, query string, keys KeyHint) (int64, error)
	ExecuteLargeUpdateColumnIndexes(ctx context.Context, query string, columnIndexes []int) (int64, error)
	ExecuteLargeUpdateColumnNames(ctx context.Context, query string, columnNames []string) (int64, error)

	ExecuteQuery(ctx context.Context, query string) (*sql.Rows, error)
}
