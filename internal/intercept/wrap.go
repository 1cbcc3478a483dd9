package intercept

import (
	"context"
	"database/sql"
)

// Wrap returns a Statement whose calls are dispatched through t before
// reaching inner. Arguments reach inner unchanged and results come back
// unchanged.
func Wrap(inner Statement, t *Table) Statement {
	if ts, ok := inner.(*tracedStatement); ok && ts.table == t {
		return ts
	}
	return &tracedStatement{inner: inner, table: t}
}

// Unwrap returns the statement underneath a Wrap, or s itself.
func Unwrap(s Statement) Statement {
	if ts, ok := s.(*tracedStatement); ok {
		return ts.inner
	}
	return s
}

type tracedStatement struct {
	inner Statement
	table *Table
}

func (s *tracedStatement) Execute(ctx context.Context, query string) (bool, error) {
	return call(ctx, s.table, OpExecute, query, func(ctx context.Context) (bool, error) {
		return s.inner.Execute(ctx, query)
	})
}

func (s *tracedStatement) ExecuteKeys(ctx context.Context, query string, keys KeyHint) (bool, error) {
	return call(ctx, s.table, OpExecuteKeys, query, func(ctx context.Context) (bool, error) {
		return s.inner.ExecuteKeys(ctx, query, keys)
	})
}

func (s *tracedStatement) ExecuteColumnIndexes(ctx context.Context, query string, columnIndexes []int) (bool, error) {
	return call(ctx, s.table, OpExecuteColumnIndexes, query, func(ctx context.Context) (bool, error) {
		return s.inner.ExecuteColumnIndexes(ctx, query, columnIndexes)
	})
}

func (s *tracedStatement) ExecuteColumnNames(ctx context.Context, query string, columnNames []string) (bool, error) {
	return call(ctx, s.table, OpExecuteColumnNames, query, func(ctx context.Context) (bool, error) {
		return s.inner.ExecuteColumnNames(ctx, query, columnNames)
	})
}

func (s *tracedStatement) ExecuteUpdate(ctx context.Context, query string) (int, error) {
	return call(ctx, s.table, OpExecuteUpdate, query, func(ctx context.Context) (int, error) {
		return s.inner.ExecuteUpdate(ctx, query)
	})
}

func (s *tracedStatement) ExecuteUpdateKeys(ctx context.Context, query string, keys KeyHint) (int, error) {
	return call(ctx, s.table, OpExecuteUpdateKeys, query, func(ctx context.Context) (int, error) {
		return s.inner.ExecuteUpdateKeys(ctx, query, keys)
	})
}

func (s *tracedStatement) ExecuteUpdateColumnIndexes(ctx context.Context, query string, columnIndexes []int) (int, error) {
	return call(ctx, s.table, OpExecuteUpdateColumnIndexes, query, func(ctx context.Context) (int, error) {
		return s.inner.ExecuteUpdateColumnIndexes(ctx, query, columnIndexes)
	})
}

func (s *tracedStatement) ExecuteUpdateColumnNames(ctx context.Context, query string, columnNames []string) (int, error) {
	return call(ctx, s.table, OpExecuteUpdateColumnNames, query, func(ctx context.Context) (int, error) {
		return s.inner.ExecuteUpdateColumnNames(ctx, query, columnNames)
	})
}

func (s *tracedStatement) ExecuteLargeUpdate(ctx context.Context, query string) (int64, error) {
	return call(ctx, s.table, OpExecuteLargeUpdate, query, func(ctx context.Context) (int64, error) {
		return s.inner.ExecuteLargeUpdate(ctx, query)
	})
}

func (s *tracedStatement) ExecuteLargeUpdateKeys(ctx context.Context, query string, keys KeyHint) (int64, error) {
	return call(ctx, s.table, OpExecuteLargeUpdateKeys, query, func(ctx context.Context) (int64, error) {
		return s.inner.ExecuteLargeUpdateKeys(ctx, query, keys)
	})
}

func (s *tracedStatement) ExecuteLargeUpdateColumnIndexes(ctx context.Context, query string, columnIndexes []int) (int64, error) {
	return call(ctx, s.table, OpExecuteLargeUpdateColumnIndexes, query, func(ctx context.Context) (int64, error) {
		return s.inner.ExecuteLargeUpdateColumnIndexes(ctx, query, columnIndexes)
	})
}

func (s *tracedStatement) ExecuteLargeUpdateColumnNames(ctx context.Context, query string, columnNames []string) (int64, error) {
	return call(ctx, s.table, OpExecuteLargeUpdateColumnNames, query, func(ctx context.Context) (int64, error) {
		return s.inner.ExecuteLargeUpdateColumnNames(ctx, query, columnNames)
	})
}

func (s *tracedStatement) ExecuteQuery(ctx context.Context, query string) (*sql.Rows, error) {
	return call(ctx, s.table, OpExecuteQuery, query, func(ctx context.Context) (*sql.Rows, error) {
		return s.inner.ExecuteQuery(ctx, query)
	})
}
