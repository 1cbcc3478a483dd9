package intercept

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"sync"
)

// Execer is the subset of *sql.DB, *sql.Conn and *sql.Tx used by
// SQLStatement.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// rowKeywords are leading keywords of statements that produce a row set.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"VALUES":   true,
	"PRAGMA":   true,
	"EXPLAIN":  true,
	"SHOW":     true,
	"DESCRIBE": true,
}

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

// SQLStatement adapts a database/sql handle to the Statement interface.
//
// Execute variants run row-producing statements (detected by their leading
// keyword or a RETURNING clause) through QueryContext and close the rows
// immediately; everything else goes through ExecContext.
//
// Thread-safety: safe for concurrent use; LastInsertID reflects the most
// recent key-requesting call.
type SQLStatement struct {
	db Execer

	mu           sync.Mutex
	lastInsertID int64
	hasKeys      bool
}

// NewStatement creates a Statement over db.
func NewStatement(db Execer) *SQLStatement {
	return &SQLStatement{db: db}
}

// LastInsertID returns the generated key of the most recent call that asked
// for generated keys, and whether one was available.
func (s *SQLStatement) LastInsertID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInsertID, s.hasKeys
}

// ReturnsRows reports whether query is expected to produce a row set.
// Leading "--" and "/* */" comments are skipped before the keyword is read.
func ReturnsRows(query string) bool {
	trimmed := skipLeadingComments(query)
	end := strings.IndexFunc(trimmed, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	keyword := trimmed
	if end >= 0 {
		keyword = trimmed[:end]
	}
	if rowKeywords[strings.ToUpper(keyword)] {
		return true
	}
	return returningClause.MatchString(query)
}

// skipLeadingComments drops whitespace, opening parentheses and SQL comments
// in front of the first keyword. An unterminated comment leaves nothing.
func skipLeadingComments(query string) string {
	for {
		query = strings.TrimLeft(query, " \t\r\n(")
		switch {
		case strings.HasPrefix(query, "--"):
			i := strings.IndexByte(query, '\n')
			if i < 0 {
				return ""
			}
			query = query[i+1:]
		case strings.HasPrefix(query, "/*"):
			i := strings.Index(query[2:], "*/")
			if i < 0 {
				return ""
			}
			query = query[i+4:]
		default:
			return query
		}
	}
}

// Execute runs query and reports whether it produced a row set.
func (s *SQLStatement) Execute(ctx context.Context, query string) (bool, error) {
	return s.execute(ctx, query, false)
}

// ExecuteKeys is Execute that records generated keys when keys asks for them.
func (s *SQLStatement) ExecuteKeys(ctx context.Context, query string, keys KeyHint) (bool, error) {
	return s.execute(ctx, query, keys == ReturnGeneratedKeys)
}

// ExecuteColumnIndexes is Execute that records generated keys when any index is given.
func (s *SQLStatement) ExecuteColumnIndexes(ctx context.Context, query string, columnIndexes []int) (bool, error) {
	return s.execute(ctx, query, len(columnIndexes) > 0)
}

// ExecuteColumnNames is Execute that records generated keys when any column is named.
func (s *SQLStatement) ExecuteColumnNames(ctx context.Context, query string, columnNames []string) (bool, error) {
	return s.execute(ctx, query, len(columnNames) > 0)
}

// ExecuteUpdate runs a data-changing statement and returns the affected row count.
func (s *SQLStatement) ExecuteUpdate(ctx context.Context, query string) (int, error) {
	n, err := s.update(ctx, query, false)
	return int(n), err
}

// ExecuteUpdateKeys is ExecuteUpdate that records generated keys on request.
func (s *SQLStatement) ExecuteUpdateKeys(ctx context.Context, query string, keys KeyHint) (int, error) {
	n, err := s.update(ctx, query, keys == ReturnGeneratedKeys)
	return int(n), err
}

// ExecuteUpdateColumnIndexes is ExecuteUpdate keyed by column indexes.
func (s *SQLStatement) ExecuteUpdateColumnIndexes(ctx context.Context, query string, columnIndexes []int) (int, error) {
	n, err := s.update(ctx, query, len(columnIndexes) > 0)
	return int(n), err
}

// ExecuteUpdateColumnNames is ExecuteUpdate keyed by column names.
func (s *SQLStatement) ExecuteUpdateColumnNames(ctx context.Context, query string, columnNames []string) (int, error) {
	n, err := s.update(ctx, query, len(columnNames) > 0)
	return int(n), err
}

// ExecuteLargeUpdate is ExecuteUpdate with a 64-bit count.
func (s *SQLStatement) ExecuteLargeUpdate(ctx context.Context, query string) (int64, error) {
	return s.update(ctx, query, false)
}

// ExecuteLargeUpdateKeys is ExecuteUpdateKeys with a 64-bit count.
func (s *SQLStatement) ExecuteLargeUpdateKeys(ctx context.Context, query string, keys KeyHint) (int64, error) {
	return s.update(ctx, query, keys == ReturnGeneratedKeys)
}

// ExecuteLargeUpdateColumnIndexes is ExecuteUpdateColumnIndexes with a 64-bit count.
func (s *SQLStatement) ExecuteLargeUpdateColumnIndexes(ctx context.Context, query string, columnIndexes []int) (int64, error) {
	return s.update(ctx, query, len(columnIndexes) > 0)
}

// ExecuteLargeUpdateColumnNames is ExecuteUpdateColumnNames with a 64-bit count.
func (s *SQLStatement) ExecuteLargeUpdateColumnNames(ctx context.Context, query string, columnNames []string) (int64, error) {
	return s.update(ctx, query, len(columnNames) > 0)
}

// ExecuteQuery runs query and returns its rows. The caller closes them.
func (s *SQLStatement) ExecuteQuery(ctx context.Context, query string) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query)
}

func (s *SQLStatement) execute(ctx context.Context, query string, wantKeys bool) (bool, error) {
	if ReturnsRows(query) {
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return false, err
		}
		if err := rows.Close(); err != nil {
			return true, err
		}
		return true, rows.Err()
	}
	_, err := s.update(ctx, query, wantKeys)
	return false, err
}

func (s *SQLStatement) update(ctx context.Context, query string, wantKeys bool) (int64, error) {
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	if wantKeys {
		s.storeKeys(res)
	}
	return res.RowsAffected()
}

// storeKeys remembers the generated key. Drivers without LastInsertId
// support leave the key unavailable; a key hint is not an error source.
func (s *SQLStatement) storeKeys(res sql.Result) {
	id, err := res.LastInsertId()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastInsertID, s.hasKeys = id, err == nil
}

var _ Statement = (*SQLStatement)(nil)
