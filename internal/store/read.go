package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sqlprobe/internal/ir"
)

// ErrEpisodeNotFound is returned when an episode ID is not archived.
var ErrEpisodeNotFound = errors.New("episode not found")

// EpisodeSummary describes one archived episode without its facts.
type EpisodeSummary struct {
	ID              string `json:"id"`
	Seq             int64  `json:"seq"`
	Executions      int    `json:"executions"`
	FailedCount     int    `json:"failed"`
	Constraints     int    `json:"constraints"`
	ExecutionsHash  string `json:"executions_hash"`
	ConstraintsHash string `json:"constraints_hash"`
}

// ArchivedFact is an execution fact located in the archive.
type ArchivedFact struct {
	EpisodeID string
	Ordinal   int
	Fact      ir.ExecutionFact
}

// ReadEpisode loads the snapshot archived under id.
//
// Facts come back in their original order.
func (s *Store) ReadEpisode(ctx context.Context, id string) (ir.EpisodeSnapshot, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM episodes WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.EpisodeSnapshot{}, fmt.Errorf("read episode %s: %w", id, ErrEpisodeNotFound)
	}
	if err != nil {
		return ir.EpisodeSnapshot{}, fmt.Errorf("read episode %s: %w", id, err)
	}

	snap := ir.EpisodeSnapshot{EpisodeID: id}
	if snap.Executions, err = s.readExecutions(ctx, id); err != nil {
		return ir.EpisodeSnapshot{}, err
	}
	if snap.Constraints, err = s.readConstraints(ctx, id); err != nil {
		return ir.EpisodeSnapshot{}, err
	}
	return snap, nil
}

func (s *Store) readExecutions(ctx context.Context, id string) ([]ir.ExecutionFact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT statement, operation, failed, execution_millis
		FROM execution_facts
		WHERE episode_id = ?
		ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read executions %s: %w", id, err)
	}
	defer rows.Close()

	facts := []ir.ExecutionFact{}
	for rows.Next() {
		var f ir.ExecutionFact
		if err := rows.Scan(&f.Statement, &f.Operation, &f.Failed, &f.ExecutionMillis); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return facts, nil
}

func (s *Store) readConstraints(ctx context.Context, id string) ([]ir.ColumnConstraint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name, column_name, nullable, is_unique, max_length
		FROM column_constraints
		WHERE episode_id = ?
		ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read constraints %s: %w", id, err)
	}
	defer rows.Close()

	constraints := []ir.ColumnConstraint{}
	for rows.Next() {
		var c ir.ColumnConstraint
		if err := rows.Scan(&c.TableName, &c.ColumnName, &c.Nullable, &c.Unique, &c.MaxLength); err != nil {
			return nil, fmt.Errorf("scan constraint: %w", err)
		}
		constraints = append(constraints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate constraints: %w", err)
	}
	return constraints, nil
}

// ListEpisodes returns all archived episodes in archive order.
func (s *Store) ListEpisodes(ctx context.Context) ([]EpisodeSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.seq, e.executions_hash, e.constraints_hash,
			(SELECT COUNT(*) FROM execution_facts f WHERE f.episode_id = e.id),
			(SELECT COUNT(*) FROM execution_facts f WHERE f.episode_id = e.id AND f.failed = 1),
			(SELECT COUNT(*) FROM column_constraints c WHERE c.episode_id = e.id)
		FROM episodes e
		ORDER BY e.seq ASC, e.id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	out := []EpisodeSummary{}
	for rows.Next() {
		var e EpisodeSummary
		if err := rows.Scan(&e.ID, &e.Seq, &e.ExecutionsHash, &e.ConstraintsHash,
			&e.Executions, &e.FailedCount, &e.Constraints); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return out, nil
}

// FindStatement returns every archived execution of statement, in archive
// order.
func (s *Store) FindStatement(ctx context.Context, statement string) ([]ArchivedFact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.episode_id, f.ordinal, f.statement, f.operation, f.failed, f.execution_millis
		FROM execution_facts f
		JOIN episodes e ON e.id = f.episode_id
		WHERE f.statement = ?
		ORDER BY e.seq ASC, f.ordinal ASC
	`, statement)
	if err != nil {
		return nil, fmt.Errorf("find statement: %w", err)
	}
	defer rows.Close()

	out := []ArchivedFact{}
	for rows.Next() {
		var a ArchivedFact
		if err := rows.Scan(&a.EpisodeID, &a.Ordinal, &a.Fact.Statement, &a.Fact.Operation,
			&a.Fact.Failed, &a.Fact.ExecutionMillis); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return out, nil
}
