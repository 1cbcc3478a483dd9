package store

import (
	"context"
	"fmt"

	"github.com/roach88/sqlprobe/internal/ir"
)

// WriteEpisode archives a snapshot in one transaction and reports whether
// it was inserted.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing an episode ID
// that is already archived leaves the stored episode untouched and returns
// inserted=false.
func (s *Store) WriteEpisode(ctx context.Context, snap ir.EpisodeSnapshot) (inserted bool, err error) {
	if snap.EpisodeID == "" {
		return false, fmt.Errorf("write episode: empty episode id")
	}

	execHash, err := ir.ExecutionsFingerprint(snap.Executions)
	if err != nil {
		return false, fmt.Errorf("write episode: %w", err)
	}
	consHash, err := ir.ConstraintsFingerprint(snap.Constraints)
	if err != nil {
		return false, fmt.Errorf("write episode: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write episode: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO episodes (id, seq, executions_hash, constraints_hash)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM episodes), ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, snap.EpisodeID, execHash, consHash)
	if err != nil {
		return false, fmt.Errorf("write episode: insert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write episode: rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	for i, f := range snap.Executions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO execution_facts
			(episode_id, ordinal, statement, operation, failed, execution_millis)
			VALUES (?, ?, ?, ?, ?, ?)
		`, snap.EpisodeID, i, f.Statement, f.Operation, f.Failed, f.ExecutionMillis)
		if err != nil {
			return false, fmt.Errorf("write episode: execution %d: %w", i, err)
		}
	}

	for i, c := range snap.Constraints {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO column_constraints
			(episode_id, ordinal, table_name, column_name, nullable, is_unique, max_length)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, snap.EpisodeID, i, c.TableName, c.ColumnName, c.Nullable, c.Unique, c.MaxLength)
		if err != nil {
			return false, fmt.Errorf("write episode: constraint %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write episode: commit: %w", err)
	}
	return true, nil
}

// DeleteEpisode removes an archived episode and its facts.
// Deleting an unknown ID is not an error.
func (s *Store) DeleteEpisode(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM episodes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete episode %s: %w", id, err)
	}
	return nil
}
