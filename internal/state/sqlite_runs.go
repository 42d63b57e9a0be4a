package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const runColumns = `r.id, r.started_at, r.finished_at, r.status, r.passes, r.entity_count, r.inputs, r.error,
	EXISTS (SELECT 1 FROM dumps d WHERE d.run_id = r.id)`

// CreateRun records the start of a run.
func (s *SQLiteStore) CreateRun(ctx context.Context, inputs string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	run := &Run{
		ID:        generateID(),
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
		Status:    RunStatusRunning,
		Inputs:    inputs,
	}
	s.logger.Debug("creating run", slog.String("id", run.ID))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status, inputs) VALUES (?, ?, ?, ?)`,
		run.ID, toMillis(run.StartedAt), string(run.Status), run.Inputs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun records the outcome of a run.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, res RunResult) error {
	if s.db == nil {
		return errNotOpen
	}

	var errMsg *string
	if res.Error != "" {
		errMsg = &res.Error
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, passes = ?, entity_count = ?, error = ? WHERE id = ?`,
		toMillis(time.Now().UTC()), string(res.Status), res.Passes, res.EntityCount, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r ORDER BY r.started_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// PruneRuns deletes all but the keep most recent runs and their dumps.
func (s *SQLiteStore) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if s.db == nil {
		return 0, errNotOpen
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		s.logger.Debug("pruned runs", slog.Int64("deleted", n))
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run        Run
		started    int64
		finished   sql.NullInt64
		status     string
		errMessage sql.NullString
	)
	if err := row.Scan(&run.ID, &started, &finished, &status, &run.Passes, &run.EntityCount,
		&run.Inputs, &errMessage, &run.HasDump); err != nil {
		return nil, err
	}

	run.StartedAt = fromMillis(started)
	if finished.Valid {
		t := fromMillis(finished.Int64)
		run.FinishedAt = &t
	}
	run.Status = RunStatus(status)
	run.Error = errMessage.String
	return &run, nil
}
