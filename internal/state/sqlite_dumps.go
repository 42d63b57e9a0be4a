package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SaveDump stores content as the dump of run runID, replacing any earlier one.
func (s *SQLiteStore) SaveDump(ctx context.Context, runID string, content []byte) error {
	if s.db == nil {
		return errNotOpen
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO dumps (run_id, created_at, content) VALUES (?, ?, ?)`,
		runID, toMillis(time.Now().UTC()), content,
	)
	if err != nil {
		return fmt.Errorf("failed to save dump: %w", err)
	}
	s.logger.Debug("dump saved", slog.String("run", runID), slog.Int("bytes", len(content)))
	return nil
}

// GetDump retrieves the dump of a run.
func (s *SQLiteStore) GetDump(ctx context.Context, runID string) (*Dump, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	dump := &Dump{RunID: runID}
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, content FROM dumps WHERE run_id = ?`, runID,
	).Scan(&created, &dump.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dump for run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dump: %w", err)
	}
	dump.CreatedAt = fromMillis(created)
	return dump, nil
}
