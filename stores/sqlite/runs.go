// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdhender/peg/model"
)

// InsertRun inserts a Run and returns its assigned ID.
func (s *SQLiteStore) InsertRun(ctx context.Context, run *model.Run) (int64, error) {
	const query = `
		INSERT INTO runs (input_file_id, grammar_id, start_symbol, matched, tree, remainder, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		run.InputFileID,
		run.GrammarID,
		run.Start,
		boolToInt(run.Matched),
		run.Tree,
		run.Remainder,
		run.DurationMS,
		run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return result.LastInsertId()
}

// GetRunByInput retrieves the most recent Run for an input file.
// Returns nil (and no error) when none exists.
func (s *SQLiteStore) GetRunByInput(ctx context.Context, inputFileID int64) (*model.Run, error) {
	const query = `
		SELECT id, input_file_id, grammar_id, start_symbol, matched, tree, remainder, duration_ms, created_at
		FROM runs
		WHERE input_file_id = ?
		ORDER BY id DESC
		LIMIT 1
	`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, inputFileID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*model.Run, error) {
	const query = `
		SELECT id, input_file_id, grammar_id, start_symbol, matched, tree, remainder, duration_ms, created_at
		FROM runs
		ORDER BY id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var run model.Run
		var matched int
		var createdAt string
		if err := rows.Scan(
			&run.ID,
			&run.InputFileID,
			&run.GrammarID,
			&run.Start,
			&matched,
			&run.Tree,
			&run.Remainder,
			&run.DurationMS,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.Matched = matched != 0
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			run.CreatedAt = t
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func scanRun(row *sql.Row) (*model.Run, error) {
	var run model.Run
	var matched int
	var createdAt string
	err := row.Scan(
		&run.ID,
		&run.InputFileID,
		&run.GrammarID,
		&run.Start,
		&matched,
		&run.Tree,
		&run.Remainder,
		&run.DurationMS,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	run.Matched = matched != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		run.CreatedAt = t
	}
	return &run, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
