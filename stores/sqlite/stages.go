// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdhender/peg/model"
)

// InsertWork inserts a Work job and returns its assigned ID.
func (s *SQLiteStore) InsertWork(ctx context.Context, work *model.Work) (int64, error) {
	const query = `
		INSERT INTO work (input_file_id, stage, status, attempt, available_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		work.InputFileID,
		work.Stage,
		work.Status,
		work.Attempt,
		work.AvailableAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert work: %w", err)
	}
	return result.LastInsertId()
}

// ClaimWork atomically claims a queued job for a stage, returning nil if none available.
func (s *SQLiteStore) ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error) {
	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339)

	const query = `
		UPDATE work
		SET status = 'running',
		    locked_by = ?,
		    locked_at = ?,
		    started_at = COALESCE(started_at, ?),
		    attempt = attempt + 1
		WHERE id = (
			SELECT id FROM work
			WHERE stage = ?
			  AND status = 'queued'
			  AND available_at <= ?
			ORDER BY available_at
			LIMIT 1
		)
		RETURNING id, input_file_id, stage, status, attempt, available_at,
		          locked_by, locked_at, started_at, finished_at, error_code, error_message
	`

	row := s.db.QueryRowContext(ctx, query, workerID, nowStr, nowStr, stage, nowStr)
	work, err := scanWork(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim work: %w", err)
	}
	return work, nil
}

// FinishWork updates a job's status to ok or failed with optional error info.
func (s *SQLiteStore) FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error {
	const query = `
		UPDATE work
		SET status = ?,
		    finished_at = ?,
		    error_code = ?,
		    error_message = ?,
		    locked_by = NULL,
		    locked_at = NULL
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		status,
		time.Now().UTC().Format(time.RFC3339),
		nullString(errorCode),
		nullString(errorMsg),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish work: %w", err)
	}
	return nil
}

// ResetFailedWork resets failed jobs for a stage back to queued, returning count reset.
func (s *SQLiteStore) ResetFailedWork(ctx context.Context, stage string) (int, error) {
	const query = `
		UPDATE work
		SET status = 'queued',
		    available_at = ?,
		    locked_by = NULL,
		    locked_at = NULL,
		    finished_at = NULL,
		    error_code = NULL,
		    error_message = NULL
		WHERE stage = ?
		  AND status = 'failed'
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), stage)
	if err != nil {
		return 0, fmt.Errorf("reset failed work: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset failed work: %w", err)
	}
	return int(n), nil
}

// GetWorkByID retrieves a Work job by ID.
// Returns nil (and no error) when it does not exist.
func (s *SQLiteStore) GetWorkByID(ctx context.Context, id int64) (*model.Work, error) {
	const query = `
		SELECT id, input_file_id, stage, status, attempt, available_at,
		       locked_by, locked_at, started_at, finished_at, error_code, error_message
		FROM work
		WHERE id = ?
	`
	work, err := scanWork(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work: %w", err)
	}
	return work, nil
}

func scanWork(row *sql.Row) (*model.Work, error) {
	var work model.Work
	var availableAt string
	var lockedBy, errorCode, errorMessage sql.NullString
	var lockedAt, startedAt, finishedAt sql.NullString

	err := row.Scan(
		&work.ID,
		&work.InputFileID,
		&work.Stage,
		&work.Status,
		&work.Attempt,
		&availableAt,
		&lockedBy,
		&lockedAt,
		&startedAt,
		&finishedAt,
		&errorCode,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, availableAt); err == nil {
		work.AvailableAt = t
	}
	work.LockedBy = lockedBy.String
	work.ErrorCode = errorCode.String
	work.ErrorMessage = errorMessage.String
	work.LockedAt = parseNullTime(lockedAt)
	work.StartedAt = parseNullTime(startedAt)
	work.FinishedAt = parseNullTime(finishedAt)

	return &work, nil
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
