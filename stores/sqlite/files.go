// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdhender/peg/model"
)

// InsertGrammarFile inserts a GrammarFile and returns its assigned ID.
func (s *SQLiteStore) InsertGrammarFile(ctx context.Context, gf *model.GrammarFile) (int64, error) {
	const query = `
		INSERT INTO grammar_files (name, sha256, whitespace, source, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		gf.Name,
		gf.SHA256,
		gf.Whitespace,
		gf.Source,
		gf.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert grammar_file: %w", err)
	}
	return result.LastInsertId()
}

// GetGrammarFileByID retrieves a GrammarFile by ID.
// Returns nil (and no error) when it does not exist.
func (s *SQLiteStore) GetGrammarFileByID(ctx context.Context, id int64) (*model.GrammarFile, error) {
	const query = `
		SELECT id, name, sha256, whitespace, source, created_at
		FROM grammar_files
		WHERE id = ?
	`
	return scanGrammarFile(s.db.QueryRowContext(ctx, query, id))
}

// GetGrammarFileBySHA256 retrieves a GrammarFile by its content hash.
// Returns nil (and no error) when it does not exist.
func (s *SQLiteStore) GetGrammarFileBySHA256(ctx context.Context, sha256 string) (*model.GrammarFile, error) {
	const query = `
		SELECT id, name, sha256, whitespace, source, created_at
		FROM grammar_files
		WHERE sha256 = ?
	`
	return scanGrammarFile(s.db.QueryRowContext(ctx, query, sha256))
}

func scanGrammarFile(row *sql.Row) (*model.GrammarFile, error) {
	var gf model.GrammarFile
	var createdAt string
	err := row.Scan(&gf.ID, &gf.Name, &gf.SHA256, &gf.Whitespace, &gf.Source, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grammar_file: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		gf.CreatedAt = t
	}
	return &gf, nil
}

// InsertInputFile inserts an InputFile and returns its assigned ID.
func (s *SQLiteStore) InsertInputFile(ctx context.Context, in *model.InputFile) (int64, error) {
	const query = `
		INSERT INTO input_files (grammar_id, start_symbol, name, sha256, fs_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		in.GrammarID,
		in.Start,
		in.Name,
		in.SHA256,
		in.FsPath,
		in.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert input_file: %w", err)
	}
	return result.LastInsertId()
}

// GetInputFileByID retrieves an InputFile by ID.
// Returns nil (and no error) when it does not exist.
func (s *SQLiteStore) GetInputFileByID(ctx context.Context, id int64) (*model.InputFile, error) {
	const query = `
		SELECT id, grammar_id, start_symbol, name, sha256, fs_path, created_at
		FROM input_files
		WHERE id = ?
	`
	return scanInputFile(s.db.QueryRowContext(ctx, query, id))
}

// GetInputFile retrieves an InputFile by its natural key: one input is
// identified by the grammar it targets, its content hash, and the start
// symbol it parses from. Returns nil (and no error) when it does not exist.
func (s *SQLiteStore) GetInputFile(ctx context.Context, grammarID int64, sha256, start string) (*model.InputFile, error) {
	const query = `
		SELECT id, grammar_id, start_symbol, name, sha256, fs_path, created_at
		FROM input_files
		WHERE grammar_id = ? AND sha256 = ? AND start_symbol = ?
	`
	return scanInputFile(s.db.QueryRowContext(ctx, query, grammarID, sha256, start))
}

func scanInputFile(row *sql.Row) (*model.InputFile, error) {
	var in model.InputFile
	var createdAt string
	err := row.Scan(&in.ID, &in.GrammarID, &in.Start, &in.Name, &in.SHA256, &in.FsPath, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get input_file: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		in.CreatedAt = t
	}
	return &in, nil
}
