// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import "time"

// GrammarFile is a registered grammar description. SHA256 hashes the
// description text together with the whitespace pattern and dedupes repeat
// registrations.
type GrammarFile struct {
	ID         int64     `json:"id"         db:"id"`
	Name       string    `json:"name"       db:"name"`
	SHA256     string    `json:"sha256"     db:"sha256"`
	Whitespace string    `json:"whitespace" db:"whitespace"`
	Source     string    `json:"source"     db:"source"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}

// InputFile is one text input queued for parsing against a grammar. Start
// is the start symbol the parse begins from.
type InputFile struct {
	ID        int64     `json:"id"        db:"id"`
	GrammarID int64     `json:"grammarId" db:"grammar_id"`
	Start     string    `json:"start"     db:"start_symbol"`
	Name      string    `json:"name"      db:"name"`
	SHA256    string    `json:"sha256"    db:"sha256"`
	FsPath    string    `json:"fsPath"    db:"fs_path"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Work stage and status values.
const (
	WorkStageParse = "parse"

	WorkStatusQueued  = "queued"
	WorkStatusRunning = "running"
	WorkStatusOk      = "ok"
	WorkStatusFailed  = "failed"
)

// Work is one queued pipeline job.
type Work struct {
	ID           int64      `json:"id"           db:"id"`
	InputFileID  int64      `json:"inputFileId"  db:"input_file_id"`
	Stage        string     `json:"stage"        db:"stage"`
	Status       string     `json:"status"       db:"status"`
	Attempt      int        `json:"attempt"      db:"attempt"`
	AvailableAt  time.Time  `json:"availableAt"  db:"available_at"`
	LockedBy     string     `json:"lockedBy"     db:"locked_by"`
	LockedAt     *time.Time `json:"lockedAt"     db:"locked_at"`
	StartedAt    *time.Time `json:"startedAt"    db:"started_at"`
	FinishedAt   *time.Time `json:"finishedAt"   db:"finished_at"`
	ErrorCode    string     `json:"errorCode"    db:"error_code"`
	ErrorMessage string     `json:"errorMessage" db:"error_message"`
}

// Run is the stored outcome of parsing one input against one grammar.
// Tree holds the parse tree in its JSON array form and is empty when the
// parse did not match.
type Run struct {
	ID          int64     `json:"id"          db:"id"`
	InputFileID int64     `json:"inputFileId" db:"input_file_id"`
	GrammarID   int64     `json:"grammarId"   db:"grammar_id"`
	Start       string    `json:"start"       db:"start_symbol"`
	Matched     bool      `json:"matched"     db:"matched"`
	Tree        string    `json:"tree"        db:"tree"`
	Remainder   string    `json:"remainder"   db:"remainder"`
	DurationMS  int64     `json:"durationMs"  db:"duration_ms"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
