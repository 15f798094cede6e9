// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import "fmt"

// ErrReadFile is returned when file I/O operations fail.
type ErrReadFile struct {
	Op   string // mkdir, write, read
	Path string
	Err  error
}

func (e *ErrReadFile) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ErrReadFile) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when database operations fail.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// ErrGrammarCompile is returned when a stored grammar description no longer
// compiles.
type ErrGrammarCompile struct {
	GrammarID int64
	Err       error
}

func (e *ErrGrammarCompile) Error() string {
	return fmt.Sprintf("compile grammar %d: %v", e.GrammarID, e.Err)
}

func (e *ErrGrammarCompile) Unwrap() error {
	return e.Err
}

// Error code constants for database storage.
const (
	ErrCodeReadFile       = "READ_FILE"
	ErrCodeDatabase       = "DATABASE"
	ErrCodeGrammarCompile = "GRAMMAR_COMPILE"
	ErrCodeUnknown        = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	switch err.(type) {
	case *ErrReadFile:
		return ErrCodeReadFile
	case *ErrDatabase:
		return ErrCodeDatabase
	case *ErrGrammarCompile:
		return ErrCodeGrammarCompile
	default:
		return ErrCodeUnknown
	}
}
