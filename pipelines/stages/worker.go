// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mdhender/peg"
	"github.com/mdhender/peg/model"
	"github.com/spf13/afero"
)

// WorkerService claims and executes pipeline jobs.
type WorkerService struct {
	store    WorkerStore
	dataDir  string
	workerID string
	fs       afero.Fs
	logger   *slog.Logger
}

// WorkerStore defines the store operations needed by WorkerService.
type WorkerStore interface {
	ClaimWork(ctx context.Context, stage, workerID string) (*model.Work, error)
	FinishWork(ctx context.Context, id int64, status, errorCode, errorMsg string) error
	GetInputFileByID(ctx context.Context, id int64) (*model.InputFile, error)
	GetGrammarFileByID(ctx context.Context, id int64) (*model.GrammarFile, error)
	InsertRun(ctx context.Context, run *model.Run) (int64, error)
}

// NewWorkerService creates a new WorkerService.
func NewWorkerService(store WorkerStore, dataDir, workerID string) *WorkerService {
	if workerID == "" {
		hostname, _ := os.Hostname()
		workerID = fmt.Sprintf("%s:%d", hostname, os.Getpid())
	}
	return &WorkerService{
		store:    store,
		dataDir:  dataDir,
		workerID: workerID,
		fs:       afero.NewOsFs(),
		logger:   slog.Default(),
	}
}

// SetFS sets the filesystem for testing.
func (w *WorkerService) SetFS(fs afero.Fs) {
	w.fs = fs
}

// WorkResult represents the outcome of executing a job.
type WorkResult struct {
	Success      bool
	ErrorCode    string
	ErrorMessage string
}

// ClaimJob atomically claims a queued job for the given stage.
// Returns nil if no work is available.
func (w *WorkerService) ClaimJob(ctx context.Context, stage string) (*model.Work, error) {
	return w.store.ClaimWork(ctx, stage, w.workerID)
}

// ExecuteParse compiles the input's grammar, parses the input text, and
// persists a Run row. A parse that does not match is still a completed job:
// the run records Matched=false. Only infrastructure problems (missing
// file, bad grammar, database) fail the job.
func (w *WorkerService) ExecuteParse(ctx context.Context, job *model.Work, in *model.InputFile) error {
	gf, err := w.store.GetGrammarFileByID(ctx, in.GrammarID)
	if err != nil {
		return &ErrDatabase{Op: "get grammar", Err: err}
	}
	if gf == nil {
		return &ErrDatabase{Op: "get grammar", Err: fmt.Errorf("grammar %d not found", in.GrammarID)}
	}

	fullPath := filepath.Join(w.dataDir, in.FsPath)
	data, err := afero.ReadFile(w.fs, fullPath)
	if err != nil {
		return &ErrReadFile{Op: "read", Path: fullPath, Err: err}
	}

	g, err := peg.Compile(gf.Source, gf.Whitespace)
	if err != nil {
		return &ErrGrammarCompile{GrammarID: gf.ID, Err: err}
	}

	started := time.Now()
	tree, remainder, matched := peg.Parse(in.Start, string(data), g)
	elapsed := time.Since(started)

	run := &model.Run{
		InputFileID: in.ID,
		GrammarID:   gf.ID,
		Start:       in.Start,
		Matched:     matched,
		Remainder:   remainder,
		DurationMS:  elapsed.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if matched {
		encoded, err := json.Marshal(tree)
		if err != nil {
			return &ErrDatabase{Op: "encode tree", Err: err}
		}
		run.Tree = string(encoded)
	}

	if _, err := w.store.InsertRun(ctx, run); err != nil {
		return &ErrDatabase{Op: "persist run", Err: err}
	}

	w.logger.Info("parse run",
		"work_id", job.ID,
		"input_id", in.ID,
		"start", in.Start,
		"matched", matched,
		"remainder_len", len(remainder),
		"elapsed", elapsed)

	return nil
}

// FinishJob marks a job as completed (ok or failed) based on the result.
func (w *WorkerService) FinishJob(ctx context.Context, job *model.Work, result WorkResult) error {
	status := model.WorkStatusOk
	errorCode := ""
	errorMsg := ""

	if !result.Success {
		status = model.WorkStatusFailed
		errorCode = result.ErrorCode
		errorMsg = result.ErrorMessage
	}

	return w.store.FinishWork(ctx, job.ID, status, errorCode, errorMsg)
}

// GetInputFile retrieves the input file associated with a job.
func (w *WorkerService) GetInputFile(ctx context.Context, job *model.Work) (*model.InputFile, error) {
	return w.store.GetInputFileByID(ctx, job.InputFileID)
}

// ProcessJob claims, executes, and finishes a single job for the given stage.
// Returns (jobProcessed, error). jobProcessed is true if a job was claimed.
func (w *WorkerService) ProcessJob(ctx context.Context, stage string) (bool, error) {
	job, err := w.ClaimJob(ctx, stage)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	in, err := w.GetInputFile(ctx, job)
	if err != nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: fmt.Sprintf("get input file: %v", err),
		})
		return true, fmt.Errorf("get input file: %w", err)
	}
	if in == nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrCodeDatabase,
			ErrorMessage: "input file not found",
		})
		return true, fmt.Errorf("input file %d not found", job.InputFileID)
	}

	var execErr error
	switch stage {
	case model.WorkStageParse:
		execErr = w.ExecuteParse(ctx, job, in)
	default:
		execErr = fmt.Errorf("unknown stage: %s", stage)
	}

	if execErr != nil {
		w.FinishJob(ctx, job, WorkResult{
			Success:      false,
			ErrorCode:    ErrorCode(execErr),
			ErrorMessage: execErr.Error(),
		})
		return true, execErr
	}

	if err := w.FinishJob(ctx, job, WorkResult{Success: true}); err != nil {
		return true, fmt.Errorf("finish job: %w", err)
	}

	return true, nil
}
