// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mdhender/peg"
	"github.com/mdhender/peg/model"
	"github.com/spf13/afero"
)

// IngestService registers grammars and input files for the pipeline.
type IngestService struct {
	store   IngestStore
	dataDir string
	fs      afero.Fs
}

// IngestStore defines the store operations needed by IngestService.
type IngestStore interface {
	GetGrammarFileBySHA256(ctx context.Context, sha256 string) (*model.GrammarFile, error)
	InsertGrammarFile(ctx context.Context, gf *model.GrammarFile) (int64, error)
	GetInputFile(ctx context.Context, grammarID int64, sha256, start string) (*model.InputFile, error)
	InsertInputFile(ctx context.Context, in *model.InputFile) (int64, error)
	InsertWork(ctx context.Context, work *model.Work) (int64, error)
}

// NewIngestService creates a new IngestService.
func NewIngestService(store IngestStore, dataDir string) *IngestService {
	return &IngestService{
		store:   store,
		dataDir: dataDir,
		fs:      afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (s *IngestService) SetFS(fs afero.Fs) {
	s.fs = fs
}

// GrammarResult contains the result of registering a grammar.
type GrammarResult struct {
	GrammarFileID int64
	Duplicate     bool // true if the grammar was already registered (idempotent no-op)
}

// RegisterGrammar stores a grammar description, deduped on the hash of its
// source and whitespace pattern. The description is compiled here so a
// malformed grammar is rejected at ingest instead of failing every job.
func (s *IngestService) RegisterGrammar(ctx context.Context, name, source, whitespace string) (*GrammarResult, error) {
	if whitespace == "" {
		whitespace = peg.DefaultWhitespace
	}
	if _, err := peg.Compile(source, whitespace); err != nil {
		return nil, err
	}

	hash := sha256.Sum256([]byte(source + "\x00" + whitespace))
	hashStr := hex.EncodeToString(hash[:])

	existing, err := s.store.GetGrammarFileBySHA256(ctx, hashStr)
	if err != nil {
		return nil, &ErrDatabase{Op: "get grammar by hash", Err: err}
	}
	if existing != nil {
		return &GrammarResult{GrammarFileID: existing.ID, Duplicate: true}, nil
	}

	id, err := s.store.InsertGrammarFile(ctx, &model.GrammarFile{
		Name:       name,
		SHA256:     hashStr,
		Whitespace: whitespace,
		Source:     source,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, &ErrDatabase{Op: "insert grammar", Err: err}
	}

	return &GrammarResult{GrammarFileID: id}, nil
}

// IngestRequest contains the parameters for ingesting an input file.
type IngestRequest struct {
	GrammarFileID int64
	Start         string // start symbol to parse from
	Filename      string // original filename
	Data          []byte // file content
}

// IngestResult contains the result of an ingest operation.
type IngestResult struct {
	InputFileID int64
	WorkID      int64
	Duplicate   bool // true if the input was already ingested (idempotent no-op)
}

// IngestInput ingests a single input file and queues a parse job for it.
// Returns IngestResult with Duplicate=true if the same content was already
// ingested for this grammar and start symbol.
func (s *IngestService) IngestInput(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	hash := sha256.Sum256(req.Data)
	hashStr := hex.EncodeToString(hash[:])

	existing, err := s.store.GetInputFile(ctx, req.GrammarFileID, hashStr, req.Start)
	if err != nil {
		return nil, &ErrDatabase{Op: "get input by hash", Err: err}
	}
	if existing != nil {
		return &IngestResult{InputFileID: existing.ID, Duplicate: true}, nil
	}

	fsPath := filepath.Join("inputs", fmt.Sprintf("%d-%s-%s", req.GrammarFileID, hashStr[:12], req.Filename))
	fullPath := filepath.Join(s.dataDir, fsPath)
	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, &ErrReadFile{Op: "mkdir", Path: filepath.Dir(fullPath), Err: err}
	}
	if err := afero.WriteFile(s.fs, fullPath, req.Data, 0644); err != nil {
		return nil, &ErrReadFile{Op: "write", Path: fullPath, Err: err}
	}

	inputID, err := s.store.InsertInputFile(ctx, &model.InputFile{
		GrammarID: req.GrammarFileID,
		Start:     req.Start,
		Name:      req.Filename,
		SHA256:    hashStr,
		FsPath:    fsPath,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, &ErrDatabase{Op: "insert input", Err: err}
	}

	workID, err := s.store.InsertWork(ctx, &model.Work{
		InputFileID: inputID,
		Stage:       model.WorkStageParse,
		Status:      model.WorkStatusQueued,
		Attempt:     0,
		AvailableAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, &ErrDatabase{Op: "insert parse work", Err: err}
	}

	return &IngestResult{InputFileID: inputID, WorkID: workID}, nil
}
