// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mdhender/peg/jsong"
	"github.com/mdhender/peg/model"
	"github.com/mdhender/peg/pipelines/stages"
	store "github.com/mdhender/peg/stores/sqlite"
)

func TestClaimWork_AtomicLocking(t *testing.T) {
	ctx := context.Background()
	sqlStore, svc, _ := newIngest(t)

	gr, err := svc.RegisterGrammar(ctx, "json", jsong.Description, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.IngestInput(ctx, stages.IngestRequest{
		GrammarFileID: gr.GrammarFileID,
		Start:         "value",
		Filename:      "one.json",
		Data:          []byte("[1]"),
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	const numWorkers = 10
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	claimedCount := 0
	var mu sync.Mutex

	for i := 0; i < numWorkers; i++ {
		workerID := i
		go func() {
			defer wg.Done()
			work, err := sqlStore.ClaimWork(ctx, model.WorkStageParse, fmt.Sprintf("worker-%d", workerID))
			if err != nil {
				t.Errorf("worker %d: claim error: %v", workerID, err)
				return
			}
			if work != nil {
				mu.Lock()
				claimedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if claimedCount != 1 {
		t.Errorf("expected exactly 1 worker to claim the job, got %d", claimedCount)
	}
}

func TestClaimWork_ReturnsNilWhenNoWork(t *testing.T) {
	ctx := context.Background()
	sqlStore, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer sqlStore.Close()

	work, err := sqlStore.ClaimWork(ctx, model.WorkStageParse, "test-worker")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if work != nil {
		t.Fatalf("claimed work %d, want nil", work.ID)
	}
}

func TestProcessJob_ParseSuccess(t *testing.T) {
	ctx := context.Background()
	sqlStore, svc, fs := newIngest(t)

	gr, err := svc.RegisterGrammar(ctx, "json", jsong.Description, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := svc.IngestInput(ctx, stages.IngestRequest{
		GrammarFileID: gr.GrammarFileID,
		Start:         "value",
		Filename:      "number.json",
		Data:          []byte("-123.456e+789"),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	worker := stages.NewWorkerService(sqlStore, "/data", "test-worker")
	worker.SetFS(fs)

	processed, err := worker.ProcessJob(ctx, model.WorkStageParse)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !processed {
		t.Fatal("no job processed")
	}

	run, err := sqlStore.GetRunByInput(ctx, res.InputFileID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run == nil {
		t.Fatal("no run persisted")
	}
	if !run.Matched {
		t.Fatal("run.Matched = false, want true")
	}
	if run.Remainder != "" {
		t.Fatalf("run.Remainder = %q, want \"\"", run.Remainder)
	}
	want := `["value",["number",["int","-123"],["frac",".456"],["exp","e+789"]]]`
	if run.Tree != want {
		t.Fatalf("run.Tree = %s, want %s", run.Tree, want)
	}

	job, err := sqlStore.GetWorkByID(ctx, res.WorkID)
	if err != nil {
		t.Fatalf("get work: %v", err)
	}
	if got, want := job.Status, model.WorkStatusOk; got != want {
		t.Fatalf("work status = %q, want %q", got, want)
	}
}

func TestProcessJob_NonMatchIsStillOk(t *testing.T) {
	// a parse that does not match is a recorded outcome, not a job failure
	ctx := context.Background()
	sqlStore, svc, fs := newIngest(t)

	gr, err := svc.RegisterGrammar(ctx, "json", jsong.Description, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := svc.IngestInput(ctx, stages.IngestRequest{
		GrammarFileID: gr.GrammarFileID,
		Start:         "value",
		Filename:      "not-json.txt",
		Data:          []byte("definitely not json"),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	worker := stages.NewWorkerService(sqlStore, "/data", "test-worker")
	worker.SetFS(fs)

	if _, err := worker.ProcessJob(ctx, model.WorkStageParse); err != nil {
		t.Fatalf("process: %v", err)
	}

	run, err := sqlStore.GetRunByInput(ctx, res.InputFileID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run == nil {
		t.Fatal("no run persisted")
	}
	if run.Matched {
		t.Fatal("run.Matched = true, want false")
	}
	if run.Tree != "" {
		t.Fatalf("run.Tree = %s, want empty", run.Tree)
	}

	job, err := sqlStore.GetWorkByID(ctx, res.WorkID)
	if err != nil {
		t.Fatalf("get work: %v", err)
	}
	if got, want := job.Status, model.WorkStatusOk; got != want {
		t.Fatalf("work status = %q, want %q", got, want)
	}
}

func TestProcessJob_MissingInputFileFails(t *testing.T) {
	ctx := context.Background()
	sqlStore, svc, fs := newIngest(t)

	gr, err := svc.RegisterGrammar(ctx, "json", jsong.Description, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	inputID, err := sqlStore.InsertInputFile(ctx, &model.InputFile{
		GrammarID: gr.GrammarFileID,
		Start:     "value",
		Name:      "ghost.json",
		SHA256:    "nope",
		FsPath:    "inputs/ghost.json",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert input: %v", err)
	}
	workID, err := sqlStore.InsertWork(ctx, &model.Work{
		InputFileID: inputID,
		Stage:       model.WorkStageParse,
		Status:      model.WorkStatusQueued,
		AvailableAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert work: %v", err)
	}

	worker := stages.NewWorkerService(sqlStore, "/data", "test-worker")
	worker.SetFS(fs)

	processed, err := worker.ProcessJob(ctx, model.WorkStageParse)
	if !processed {
		t.Fatal("no job processed")
	}
	if err == nil {
		t.Fatal("process: expected error, got nil")
	}

	job, err := sqlStore.GetWorkByID(ctx, workID)
	if err != nil {
		t.Fatalf("get work: %v", err)
	}
	if got, want := job.Status, model.WorkStatusFailed; got != want {
		t.Fatalf("work status = %q, want %q", got, want)
	}
	if got, want := job.ErrorCode, stages.ErrCodeReadFile; got != want {
		t.Fatalf("error code = %q, want %q", got, want)
	}
}
