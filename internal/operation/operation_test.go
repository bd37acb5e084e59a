package operation

import (
	"context"
	"errors"
	"testing"

	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
)

type scriptedStage struct {
	name   string
	result pipeline.StageResult
	err    error
}

func (s *scriptedStage) Name() string { return s.name }

func (s *scriptedStage) Run(_ context.Context, sc *pipeline.Context) (pipeline.StageResult, error) {
	if s.err == nil && s.result.Passed {
		sc.GCSObjectPath = "gs://b/landing/invoice.tiff"
	}
	return s.result, s.err
}

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()

	op, err := store.Create("staging")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if op.Status != StatusPending || op.Env != "staging" {
		t.Fatalf("unexpected operation: %+v", op)
	}

	if err := store.MarkRunning(op.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}

	stages := []pipeline.StageResult{{StageName: "upload", Passed: true}}
	if err := store.MarkComplete(op.ID, true, stages, "gs://b/landing/invoice.tiff"); err != nil {
		t.Fatalf("mark complete: %v", err)
	}

	got, err := store.Get(op.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusComplete || !got.Passed {
		t.Fatalf("unexpected terminal state: %+v", got)
	}
	if got.GCSObjectPath != "gs://b/landing/invoice.tiff" {
		t.Fatalf("unexpected object path: %q", got.GCSObjectPath)
	}

	// Mutating the returned copy must not touch the stored operation.
	got.Status = StatusFailed
	again, _ := store.Get(op.ID)
	if again.Status != StatusComplete {
		t.Fatal("store returned a shared pointer")
	}
}

func TestMemoryStoreUnknownID(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get("nope"); err == nil {
		t.Fatal("expected error for unknown id")
	}
	if err := store.MarkRunning("nope"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestWorkerMarksComplete(t *testing.T) {
	store := NewMemoryStore()
	op, _ := store.Create("staging")

	runner := NewWorkerRunner(&scriptedStage{
		name:   "upload",
		result: pipeline.StageResult{StageName: "upload", Passed: true},
	})

	Run(context.Background(), WorkerOptions{
		OperationID: op.ID,
		Env:         "staging",
		Store:       store,
		Runner:      runner,
	})

	got, err := store.Get(op.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusComplete || !got.Passed {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.GCSObjectPath == "" {
		t.Fatal("object path not captured from pipeline context")
	}
}

func TestWorkerMarksCompleteForCleanFailure(t *testing.T) {
	store := NewMemoryStore()
	op, _ := store.Create("staging")

	runner := NewWorkerRunner(&scriptedStage{
		name:   "upload",
		result: pipeline.Fail("upload", "unknown environment: staging"),
	})

	Run(context.Background(), WorkerOptions{
		OperationID: op.ID,
		Env:         "staging",
		Store:       store,
		Runner:      runner,
	})

	got, _ := store.Get(op.ID)
	if got.Status != StatusComplete {
		t.Fatalf("clean stage failure should complete, got %q", got.Status)
	}
	if got.Passed {
		t.Fatal("run with a failed stage marked as passed")
	}
	if len(got.Stages) != 1 || got.Stages[0].Error == "" {
		t.Fatalf("stage results not recorded: %+v", got.Stages)
	}
}

func TestWorkerMarksFailedOnStageError(t *testing.T) {
	store := NewMemoryStore()
	op, _ := store.Create("staging")

	runner := NewWorkerRunner(&scriptedStage{
		name: "upload",
		err:  errors.New("bucket unreachable"),
	})

	Run(context.Background(), WorkerOptions{
		OperationID: op.ID,
		Env:         "staging",
		Store:       store,
		Runner:      runner,
	})

	got, _ := store.Get(op.ID)
	if got.Status != StatusFailed {
		t.Fatalf("expected failed status, got %q", got.Status)
	}
	if got.Error == "" {
		t.Fatal("error not recorded")
	}
}
