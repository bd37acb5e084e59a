package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomasbasham/invoice-smoke/internal/operation"
	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
)

type passingStage struct{}

func (passingStage) Name() string { return "upload" }

func (passingStage) Run(_ context.Context, sc *pipeline.Context) (pipeline.StageResult, error) {
	sc.GCSObjectPath = "gs://b/landing/invoice.tiff"
	return pipeline.StageResult{StageName: "upload", Passed: true}, nil
}

func newTestServer(t *testing.T) (*Server, operation.Store) {
	t.Helper()
	store := operation.NewMemoryStore()
	runner := operation.NewWorkerRunner(passingStage{})
	return New(store, runner, "staging"), store
}

func TestCreateRunReturnsOperationID(t *testing.T) {
	srv, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{"env":"production"}`))
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body)
	}

	var resp createRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.OperationID == "" {
		t.Fatal("missing operation id")
	}
	if resp.Env != "production" {
		t.Fatalf("unexpected env: %q", resp.Env)
	}

	waitForStatus(t, store, resp.OperationID, operation.StatusComplete)
}

func TestCreateRunFallsBackToDefaultEnv(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body)
	}

	var resp createRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Env != "staging" {
		t.Fatalf("expected default env, got %q", resp.Env)
	}
}

func TestCreateRunRejectsMissingEnv(t *testing.T) {
	store := operation.NewMemoryStore()
	srv := New(store, operation.NewWorkerRunner(passingStage{}), "")

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestGetRun(t *testing.T) {
	srv, store := newTestServer(t)

	op, _ := store.Create("staging")

	req := httptest.NewRequest(http.MethodGet, "/runs/"+op.ID, nil)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body)
	}

	var got operation.Operation
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.ID != op.ID {
		t.Fatalf("unexpected operation: %+v", got)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/runs/unknown", nil)
	rec := httptest.NewRecorder()
	srv.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

// waitForStatus polls the store until the operation reaches the expected
// terminal status. The worker runs in its own goroutine, so creation only
// guarantees the operation exists, not that it has finished.
func waitForStatus(t *testing.T, store operation.Store, id string, want operation.Status) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		op, err := store.Get(id)
		if err != nil {
			t.Fatalf("get operation: %v", err)
		}
		if op.Status == want {
			if op.GCSObjectPath == "" {
				t.Fatal("completed run has no object path")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("operation %q never reached %q", id, want)
}
