// Package server provides the HTTP API for async smoke runs, so CI jobs can
// trigger a run and poll for the outcome.
//
// Endpoints:
//
//	POST /runs        — enqueue a new smoke run; returns operation ID immediately
//	GET  /runs/{id}   — poll operation status and retrieve per-stage results
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tomasbasham/invoice-smoke/internal/operation"
	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
)

// Server holds the dependencies shared across HTTP handlers.
type Server struct {
	store  operation.Store
	runner *pipeline.Runner
	mux    *http.ServeMux

	// defaultEnv is used when a request does not name an environment.
	defaultEnv string
}

// New creates a Server wired to the given store and pipeline runner.
func New(store operation.Store, runner *pipeline.Runner, defaultEnv string) *Server {
	s := &Server{
		store:      store,
		runner:     runner,
		defaultEnv: defaultEnv,
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("POST /runs", s.handleCreateRun)
	s.mux.HandleFunc("GET /runs/{id}", s.handleGetRun)

	return s
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

// createRunRequest is the JSON body for POST /runs.
type createRunRequest struct {
	Env string `json:"env,omitempty"`
}

// createRunResponse is returned immediately from POST /runs.
type createRunResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
	Env         string `json:"env"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	env := req.Env
	if env == "" {
		env = s.defaultEnv
	}
	if env == "" {
		writeError(w, http.StatusBadRequest, "env is required")
		return
	}

	op, err := s.store.Create(env)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create operation: "+err.Error())
		return
	}

	// Run the pipeline in the background. The request context is
	// intentionally not used here — we do not want the run to be cancelled
	// when the HTTP connection closes.
	go operation.Run(context.Background(), operation.WorkerOptions{
		OperationID: op.ID,
		Env:         env,
		Store:       s.store,
		Runner:      s.runner,
	})

	writeJSON(w, http.StatusAccepted, createRunResponse{
		OperationID: op.ID,
		Status:      string(operation.StatusPending),
		Env:         env,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "operation id is required")
		return
	}

	op, err := s.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("operation %q not found", id))
		return
	}

	writeJSON(w, http.StatusOK, op)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
