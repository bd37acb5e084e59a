package operation

import (
	"context"
	"io"

	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
)

// WorkerOptions configures a smoke-run worker invocation.
type WorkerOptions struct {
	OperationID string
	Env         string
	Store       Store
	Runner      *pipeline.Runner
}

// Run executes the smoke pipeline for one operation and transitions it
// through running → complete | failed.
//
// Run is intended to be called in a separate goroutine; it owns the full
// lifecycle of the operation from the moment it is called.
func Run(ctx context.Context, opts WorkerOptions) {
	if err := opts.Store.MarkRunning(opts.OperationID); err != nil {
		// If we cannot even mark it running the store is broken; nothing to do.
		return
	}

	sc := &pipeline.Context{Env: opts.Env}

	result, err := opts.Runner.Run(ctx, sc)
	if err != nil {
		_ = opts.Store.MarkFailed(opts.OperationID, result.Results, err)
		return
	}

	_ = opts.Store.MarkComplete(opts.OperationID, result.Passed, result.Results, sc.GCSObjectPath)
}

// NewWorkerRunner builds the standard smoke pipeline runner for background
// workers, with progress output discarded.
func NewWorkerRunner(stages ...pipeline.Stage) *pipeline.Runner {
	return pipeline.NewRunner(io.Discard, stages...)
}
