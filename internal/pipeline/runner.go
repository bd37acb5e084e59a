package pipeline

import (
	"context"
	"fmt"
	"io"
)

// Runner executes stages sequentially against a shared context.
type Runner struct {
	stages []Stage
	out    io.Writer
}

// NewRunner creates a Runner for the given stages. Progress is written to
// out; pass io.Discard to silence it.
func NewRunner(out io.Writer, stages ...Stage) *Runner {
	return &Runner{stages: stages, out: out}
}

// RunResult collects the per-stage results of one pipeline run.
type RunResult struct {
	// Results holds one entry per executed stage, in execution order. A run
	// that stops early holds fewer entries than the runner has stages.
	Results []StageResult

	// Passed is true if every stage executed and passed.
	Passed bool
}

// Run executes the stages in order. The first failed result stops the run:
// later stages depend on the outputs of earlier ones, so there is nothing
// useful left to do. A stage error aborts the run entirely; the results
// gathered so far are returned alongside the error.
func (r *Runner) Run(ctx context.Context, sc *Context) (*RunResult, error) {
	run := &RunResult{}

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		fmt.Fprintf(r.out, "--- %s\n", stage.Name())
		result, err := stage.Run(ctx, sc)
		if err != nil {
			return run, fmt.Errorf("pipeline: stage %q: %w", stage.Name(), err)
		}

		run.Results = append(run.Results, result)
		if !result.Passed {
			fmt.Fprintf(r.out, "    FAIL: %s\n", result.Error)
			return run, nil
		}
		fmt.Fprintf(r.out, "    ok\n")
	}

	run.Passed = true
	return run, nil
}
