// Package pipeline provides the stage abstraction for the smoke-test
// harness. A smoke run threads a mutable Context through an ordered list of
// stages; each stage reads the fields it needs, performs its work, and
// records its outputs back on the context for downstream stages.
package pipeline

import "context"

// Context is the mutable state shared by the stages of a single smoke run.
// Each run owns its own Context; stages never share one across runs.
type Context struct {
	// Env names the target environment, e.g. "staging".
	Env string

	// WorkDir is the scratch directory for generated artefacts.
	WorkDir string

	// TIFFPath is the local path of the generated invoice. Set by the
	// generate stage, read by the upload stage.
	TIFFPath string

	// GCSObjectPath is the gs:// URI of the uploaded invoice. Set by the
	// upload stage on success, and only on success.
	GCSObjectPath string
}

// StageResult is the terminal outcome of a single stage. It is immutable
// once constructed.
type StageResult struct {
	StageName string            `json:"stage_name"`
	Passed    bool              `json:"passed"`
	Error     string            `json:"error,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Fail constructs a failed result for the named stage. Failed results carry
// no data.
func Fail(stage, message string) StageResult {
	return StageResult{StageName: stage, Passed: false, Error: message}
}

// Stage is one step of the smoke pipeline.
//
// A (StageResult, nil) return is the normal case, whether the stage passed
// or cleanly failed a precondition. A non-nil error means the stage hit an
// environment problem it could not classify (network, auth, permissions);
// the runner aborts the whole run and surfaces the error rather than folding
// it into a result.
type Stage interface {
	Name() string
	Run(ctx context.Context, sc *Context) (StageResult, error)
}
