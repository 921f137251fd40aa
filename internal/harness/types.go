package harness

import "github.com/roach88/conventions/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// RunID identifies the build run.
	RunID string `json:"run_id"`

	// Trace contains every dispatch observation of the build, in order.
	Trace []ir.TraceEvent `json:"trace"`

	// Snapshot is the finished model. Nil when the build failed.
	Snapshot *ir.ModelSnapshot `json:"snapshot,omitempty"`

	// ModelHash and TraceHash identify the build outcome.
	ModelHash string `json:"model_hash,omitempty"`
	TraceHash string `json:"trace_hash"`

	// ErrorCode and BuildError describe a failed build.
	ErrorCode  string `json:"error_code,omitempty"`
	BuildError string `json:"build_error,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
