package ir

// Build run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// BuildRun summarizes one model build for the journal.
type BuildRun struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	ConventionSet string `json:"convention_set"`
	SpecHash      string `json:"spec_hash"`
	ModelHash     string `json:"model_hash,omitempty"` // Empty when the build failed
	TraceHash     string `json:"trace_hash"`
	ErrorCode     string `json:"error_code,omitempty"`
	Error         string `json:"error,omitempty"`
	Events        int    `json:"events"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}
