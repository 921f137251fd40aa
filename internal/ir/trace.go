package ir

// TraceEvent is one dispatch observation: a plugin invoked, an event
// recorded into a batch, a chain stopped or invalidated.
//
// Seq is a logical clock starting at 1 per build. There is no timestamp, so
// a trace of the same build is byte-identical across runs.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Phase   string `json:"phase"`            // recorded, fired, invoked, stopped, invalidated, bypassed
	Kind    string `json:"kind"`             // Event kind name, e.g. "EntityTypeAdded"
	Plugin  string `json:"plugin,omitempty"` // Set for invoked and stopped
	Subject string `json:"subject"`          // Human-readable event description
	Depth   int    `json:"depth"`            // Open batch scopes when observed
}

// Trace phase names, mirroring the dispatcher's observation phases.
const (
	PhaseRecorded    = "recorded"
	PhaseFired       = "fired"
	PhaseInvoked     = "invoked"
	PhaseStopped     = "stopped"
	PhaseInvalidated = "invalidated"
	PhaseBypassed    = "bypassed"
)
