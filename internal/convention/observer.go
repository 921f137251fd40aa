package convention

// Phase names a step of dispatch visible to observers.
type Phase int

const (
	// PhaseRecorded: a delayed scope captured the event for later replay.
	PhaseRecorded Phase = iota + 1
	// PhaseFired: the immediate scope started the event's chain.
	PhaseFired
	// PhaseInvoked: a plugin of the chain is about to run.
	PhaseInvoked
	// PhaseStopped: the plugin stopped the chain.
	PhaseStopped
	// PhaseInvalidated: the chain was abandoned because its element left the model.
	PhaseInvalidated
	// PhaseBypassed: a reserved annotation skipped the pipeline.
	PhaseBypassed
)

func (p Phase) String() string {
	switch p {
	case PhaseRecorded:
		return "recorded"
	case PhaseFired:
		return "fired"
	case PhaseInvoked:
		return "invoked"
	case PhaseStopped:
		return "stopped"
	case PhaseInvalidated:
		return "invalidated"
	case PhaseBypassed:
		return "bypassed"
	default:
		return "unknown"
	}
}

// Observation describes one dispatch step.
type Observation struct {
	Phase  Phase
	Kind   Kind
	Plugin string
	Event  Event
	// Depth is the number of delayed scopes open at the time.
	Depth int
}

// Observer receives every dispatch step, synchronously, in order.
type Observer interface {
	Observe(o Observation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(o Observation)

// Observe implements Observer.
func (f ObserverFunc) Observe(o Observation) { f(o) }
