package engine

import (
	"slices"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/ir"
)

// Recorder is a convention.Observer that turns dispatch observations into
// trace events numbered by its clock.
//
// The dispatcher calls observers synchronously from the goroutine building
// the model, so a Recorder is not safe for concurrent use.
type Recorder struct {
	clock  *Clock
	phases map[convention.Phase]bool
	events []ir.TraceEvent
}

// NewRecorder creates a recorder. With no phases every observation is kept;
// otherwise only the listed phases are.
func NewRecorder(clock *Clock, phases ...convention.Phase) *Recorder {
	r := &Recorder{clock: clock}
	if len(phases) > 0 {
		r.phases = make(map[convention.Phase]bool, len(phases))
		for _, p := range phases {
			r.phases[p] = true
		}
	}
	return r
}

// Observe implements convention.Observer.
func (r *Recorder) Observe(o convention.Observation) {
	if r.phases != nil && !r.phases[o.Phase] {
		return
	}
	r.events = append(r.events, ir.TraceEvent{
		Seq:     r.clock.Next(),
		Phase:   o.Phase.String(),
		Kind:    o.Kind.String(),
		Plugin:  o.Plugin,
		Subject: convention.Label(o.Event),
		Depth:   o.Depth,
	})
}

// Events returns a copy of the recorded trace.
func (r *Recorder) Events() []ir.TraceEvent {
	if len(r.events) == 0 {
		return []ir.TraceEvent{}
	}
	return slices.Clone(r.events)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int { return len(r.events) }

// ParsePhase maps a trace phase name back to the dispatcher phase.
func ParsePhase(name string) (convention.Phase, bool) {
	for p := convention.PhaseRecorded; p <= convention.PhaseBypassed; p++ {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}
