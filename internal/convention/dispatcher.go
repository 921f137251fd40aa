package convention

import (
	"fmt"
	"io"
	"log/slog"
)

// DefaultReservedAnnotations are core annotation names that never reach the
// pipeline: setting them echoes the annotation back unchanged.
var DefaultReservedAnnotations = []string{
	"ProductVersion",
	"MaxLength",
	"Unicode",
	"Precision",
	"Scale",
	"ValueGenerated",
	"ValueConverter",
	"ProviderClrType",
}

// Dispatcher routes schema notifications to the active scope.
//
// INVARIANTS:
//   - exactly one scope is active: the top of scopes, or the immediate scope
//     when scopes is empty
//   - scopes only grows and shrinks through Batch
//
// A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	immediate *immediateScope
	scopes    []*delayedScope
	tracker   *Tracker[Relationship]

	maxIterations int
	reserved      map[string]struct{}
	logger        *slog.Logger
	observer      Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxIterations sets the trampoline bound of an outermost batch.
// Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxIterations = n
		}
	}
}

// WithLogger sets the logger. Nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l == nil {
			l = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		d.logger = l
	}
}

// WithReservedAnnotations replaces the set of annotation names that bypass
// the pipeline.
func WithReservedAnnotations(names ...string) Option {
	return func(d *Dispatcher) {
		d.reserved = make(map[string]struct{}, len(names))
		for _, n := range names {
			d.reserved[n] = struct{}{}
		}
	}
}

// WithObserver registers an observer for every dispatch step.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// New creates a dispatcher over reg. A nil registry behaves as one with no
// plugins.
func New(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tracker:       NewTracker[Relationship](),
		maxIterations: DefaultMaxIterations,
		logger:        slog.Default(),
	}
	WithReservedAnnotations(DefaultReservedAnnotations...)(d)
	for _, opt := range opts {
		opt(d)
	}
	d.immediate = newImmediateScope(d, reg)
	return d
}

// Dispatch delivers ev to the active scope. A nil result means the subject
// is no longer in the model; otherwise it replaces the subject. While a batch
// is open the result is provisional: the event's input, recorded for replay.
//
// Errors returned by plugins are passed through unchanged.
func (d *Dispatcher) Dispatch(ev Event) (any, error) {
	if err := checkShape(ev); err != nil {
		return nil, err
	}
	if a, ok := ev.(AnnotationChanged); ok && d.isReserved(a.Name) {
		d.observe(PhaseBypassed, ev, "")
		return a.subject(), nil
	}
	if top := d.top(); top != nil {
		d.observe(PhaseRecorded, ev, "")
		return top.handle(ev)
	}
	return d.immediate.handle(ev)
}

// Batch runs fn inside a batch and drains it afterwards. If fn fails or
// panics, the recorded notifications are dropped.
func (d *Dispatcher) Batch(fn func() error) error {
	b := d.BeginBatch()
	defer func() {
		if r := recover(); r != nil {
			b.discard()
			panic(r)
		}
	}()
	if err := fn(); err != nil {
		b.discard()
		return err
	}
	return b.Run()
}

// Track runs fn inside a batch while holding a tracked reference to rel, and
// returns what rel became: its live successor if it was replaced, rel itself
// if it survived, nil if it left the model.
func (d *Dispatcher) Track(rel Relationship, fn func() error) (Relationship, error) {
	ref := d.tracker.Track(rel)
	defer ref.Release()

	if err := d.Batch(fn); err != nil {
		return nil, err
	}
	if obj, ok := ref.Object(); ok {
		return obj, nil
	}
	return nil, nil
}

// Tracker returns the relationship tracker. The graph-mutation layer must
// call its Update whenever it replaces a relationship.
func (d *Dispatcher) Tracker() *Tracker[Relationship] {
	return d.tracker
}

// OpenScopes returns the number of delayed scopes on the stack.
func (d *Dispatcher) OpenScopes() int {
	return len(d.scopes)
}

// AssertNoOpenScope panics when a batch was leaked. It only checks in builds
// tagged conventiondebug.
func (d *Dispatcher) AssertNoOpenScope() {
	if !debugChecks {
		return
	}
	if len(d.scopes) > 0 {
		panic(&ContractViolation{
			Message: fmt.Sprintf("%d delayed scope(s) still open", len(d.scopes)),
		})
	}
}

// RequireNoOpenScope is the always-on variant of AssertNoOpenScope.
func (d *Dispatcher) RequireNoOpenScope() error {
	if n := len(d.scopes); n > 0 {
		return newScopeOpenError(n)
	}
	return nil
}

func (d *Dispatcher) isReserved(name string) bool {
	_, ok := d.reserved[name]
	return ok
}

func (d *Dispatcher) top() *delayedScope {
	if len(d.scopes) == 0 {
		return nil
	}
	return d.scopes[len(d.scopes)-1]
}

func (d *Dispatcher) push(s *delayedScope) {
	d.scopes = append(d.scopes, s)
}

func (d *Dispatcher) pop() *delayedScope {
	s := d.top()
	if s != nil {
		d.scopes[len(d.scopes)-1] = nil
		d.scopes = d.scopes[:len(d.scopes)-1]
	}
	return s
}

// truncate restores the stack to depth, dropping anything recorded above it.
func (d *Dispatcher) truncate(depth int) {
	for len(d.scopes) > depth {
		d.pop()
	}
}

func (d *Dispatcher) observe(p Phase, ev Event, plugin string) {
	if d.observer == nil {
		return
	}
	d.observer.Observe(Observation{
		Phase:  p,
		Kind:   ev.Kind(),
		Plugin: plugin,
		Event:  ev,
		Depth:  len(d.scopes),
	})
}
