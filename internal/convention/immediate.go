package convention

import (
	"fmt"
	"slices"
)

// outcome is how a chain ended.
type outcome int

const (
	completed outcome = iota
	stopped
	invalidated
)

// immediateScope runs plugin chains against the live graph. There is exactly
// one per dispatcher; it owns one reusable Context per kind.
type immediateScope struct {
	d        *Dispatcher
	registry *Registry
	contexts [kindCount]*Context
}

func newImmediateScope(d *Dispatcher, reg *Registry) *immediateScope {
	s := &immediateScope{d: d, registry: reg}
	for k := range s.contexts {
		s.contexts[k] = newContext(Kind(k))
	}
	return s
}

func (s *immediateScope) handle(ev Event) (any, error) {
	switch k := ev.Kind(); {
	case k.isModelOrchestration():
		return s.runEach(ev)
	case k == KindModelFinalized:
		if !ev.live() {
			s.d.observe(PhaseInvalidated, ev, "")
			return nil, nil
		}
		result, out, err := s.fire(ev)
		if err != nil {
			return nil, err
		}
		return finish(ev, result, out), nil
	default:
		return s.runChain(ev)
	}
}

// runChain fires the chain inside a batch: everything the plugins trigger is
// recorded and replayed after the last plugin returns.
func (s *immediateScope) runChain(ev Event) (any, error) {
	if !ev.live() {
		s.d.observe(PhaseInvalidated, ev, "")
		return nil, nil
	}

	batch := s.d.BeginBatch()
	result, out, err := s.fire(ev)
	if err != nil {
		batch.discard()
		return nil, err
	}
	if err := batch.Run(); err != nil {
		return nil, err
	}
	return finish(ev, result, out), nil
}

// runEach gives every plugin its own batch so cascades from one plugin
// settle before the next one observes the graph.
func (s *immediateScope) runEach(ev Event) (any, error) {
	if !ev.live() {
		s.d.observe(PhaseInvalidated, ev, "")
		return nil, nil
	}

	ctx := s.contexts[ev.Kind()]
	initial := ev.subject()
	ctx.reset(initial)
	s.d.observe(PhaseFired, ev, "")

	for _, p := range s.registry.Plugins(ev.Kind()) {
		batch := s.d.BeginBatch()
		s.d.observe(PhaseInvoked, ev, p.Name())
		if err := p.Process(ctx, ev); err != nil {
			batch.discard()
			return nil, err
		}
		halted, result := ctx.stop, ctx.result
		if err := batch.Run(); err != nil {
			return nil, err
		}
		if halted {
			s.d.observe(PhaseStopped, ev, p.Name())
			return result, nil
		}
	}
	return ev.settle(initial), nil
}

// fire runs the plugins of ev's kind in registration order.
func (s *immediateScope) fire(ev Event) (any, outcome, error) {
	ctx := s.contexts[ev.Kind()]
	initial := ev.subject()
	ctx.reset(initial)
	s.d.observe(PhaseFired, ev, "")

	for _, p := range s.registry.Plugins(ev.Kind()) {
		if !ev.live() {
			s.d.observe(PhaseInvalidated, ev, p.Name())
			s.d.logger.Debug("convention chain aborted",
				"kind", ev.Kind().String(),
				"before", p.Name(),
			)
			return nil, invalidated, nil
		}

		s.d.observe(PhaseInvoked, ev, p.Name())
		if err := p.Process(ctx, ev); err != nil {
			return nil, completed, err
		}
		if ctx.stop {
			s.d.observe(PhaseStopped, ev, p.Name())
			return ctx.result, stopped, nil
		}
		if debugChecks {
			checkUnchanged(ev, p, initial)
		}
	}
	return ctx.result, completed, nil
}

func finish(ev Event, result any, out outcome) any {
	switch out {
	case stopped:
		return result
	case invalidated:
		return nil
	default:
		return ev.settle(result)
	}
}

// checkUnchanged panics when a plugin changed the observable subject without
// stopping the chain.
func checkUnchanged(ev Event, p Plugin, initial any) {
	if ev.Shape() == ShapeElementRemoved || !ev.live() {
		return
	}
	if current := ev.subject(); !sameSubject(initial, current) {
		panic(&ContractViolation{
			Kind:    ev.Kind(),
			Plugin:  p.Name(),
			Message: fmt.Sprintf("subject changed from %v to %v without stopping", initial, current),
		})
	}
}

func sameSubject(a, b any) bool {
	as, aok := a.([]Element)
	bs, bok := b.([]Element)
	if aok || bok {
		return aok && bok && slices.Equal(as, bs)
	}
	return a == b
}
