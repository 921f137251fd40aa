package convention

import "fmt"

// Trackable is an element that can be held by a Reference. Identity is the
// element value itself.
type Trackable interface {
	comparable
	Element
}

// Tracker hands out ref-counted references to elements that may be replaced
// while a batch runs. There is at most one Reference per tracked element.
type Tracker[T Trackable] struct {
	refs map[T]*Reference[T]
}

// NewTracker returns an empty tracker.
func NewTracker[T Trackable]() *Tracker[T] {
	return &Tracker[T]{refs: make(map[T]*Reference[T])}
}

// Track returns the reference for el, creating it on first use, and takes
// one hold on it. Every Track must be paired with a Release.
func (t *Tracker[T]) Track(el T) *Reference[T] {
	var zero T
	if el == zero {
		return &Reference[T]{count: 1}
	}
	if r, ok := t.refs[el]; ok {
		r.count++
		return r
	}
	r := &Reference[T]{tracker: t, object: el, count: 1}
	t.refs[el] = r
	return r
}

// Update repoints the reference held for old to its replacement. The caller
// must have detached old from the model and attached replacement.
func (t *Tracker[T]) Update(old, replacement T) {
	if debugChecks {
		if old.InModel() {
			panic(&ContractViolation{Message: fmt.Sprintf("tracker update: %v is still in the model", old)})
		}
		if !replacement.InModel() {
			panic(&ContractViolation{Message: fmt.Sprintf("tracker update: %v is not in the model", replacement)})
		}
	}
	r, ok := t.refs[old]
	if !ok {
		return
	}
	delete(t.refs, old)
	r.object = replacement
	t.refs[replacement] = r
}

// Len returns the number of tracked elements.
func (t *Tracker[T]) Len() int {
	return len(t.refs)
}

// Reference is a handle that follows its element through replacements.
type Reference[T Trackable] struct {
	tracker *Tracker[T]
	object  T
	count   int
}

// Object returns the current element and whether it is still in the model.
// A removed element resolves to the zero value and false, never to the stale
// element.
func (r *Reference[T]) Object() (T, bool) {
	var zero T
	if r.object == zero || !r.object.InModel() {
		return zero, false
	}
	return r.object, true
}

// Release drops one hold. The last release forgets the element.
func (r *Reference[T]) Release() {
	if r.count == 0 {
		return
	}
	r.count--
	if r.count > 0 || r.tracker == nil {
		return
	}
	if current, ok := r.tracker.refs[r.object]; ok && current == r {
		delete(r.tracker.refs, r.object)
	}
}
