package convention

// DefaultMaxIterations bounds the trampoline of one outermost batch.
const DefaultMaxIterations = 32767

// Batch is a scope-opening guard. The batch that opened the delayed scope
// owns draining it; batches opened while a delayed scope is already active
// are pass-through and their Run does nothing.
//
// Run must be called exactly once; Dispatcher.Batch does that for callers.
type Batch struct {
	d     *Dispatcher
	owner bool
	// base is the scope depth to restore when the batch is abandoned.
	base int
	done bool
}

// BeginBatch opens a batch. While the immediate scope is active this pushes a
// new delayed scope, so every event fired until Run is recorded instead of
// executed.
func (d *Dispatcher) BeginBatch() *Batch {
	if len(d.scopes) > 0 {
		return &Batch{d: d, base: len(d.scopes)}
	}
	d.push(newDelayedScope(nil))
	d.logger.Debug("convention batch opened")
	return &Batch{d: d, owner: true}
}

// Owner reports whether this batch drains the delayed scope.
func (b *Batch) Owner() bool {
	return b.owner
}

// Run replays everything recorded since BeginBatch, including whatever the
// replayed plugins fire in turn, until no delayed scope is left. Subsequent
// calls are no-ops.
func (b *Batch) Run() error {
	if b.done {
		return nil
	}
	b.done = true
	if !b.owner {
		return nil
	}

	d := b.d
	for iteration := 1; ; iteration++ {
		if iteration > d.maxIterations {
			pending := 0
			if top := d.top(); top != nil {
				pending = top.leafCount()
			}
			d.logger.Error("convention loop bound exceeded",
				"iterations", iteration,
				"max_iterations", d.maxIterations,
				"pending", pending,
			)
			d.truncate(b.base)
			return newInfiniteLoopError(iteration, d.maxIterations)
		}

		current := d.top()
		if current == nil {
			return nil
		}
		d.pop()

		if len(current.children) == 0 {
			return nil
		}
		if current.parent != nil || current.leafCount() == 0 {
			return nil
		}

		d.push(newDelayedScope(nil))
		d.logger.Debug("replaying delayed conventions",
			"iteration", iteration,
			"nodes", len(current.children),
		)
		if err := current.replay(d.immediate); err != nil {
			d.truncate(b.base)
			return err
		}
	}
}

// discard abandons the batch without replaying what it recorded.
func (b *Batch) discard() {
	if b.done {
		return
	}
	b.done = true
	if b.owner {
		b.d.truncate(b.base)
	}
}
