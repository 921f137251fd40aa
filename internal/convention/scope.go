package convention

// scope is the execution mode events are routed to: the immediate scope runs
// plugin chains now, a delayed scope records the call for later.
type scope interface {
	handle(ev Event) (any, error)
}

// node is a recorded child of a delayed scope: either a captured event or a
// nested delayed scope.
type node interface {
	replay(s *immediateScope) error
}

// eventNode is a leaf: one captured notification, opaque until replayed.
type eventNode struct {
	ev Event
}

func (n eventNode) replay(s *immediateScope) error {
	_, err := s.handle(n.ev)
	return err
}

// delayedScope buffers notifications as replayable nodes.
//
// INVARIANTS:
//   - children is append-only and replayed in recording order
//   - parent is nil when the scope wraps the immediate scope
type delayedScope struct {
	parent   *delayedScope
	children []node
}

func newDelayedScope(parent *delayedScope) *delayedScope {
	return &delayedScope{parent: parent}
}

// handle records ev and returns its unmodified input as the provisional
// result; the real outcome is decided at replay time against the live graph.
func (d *delayedScope) handle(ev Event) (any, error) {
	d.children = append(d.children, eventNode{ev: ev})
	return ev.subject(), nil
}

// replay runs every child, in order, against the immediate scope.
func (d *delayedScope) replay(s *immediateScope) error {
	for _, child := range d.children {
		if err := child.replay(s); err != nil {
			return err
		}
	}
	return nil
}

// leafCount counts recorded events across the whole subtree, breadth first,
// ignoring the nested scopes themselves.
func (d *delayedScope) leafCount() int {
	count := 0
	queue := []*delayedScope{d}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range current.children {
			if nested, ok := child.(*delayedScope); ok {
				queue = append(queue, nested)
				continue
			}
			count++
		}
	}
	return count
}
