package convention

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeElement implements every element view the dispatcher reads.
type fakeElement struct {
	name      string
	removed   bool
	ignored   map[string]bool
	flags     map[Kind]bool
	props     []Element
	dependent Element
	principal Element
}

func newFake(name string) *fakeElement {
	return &fakeElement{
		name:    name,
		ignored: make(map[string]bool),
		flags:   make(map[Kind]bool),
	}
}

func newFakeRelationship(name string, dependent, principal *fakeElement, props ...Element) *fakeElement {
	fk := newFake(name)
	if dependent != nil {
		fk.dependent = dependent
	}
	if principal != nil {
		fk.principal = principal
	}
	fk.props = props
	return fk
}

func (e *fakeElement) InModel() bool              { return !e.removed }
func (e *fakeElement) String() string             { return e.name }
func (e *fakeElement) IsIgnored(name string) bool { return e.ignored[name] }
func (e *fakeElement) Flag(k Kind) bool           { return e.flags[k] }
func (e *fakeElement) Dependent() Element         { return e.dependent }
func (e *fakeElement) Principal() Element         { return e.principal }
func (e *fakeElement) PropertyList() []Element    { return e.props }

func nameOf(el Element) string {
	if f, ok := el.(*fakeElement); ok {
		return f.name
	}
	return "?"
}

// trace collects plugin firing order.
type trace struct {
	entries []string
}

func (t *trace) add(s string) {
	t.entries = append(t.entries, s)
}

func record(tr *trace, name string) Plugin {
	return Func(name, func(*Context, Event) error {
		tr.add(name)
		return nil
	})
}

func newTestDispatcher(t *testing.T, b *RegistryBuilder, opts ...Option) *Dispatcher {
	t.Helper()
	reg, err := b.Build()
	require.NoError(t, err)
	return New(reg, append([]Option{WithLogger(nil)}, opts...)...)
}
