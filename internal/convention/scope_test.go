package convention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(name string) node {
	return eventNode{ev: ElementAdded{EventKind: KindPropertyAdded, Element: newFake(name)}}
}

func TestDelayedScope_LeafCount(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0, newDelayedScope(nil).leafCount())
	})

	t.Run("flat", func(t *testing.T) {
		s := newDelayedScope(nil)
		for _, n := range []string{"a", "b", "c", "d"} {
			s.children = append(s.children, leaf(n))
		}
		assert.Equal(t, 4, s.leafCount())
	})

	t.Run("nested", func(t *testing.T) {
		root := newDelayedScope(nil)
		child := newDelayedScope(root)
		grandchild := newDelayedScope(child)
		empty := newDelayedScope(root)

		grandchild.children = []node{leaf("g1"), leaf("g2")}
		child.children = []node{leaf("c1"), grandchild}
		root.children = []node{leaf("r1"), child, empty, leaf("r2")}

		assert.Equal(t, 5, root.leafCount())
		assert.Equal(t, 3, child.leafCount())
		assert.Equal(t, 0, empty.leafCount())
	})

	t.Run("only scopes", func(t *testing.T) {
		root := newDelayedScope(nil)
		root.children = []node{newDelayedScope(root), newDelayedScope(root)}
		assert.Equal(t, 0, root.leafCount())
	})
}

func TestDelayedScope_HandleReturnsInput(t *testing.T) {
	s := newDelayedScope(nil)
	p := newFake("Name")
	fk := newFakeRelationship("FK", newFake("Post"), newFake("Blog"), p)
	a := &Annotation{Name: "Comment", Value: "x"}

	tests := []struct {
		name string
		ev   Event
		want any
	}{
		{"element", ElementAdded{EventKind: KindPropertyAdded, Element: p}, p},
		{"annotation", AnnotationChanged{EventKind: KindPropertyAnnotationChanged, Element: p, Name: "Comment", Annotation: a}, a},
		{"removed annotation", AnnotationChanged{EventKind: KindPropertyAnnotationChanged, Element: p, Name: "Comment"}, nil},
		{"name", NameEvent{EventKind: KindNavigationRemoved, Owner: p, Name: "Posts"}, "Posts"},
		{"list", PropertiesChanged{EventKind: KindForeignKeyPropertiesChanged, ForeignKey: fk}, []Element{p}},
		{"field", FieldChanged{EventKind: KindPropertyFieldChanged, Property: p, Field: "_name"}, "_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.handle(tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Len(t, s.children, len(tests))
}

func TestDelayedScope_ReplayInOrder(t *testing.T) {
	tr := &trace{}
	reg := NewRegistryBuilder().
		Add(Func("log", func(_ *Context, ev Event) error {
			tr.add(nameOf(ev.(ElementAdded).Element))
			return nil
		}), KindPropertyAdded).
		MustBuild()
	d := New(reg, WithLogger(nil))

	s := newDelayedScope(nil)
	nested := newDelayedScope(s)
	nested.children = []node{leaf("b")}
	s.children = []node{leaf("a"), nested, leaf("c")}

	require.NoError(t, s.replay(d.immediate))
	assert.Equal(t, []string{"a", "b", "c"}, tr.entries)
}
