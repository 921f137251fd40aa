//go:build conventiondebug

package convention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireViolation(t *testing.T, fn func()) *ContractViolation {
	t.Helper()
	var got *ContractViolation
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a contract violation")
			v, ok := r.(*ContractViolation)
			require.True(t, ok, "unexpected panic %v", r)
			got = v
		}()
		fn()
	}()
	return got
}

func TestDebug_SubjectChangedWithoutStop(t *testing.T) {
	idx := newFake("IX")
	b := NewRegistryBuilder().Add(Func("sneaky", func(*Context, Event) error {
		idx.flags[KindIndexUniquenessChanged] = true
		return nil
	}), KindIndexUniquenessChanged)
	d := newTestDispatcher(t, b)

	v := requireViolation(t, func() {
		_, _, _ = d.OnIndexUniquenessChanged(idx)
	})
	assert.Equal(t, "sneaky", v.Plugin)
	assert.Equal(t, KindIndexUniquenessChanged, v.Kind)
}

func TestDebug_ListChangedWithoutStop(t *testing.T) {
	fk := newFakeRelationship("FK", newFake("Post"), newFake("Blog"), newFake("BlogId"))
	b := NewRegistryBuilder().Add(Func("rebind", func(*Context, Event) error {
		fk.props = []Element{newFake("BlogKey")}
		return nil
	}), KindForeignKeyPropertiesChanged)
	d := newTestDispatcher(t, b)

	v := requireViolation(t, func() {
		_, _ = d.OnForeignKeyPropertiesChanged(fk, nil, nil)
	})
	assert.Equal(t, "rebind", v.Plugin)
}

func TestDebug_SubjectChangedWithStopIsAllowed(t *testing.T) {
	idx := newFake("IX")
	b := NewRegistryBuilder().Add(Func("honest", func(ctx *Context, _ Event) error {
		idx.flags[KindIndexUniquenessChanged] = true
		ctx.StopWith(true)
		return nil
	}), KindIndexUniquenessChanged)
	d := newTestDispatcher(t, b)

	unique, ok, err := d.OnIndexUniquenessChanged(idx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, unique)
}

func TestDebug_AssertNoOpenScope(t *testing.T) {
	d := newTestDispatcher(t, NewRegistryBuilder())
	d.AssertNoOpenScope()

	b := d.BeginBatch()
	requireViolation(t, d.AssertNoOpenScope)
	require.NoError(t, b.Run())
	d.AssertNoOpenScope()
}

func TestDebug_TrackerUpdatePreconditions(t *testing.T) {
	tr := NewTracker[Relationship]()
	old := newFakeRelationship("FK", nil, nil)
	successor := newFakeRelationship("FK'", nil, nil)

	requireViolation(t, func() { tr.Update(old, successor) })

	old.removed = true
	successor.removed = true
	requireViolation(t, func() { tr.Update(old, successor) })
}
