package rules

import (
	"fmt"
	"strconv"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/metadata"
)

// ManyToManyJoin creates the join entity type for a pair of skip
// navigations that point at each other. The join type is named after both
// ends in name order, holds one required foreign key to each end, and is
// keyed by the union of their properties.
type ManyToManyJoin struct{}

func (ManyToManyJoin) Name() string { return "ManyToManyJoin" }

func (r ManyToManyJoin) Process(_ *convention.Context, ev convention.Event) error {
	e, ok := ev.(convention.ElementChanged)
	if !ok {
		return nil
	}
	nav, ok := e.Element.(*metadata.SkipNavigation)
	if !ok {
		return nil
	}
	inv := nav.Inverse()
	if inv == nil || inv.Inverse() != nav || nav.ForeignKey() != nil || inv.ForeignKey() != nil {
		return nil
	}
	left, right := nav, inv
	if joinOrder(inv, nav) {
		left, right = inv, nav
	}
	return r.join(left, right)
}

func (r ManyToManyJoin) join(left, right *metadata.SkipNavigation) error {
	leftKey := left.DeclaringType().PrimaryKey()
	rightKey := right.DeclaringType().PrimaryKey()
	if leftKey == nil || rightKey == nil {
		// Validation reports skip navigations left without a join type.
		return nil
	}

	m := left.DeclaringType().Model()
	name := left.DeclaringType().Name() + right.DeclaringType().Name()
	for i := 1; m.EntityType(name) != nil || m.IsIgnored(name); i++ {
		name = left.DeclaringType().Name() + right.DeclaringType().Name() + strconv.Itoa(i)
	}
	join, err := m.AddEntityType(name)
	if err != nil || join == nil {
		return err
	}

	leftProps, err := joinProperties(join, left.DeclaringType(), leftKey)
	if err != nil {
		return err
	}
	rightProps, err := joinProperties(join, right.DeclaringType(), rightKey)
	if err != nil {
		return err
	}
	if _, err := join.SetPrimaryKey(append(leftProps, rightProps...)...); err != nil {
		return err
	}

	for _, side := range []struct {
		nav   *metadata.SkipNavigation
		props []*metadata.Property
		key   *metadata.Key
	}{{left, leftProps, leftKey}, {right, rightProps, rightKey}} {
		fk, err := join.AddForeignKey(side.props, side.key)
		if err != nil {
			return err
		}
		if fk == nil {
			continue
		}
		if _, err := fk.SetRequired(true); err != nil {
			return err
		}
		if err := side.nav.SetForeignKey(fk); err != nil {
			return err
		}
	}
	return nil
}

func joinProperties(join, end *metadata.EntityType, key *metadata.Key) ([]*metadata.Property, error) {
	var props []*metadata.Property
	for _, kp := range key.Properties() {
		name := end.Name() + kp.Name()
		for i := 1; join.Property(name) != nil; i++ {
			name = end.Name() + kp.Name() + strconv.Itoa(i)
		}
		p, err := join.AddShadowProperty(name, baseType(kp.Type()))
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("join property %s.%s was rejected", join.Name(), name)
		}
		props = append(props, p)
	}
	return props, nil
}

// joinOrder reports whether a sorts before b: by declaring type, then by
// navigation name.
func joinOrder(a, b *metadata.SkipNavigation) bool {
	if a.DeclaringType().Name() != b.DeclaringType().Name() {
		return a.DeclaringType().Name() < b.DeclaringType().Name()
	}
	return a.Name() < b.Name()
}
