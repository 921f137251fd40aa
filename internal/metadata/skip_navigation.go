package metadata

import (
	"fmt"
	"slices"

	"github.com/roach88/conventions/internal/convention"
)

// SkipNavigation is a collection navigation that crosses a join type, as in
// a many-to-many relationship.
type SkipNavigation struct {
	annotations

	declaring *EntityType
	target    *EntityType
	name      string
	fk        *ForeignKey
	inverse   *SkipNavigation
	removed   bool
}

// InModel implements convention.Element.
func (n *SkipNavigation) InModel() bool {
	return !n.removed && n.declaring.InModel() && n.target.InModel()
}

func (n *SkipNavigation) String() string { return n.declaring.name + "." + n.name }

func (n *SkipNavigation) Name() string               { return n.name }
func (n *SkipNavigation) DeclaringType() *EntityType { return n.declaring }
func (n *SkipNavigation) TargetType() *EntityType    { return n.target }
func (n *SkipNavigation) ForeignKey() *ForeignKey    { return n.fk }
func (n *SkipNavigation) Inverse() *SkipNavigation   { return n.inverse }

// AddSkipNavigation adds a many-to-many navigation called name to target.
func (et *EntityType) AddSkipNavigation(name string, target *EntityType) (*SkipNavigation, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}
	if target == nil || !target.InModel() {
		return nil, fmt.Errorf("add skip navigation %s.%s: target: %w", et.name, name, ErrNotInModel)
	}
	if et.ignored[name] {
		return nil, nil
	}
	if existing := et.SkipNavigation(name); existing != nil {
		return existing, nil
	}
	if et.Property(name) != nil || et.Navigation(name) != nil {
		return nil, fmt.Errorf("add skip navigation %s.%s: name in use: %w", et.name, name, ErrInvalid)
	}

	nav := &SkipNavigation{declaring: et, target: target, name: name}
	et.skipNavigations = append(et.skipNavigations, nav)

	res, err := et.model.d.OnSkipNavigationAdded(et, nav)
	if err != nil {
		return nil, fmt.Errorf("add skip navigation %s: %w", nav, err)
	}
	added, _ := res.(*SkipNavigation)
	return added, nil
}

// RemoveSkipNavigation removes nav and unlinks its inverse.
func (et *EntityType) RemoveSkipNavigation(nav *SkipNavigation) error {
	if err := et.model.mutable(); err != nil {
		return err
	}
	if nav.declaring != et || nav.removed {
		return fmt.Errorf("remove skip navigation %s: %w", nav, ErrNotInModel)
	}

	err := et.model.d.Batch(func() error {
		if inv := nav.inverse; inv != nil && inv.inverse == nav {
			if err := inv.SetInverse(nil); err != nil {
				return err
			}
		}
		nav.removed = true
		et.skipNavigations = slices.DeleteFunc(et.skipNavigations, func(x *SkipNavigation) bool { return x == nav })
		_, err := et.model.d.OnSkipNavigationRemoved(et, nav)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove skip navigation %s: %w", nav, err)
	}
	return nil
}

// SetForeignKey binds nav to the foreign key from the join type to its
// declaring type.
func (n *SkipNavigation) SetForeignKey(fk *ForeignKey) error {
	if err := n.mutable(); err != nil {
		return err
	}
	if fk != nil && fk.principal != n.declaring {
		return fmt.Errorf("set foreign key of %s: %s does not reference %s: %w", n, fk, n.declaring.name, ErrInvalid)
	}
	if fk == n.fk {
		return nil
	}
	old := n.fk
	n.fk = fk
	if _, err := n.declaring.model.d.OnSkipNavigationForeignKeyChanged(n, foreignKeyElement(fk), foreignKeyElement(old)); err != nil {
		return fmt.Errorf("set foreign key of %s: %w", n, err)
	}
	return nil
}

// SetInverse pairs n with the skip navigation going the other way.
func (n *SkipNavigation) SetInverse(inverse *SkipNavigation) error {
	if err := n.mutable(); err != nil {
		return err
	}
	if inverse != nil && (inverse.declaring != n.target || inverse.target != n.declaring) {
		return fmt.Errorf("set inverse of %s to %s: %w", n, inverse, ErrInvalid)
	}
	if inverse == n.inverse {
		return nil
	}
	old := n.inverse
	n.inverse = inverse
	if _, err := n.declaring.model.d.OnSkipNavigationInverseChanged(n, skipNavigationElement(inverse), skipNavigationElement(old)); err != nil {
		return fmt.Errorf("set inverse of %s: %w", n, err)
	}
	return nil
}

// SetAnnotation sets an annotation on n.
func (n *SkipNavigation) SetAnnotation(name string, value any) (*convention.Annotation, error) {
	if err := n.mutable(); err != nil {
		return nil, err
	}
	current, old := n.put(name, value)
	return n.declaring.model.d.OnSkipNavigationAnnotationChanged(n, name, current, old)
}

func (n *SkipNavigation) mutable() error {
	if err := n.declaring.model.mutable(); err != nil {
		return err
	}
	if !n.InModel() {
		return fmt.Errorf("%s: %w", n, ErrNotInModel)
	}
	return nil
}
