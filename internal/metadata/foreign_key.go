package metadata

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/conventions/internal/convention"
)

// ForeignKey is a relationship from dependent properties to a principal key.
type ForeignKey struct {
	annotations

	dependent    *EntityType
	principal    *EntityType
	properties   []*Property
	principalKey *Key

	unique            bool
	required          bool
	requiredDependent bool
	ownership         bool
	removed           bool

	toPrincipal *Navigation
	toDependent *Navigation
}

// InModel implements convention.Element.
func (fk *ForeignKey) InModel() bool {
	return !fk.removed && fk.dependent.InModel() && fk.principal.InModel()
}

func (fk *ForeignKey) String() string {
	return fmt.Sprintf("%s{%s} -> %s", fk.dependent.name,
		strings.Join(propertyNames(fk.properties), ","), fk.principal.name)
}

// Dependent implements convention.Relationship.
func (fk *ForeignKey) Dependent() convention.Element { return fk.dependent }

// Principal implements convention.Relationship.
func (fk *ForeignKey) Principal() convention.Element { return fk.principal }

// PropertyList implements convention.Relationship.
func (fk *ForeignKey) PropertyList() []convention.Element {
	out := make([]convention.Element, len(fk.properties))
	for i, p := range fk.properties {
		out[i] = p
	}
	return out
}

func (fk *ForeignKey) DependentType() *EntityType        { return fk.dependent }
func (fk *ForeignKey) PrincipalType() *EntityType        { return fk.principal }
func (fk *ForeignKey) Properties() []*Property           { return slices.Clone(fk.properties) }
func (fk *ForeignKey) PrincipalKey() *Key                { return fk.principalKey }
func (fk *ForeignKey) IsUnique() bool                    { return fk.unique }
func (fk *ForeignKey) IsRequired() bool                  { return fk.required }
func (fk *ForeignKey) IsRequiredDependent() bool         { return fk.requiredDependent }
func (fk *ForeignKey) IsOwnership() bool                 { return fk.ownership }
func (fk *ForeignKey) DependentToPrincipal() *Navigation { return fk.toPrincipal }
func (fk *ForeignKey) PrincipalToDependent() *Navigation { return fk.toDependent }

// Flag implements convention.Flagged.
func (fk *ForeignKey) Flag(k convention.Kind) bool {
	switch k {
	case convention.KindForeignKeyUniquenessChanged:
		return fk.unique
	case convention.KindForeignKeyRequirednessChanged:
		return fk.required
	case convention.KindForeignKeyDependentRequirednessChanged:
		return fk.requiredDependent
	case convention.KindForeignKeyOwnershipChanged:
		return fk.ownership
	default:
		return false
	}
}

// AddForeignKey adds a relationship from props to principalKey. The result
// is the live foreign key once plugins settled: possibly a replacement of the
// one created here, or nil if plugins removed it.
func (et *EntityType) AddForeignKey(props []*Property, principalKey *Key) (*ForeignKey, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}
	if err := et.ownsAll(props); err != nil {
		return nil, fmt.Errorf("add foreign key to %s: %w", et.name, err)
	}
	if principalKey == nil || !principalKey.InModel() {
		return nil, fmt.Errorf("add foreign key to %s: principal key: %w", et.name, ErrNotInModel)
	}
	if len(props) != len(principalKey.properties) {
		return nil, fmt.Errorf("add foreign key to %s: %d properties for key %s: %w",
			et.name, len(props), principalKey, ErrInvalid)
	}

	fk := &ForeignKey{
		dependent:    et,
		principal:    principalKey.declaring,
		properties:   slices.Clone(props),
		principalKey: principalKey,
	}
	et.attach(fk)

	d := et.model.d
	ref := d.Tracker().Track(fk)
	defer ref.Release()

	if _, err := d.OnForeignKeyAdded(fk); err != nil {
		return nil, fmt.Errorf("add foreign key %s: %w", fk, err)
	}
	live, ok := ref.Object()
	if !ok {
		return nil, nil
	}
	return live.(*ForeignKey), nil
}

// RemoveForeignKey removes fk and its navigations.
func (et *EntityType) RemoveForeignKey(fk *ForeignKey) error {
	if err := et.model.mutable(); err != nil {
		return err
	}
	if fk.dependent != et || fk.removed {
		return fmt.Errorf("remove foreign key %s: %w", fk, ErrNotInModel)
	}

	err := et.model.d.Batch(func() error {
		for _, nav := range []*Navigation{fk.toPrincipal, fk.toDependent} {
			if nav != nil {
				if err := nav.declaring.RemoveNavigation(nav); err != nil {
					return err
				}
			}
		}
		et.detach(fk)
		_, err := et.model.d.OnForeignKeyRemoved(et, fk)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove foreign key %s: %w", fk, err)
	}
	return nil
}

// ReplaceForeignKey swaps old for an equivalent foreign key over props. The
// replacement keeps the principal key, facets and navigations of old; old
// leaves the model, and tracked references to it follow the replacement.
func (et *EntityType) ReplaceForeignKey(old *ForeignKey, props []*Property) (*ForeignKey, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}
	if old.dependent != et || !old.InModel() {
		return nil, fmt.Errorf("replace foreign key %s: %w", old, ErrNotInModel)
	}
	if err := et.ownsAll(props); err != nil {
		return nil, fmt.Errorf("replace foreign key %s: %w", old, err)
	}
	if len(props) != len(old.properties) {
		return nil, fmt.Errorf("replace foreign key %s: %d properties: %w", old, len(props), ErrInvalid)
	}

	successor := &ForeignKey{
		dependent:         et,
		principal:         old.principal,
		properties:        slices.Clone(props),
		principalKey:      old.principalKey,
		unique:            old.unique,
		required:          old.required,
		requiredDependent: old.requiredDependent,
		ownership:         old.ownership,
		toPrincipal:       old.toPrincipal,
		toDependent:       old.toDependent,
	}
	for name, a := range old.values {
		successor.put(name, a.Value)
	}

	d := et.model.d
	err := d.Batch(func() error {
		old.toPrincipal, old.toDependent = nil, nil
		for _, nav := range []*Navigation{successor.toPrincipal, successor.toDependent} {
			if nav != nil {
				nav.fk = successor
			}
		}
		et.detach(old)
		et.attach(successor)
		d.Tracker().Update(old, successor)

		if _, err := d.OnForeignKeyRemoved(et, old); err != nil {
			return err
		}
		if _, err := d.OnForeignKeyAdded(successor); err != nil {
			return err
		}
		_, err := d.OnForeignKeyPropertiesChanged(successor, old.PropertyList(), old.principalKey)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replace foreign key %s: %w", old, err)
	}
	return successor, nil
}

// SetUnique changes uniqueness and returns the settled value.
func (fk *ForeignKey) SetUnique(unique bool) (bool, error) {
	return fk.setFlag(&fk.unique, unique, fk.dependent.model.d.OnForeignKeyUniquenessChanged)
}

// SetRequired changes whether the dependent must reference a principal.
func (fk *ForeignKey) SetRequired(required bool) (bool, error) {
	return fk.setFlag(&fk.required, required, fk.dependent.model.d.OnForeignKeyRequirednessChanged)
}

// SetRequiredDependent changes whether the principal must have a dependent.
func (fk *ForeignKey) SetRequiredDependent(required bool) (bool, error) {
	return fk.setFlag(&fk.requiredDependent, required, fk.dependent.model.d.OnForeignKeyDependentRequirednessChanged)
}

// SetOwnership marks the dependent as owned by the principal.
func (fk *ForeignKey) SetOwnership(owned bool) (bool, error) {
	return fk.setFlag(&fk.ownership, owned, fk.dependent.model.d.OnForeignKeyOwnershipChanged)
}

func (fk *ForeignKey) setFlag(field *bool, value bool, notify func(convention.Flagged) (bool, bool, error)) (bool, error) {
	if err := fk.mutable(); err != nil {
		return false, err
	}
	if *field == value {
		return value, nil
	}
	*field = value
	v, _, err := notify(fk)
	if err != nil {
		return false, fmt.Errorf("set flag of %s: %w", fk, err)
	}
	return v, nil
}

// SetPrincipalKey points fk at another key of its principal type.
func (fk *ForeignKey) SetPrincipalKey(key *Key) error {
	if err := fk.mutable(); err != nil {
		return err
	}
	if key == nil || key.declaring != fk.principal || !key.InModel() {
		return fmt.Errorf("set principal key of %s: %w", fk, ErrInvalid)
	}
	if len(key.properties) != len(fk.properties) {
		return fmt.Errorf("set principal key of %s: arity mismatch: %w", fk, ErrInvalid)
	}
	if key == fk.principalKey {
		return nil
	}
	fk.principalKey = key
	if _, err := fk.dependent.model.d.OnForeignKeyPrincipalEndChanged(fk); err != nil {
		return fmt.Errorf("set principal key of %s: %w", fk, err)
	}
	return nil
}

// SetAnnotation sets an annotation on fk.
func (fk *ForeignKey) SetAnnotation(name string, value any) (*convention.Annotation, error) {
	if err := fk.mutable(); err != nil {
		return nil, err
	}
	current, old := fk.put(name, value)
	return fk.dependent.model.d.OnForeignKeyAnnotationChanged(fk, name, current, old)
}

func (fk *ForeignKey) mutable() error {
	if err := fk.dependent.model.mutable(); err != nil {
		return err
	}
	if !fk.InModel() {
		return fmt.Errorf("%s: %w", fk, ErrNotInModel)
	}
	return nil
}

func (et *EntityType) attach(fk *ForeignKey) {
	et.foreignKeys = append(et.foreignKeys, fk)
	fk.principal.referencing = append(fk.principal.referencing, fk)
}

func (et *EntityType) detach(fk *ForeignKey) {
	fk.removed = true
	et.foreignKeys = slices.DeleteFunc(et.foreignKeys, func(x *ForeignKey) bool { return x == fk })
	fk.principal.referencing = slices.DeleteFunc(fk.principal.referencing, func(x *ForeignKey) bool { return x == fk })
}

// Navigation is a reference or collection member following a foreign key.
type Navigation struct {
	annotations

	declaring   *EntityType
	name        string
	fk          *ForeignKey
	onDependent bool
	removed     bool
}

// InModel implements convention.Element.
func (n *Navigation) InModel() bool { return !n.removed && n.fk.InModel() }

func (n *Navigation) String() string { return n.declaring.name + "." + n.name }

func (n *Navigation) Name() string               { return n.name }
func (n *Navigation) DeclaringType() *EntityType { return n.declaring }
func (n *Navigation) ForeignKey() *ForeignKey    { return n.fk }
func (n *Navigation) IsOnDependent() bool        { return n.onDependent }

// TargetType returns the type the navigation points to.
func (n *Navigation) TargetType() *EntityType {
	if n.onDependent {
		return n.fk.principal
	}
	return n.fk.dependent
}

// IsCollection reports whether the navigation holds many dependents.
func (n *Navigation) IsCollection() bool { return !n.onDependent && !n.fk.unique }

// AddNavigation adds a navigation called name over fk. With onDependent the
// navigation lives on the dependent and points to the principal.
func (et *EntityType) AddNavigation(name string, fk *ForeignKey, onDependent bool) (*Navigation, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}
	if fk == nil || !fk.InModel() {
		return nil, fmt.Errorf("add navigation %s.%s: %w", et.name, name, ErrNotInModel)
	}
	owner := fk.principal
	if onDependent {
		owner = fk.dependent
	}
	if owner != et {
		return nil, fmt.Errorf("add navigation %s.%s: foreign key %s does not start here: %w", et.name, name, fk, ErrInvalid)
	}
	if et.ignored[name] {
		return nil, nil
	}
	if existing := et.Navigation(name); existing != nil {
		if existing.fk == fk {
			return existing, nil
		}
		return nil, fmt.Errorf("add navigation %s.%s: name in use: %w", et.name, name, ErrInvalid)
	}
	if et.Property(name) != nil {
		return nil, fmt.Errorf("add navigation %s.%s: name used by a property: %w", et.name, name, ErrInvalid)
	}

	nav := &Navigation{declaring: et, name: name, fk: fk, onDependent: onDependent}
	if onDependent {
		if fk.toPrincipal != nil {
			return nil, fmt.Errorf("add navigation %s.%s: %s already navigable: %w", et.name, name, fk, ErrInvalid)
		}
		fk.toPrincipal = nav
	} else {
		if fk.toDependent != nil {
			return nil, fmt.Errorf("add navigation %s.%s: %s already navigable: %w", et.name, name, fk, ErrInvalid)
		}
		fk.toDependent = nav
	}
	et.navigations = append(et.navigations, nav)

	res, err := et.model.d.OnNavigationAdded(fk, nav)
	if err != nil {
		return nil, fmt.Errorf("add navigation %s: %w", nav, err)
	}
	added, _ := res.(*Navigation)
	return added, nil
}

// RemoveNavigation removes nav; the foreign key stays.
func (et *EntityType) RemoveNavigation(nav *Navigation) error {
	if err := et.model.mutable(); err != nil {
		return err
	}
	if nav.declaring != et || nav.removed {
		return fmt.Errorf("remove navigation %s: %w", nav, ErrNotInModel)
	}

	nav.removed = true
	et.navigations = slices.DeleteFunc(et.navigations, func(x *Navigation) bool { return x == nav })
	if nav.fk.toPrincipal == nav {
		nav.fk.toPrincipal = nil
	}
	if nav.fk.toDependent == nav {
		nav.fk.toDependent = nil
	}
	if _, _, err := et.model.d.OnNavigationRemoved(et, nav.TargetType(), nav.name); err != nil {
		return fmt.Errorf("remove navigation %s: %w", nav, err)
	}
	return nil
}

// SetAnnotation sets an annotation on n.
func (n *Navigation) SetAnnotation(name string, value any) (*convention.Annotation, error) {
	if err := n.declaring.mutable(); err != nil {
		return nil, err
	}
	current, old := n.put(name, value)
	return n.declaring.model.d.OnNavigationAnnotationChanged(n, name, current, old)
}
