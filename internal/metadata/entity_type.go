package metadata

import (
	"fmt"
	"slices"

	"github.com/roach88/conventions/internal/convention"
)

// EntityType is a node of the model: a named type with properties, keys,
// indexes and relationships.
type EntityType struct {
	annotations

	model   *Model
	name    string
	base    *EntityType
	removed bool

	properties      []*Property
	keys            []*Key
	primaryKey      *Key
	indexes         []*Index
	foreignKeys     []*ForeignKey
	referencing     []*ForeignKey
	navigations     []*Navigation
	skipNavigations []*SkipNavigation
	ignored         map[string]bool
}

func newEntityType(m *Model, name string) *EntityType {
	return &EntityType{model: m, name: name, ignored: make(map[string]bool)}
}

// InModel implements convention.Element.
func (et *EntityType) InModel() bool { return !et.removed }

// IsIgnored implements convention.IgnoreSet for member names.
func (et *EntityType) IsIgnored(name string) bool { return et.ignored[name] }

func (et *EntityType) String() string { return et.name }

func (et *EntityType) Name() string          { return et.name }
func (et *EntityType) Model() *Model         { return et.model }
func (et *EntityType) BaseType() *EntityType { return et.base }
func (et *EntityType) PrimaryKey() *Key      { return et.primaryKey }

func (et *EntityType) Properties() []*Property            { return slices.Clone(et.properties) }
func (et *EntityType) Keys() []*Key                       { return slices.Clone(et.keys) }
func (et *EntityType) Indexes() []*Index                  { return slices.Clone(et.indexes) }
func (et *EntityType) ForeignKeys() []*ForeignKey         { return slices.Clone(et.foreignKeys) }
func (et *EntityType) Navigations() []*Navigation         { return slices.Clone(et.navigations) }
func (et *EntityType) SkipNavigations() []*SkipNavigation { return slices.Clone(et.skipNavigations) }

// ReferencingForeignKeys returns the foreign keys whose principal is et.
func (et *EntityType) ReferencingForeignKeys() []*ForeignKey { return slices.Clone(et.referencing) }

// IgnoredMembers returns the ignored member names, sorted.
func (et *EntityType) IgnoredMembers() []string {
	out := make([]string, 0, len(et.ignored))
	for name := range et.ignored {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Property returns the property called name declared on et, or nil.
func (et *EntityType) Property(name string) *Property {
	for _, p := range et.properties {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Navigation returns the navigation called name declared on et, or nil.
func (et *EntityType) Navigation(name string) *Navigation {
	for _, n := range et.navigations {
		if n.name == name {
			return n
		}
	}
	return nil
}

// SkipNavigation returns the skip navigation called name, or nil.
func (et *EntityType) SkipNavigation(name string) *SkipNavigation {
	for _, n := range et.skipNavigations {
		if n.name == name {
			return n
		}
	}
	return nil
}

// FindKey returns the key over exactly props, or nil.
func (et *EntityType) FindKey(props []*Property) *Key {
	for _, k := range et.keys {
		if slices.Equal(k.properties, props) {
			return k
		}
	}
	return nil
}

// FindIndex returns the index over exactly props, or nil.
func (et *EntityType) FindIndex(props []*Property) *Index {
	for _, ix := range et.indexes {
		if slices.Equal(ix.properties, props) {
			return ix
		}
	}
	return nil
}

// AddProperty adds a property, or returns the existing one. Adding a name
// clears a previous member ignore.
func (et *EntityType) AddProperty(name, clrType string) (*Property, error) {
	return et.addProperty(name, clrType, false)
}

// AddShadowProperty adds a property with no backing member on the type.
func (et *EntityType) AddShadowProperty(name, clrType string) (*Property, error) {
	return et.addProperty(name, clrType, true)
}

func (et *EntityType) addProperty(name, clrType string, shadow bool) (*Property, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("add property to %s: empty name: %w", et.name, ErrInvalid)
	}
	if p := et.Property(name); p != nil {
		return p, nil
	}

	delete(et.ignored, name)
	p := &Property{declaring: et, name: name, clrType: clrType, shadow: shadow, nullable: IsNullableType(clrType)}
	et.properties = append(et.properties, p)

	res, err := et.model.d.OnPropertyAdded(et, p)
	if err != nil {
		return nil, fmt.Errorf("add property %s.%s: %w", et.name, name, err)
	}
	added, _ := res.(*Property)
	return added, nil
}

// RemoveProperty removes p together with the keys, indexes and foreign keys
// that use it.
func (et *EntityType) RemoveProperty(p *Property) error {
	if err := et.mutable(); err != nil {
		return err
	}
	if p.declaring != et || !p.InModel() {
		return fmt.Errorf("remove property %s: %w", p, ErrNotInModel)
	}

	err := et.model.d.Batch(func() error {
		for _, fk := range slices.Clone(et.foreignKeys) {
			if slices.Contains(fk.properties, p) {
				if err := et.RemoveForeignKey(fk); err != nil {
					return err
				}
			}
		}
		for _, ix := range slices.Clone(et.indexes) {
			if slices.Contains(ix.properties, p) {
				if err := et.RemoveIndex(ix); err != nil {
					return err
				}
			}
		}
		for _, k := range slices.Clone(et.keys) {
			if slices.Contains(k.properties, p) {
				if err := et.RemoveKey(k); err != nil {
					return err
				}
			}
		}

		p.removed = true
		et.properties = slices.DeleteFunc(et.properties, func(x *Property) bool { return x == p })
		_, err := et.model.d.OnPropertyRemoved(et, p)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove property %s: %w", p, err)
	}
	return nil
}

// IgnoreMember excludes name from et. The member itself is removed by
// plugins reacting to the notification.
func (et *EntityType) IgnoreMember(name string) error {
	if err := et.mutable(); err != nil {
		return err
	}
	et.ignored[name] = true
	if _, _, err := et.model.d.OnEntityTypeMemberIgnored(et, name); err != nil {
		return fmt.Errorf("ignore %s.%s: %w", et.name, name, err)
	}
	return nil
}

// SetBaseType makes et derive from base; nil clears it.
func (et *EntityType) SetBaseType(base *EntityType) error {
	if err := et.mutable(); err != nil {
		return err
	}
	if base == et.base {
		return nil
	}
	for b := base; b != nil; b = b.base {
		if b == et {
			return fmt.Errorf("set base type of %s to %s: cycle: %w", et.name, base.name, ErrInvalid)
		}
	}

	old := et.base
	et.base = base
	if _, err := et.model.d.OnEntityTypeBaseTypeChanged(et, entityElement(base), entityElement(old)); err != nil {
		return fmt.Errorf("set base type of %s: %w", et.name, err)
	}
	return nil
}

// RootType returns the top of et's hierarchy.
func (et *EntityType) RootType() *EntityType {
	root := et
	for root.base != nil {
		root = root.base
	}
	return root
}

// FindPrimaryKey returns the primary key declared on et or inherited.
func (et *EntityType) FindPrimaryKey() *Key {
	for t := et; t != nil; t = t.base {
		if t.primaryKey != nil {
			return t.primaryKey
		}
	}
	return nil
}

// SetPrimaryKey makes the key over props primary, adding it if needed. An
// empty props clears the primary key.
func (et *EntityType) SetPrimaryKey(props ...*Property) (*Key, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}

	var key *Key
	if len(props) > 0 {
		key = et.FindKey(props)
		if key == nil {
			added, err := et.AddKey(props...)
			if err != nil {
				return nil, err
			}
			if added == nil {
				return nil, nil
			}
			key = added
		}
	}
	if key == et.primaryKey {
		return key, nil
	}

	old := et.primaryKey
	et.primaryKey = key
	res, err := et.model.d.OnEntityTypePrimaryKeyChanged(et, keyElement(key), keyElement(old))
	if err != nil {
		return nil, fmt.Errorf("set primary key of %s: %w", et.name, err)
	}
	settled, _ := res.(*Key)
	return settled, nil
}

// AddKey adds an alternate key over props, or returns the existing one.
func (et *EntityType) AddKey(props ...*Property) (*Key, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}
	if err := et.ownsAll(props); err != nil {
		return nil, fmt.Errorf("add key to %s: %w", et.name, err)
	}
	if k := et.FindKey(props); k != nil {
		return k, nil
	}

	k := &Key{declaring: et, properties: slices.Clone(props)}
	et.keys = append(et.keys, k)

	res, err := et.model.d.OnKeyAdded(et, k)
	if err != nil {
		return nil, fmt.Errorf("add key %s: %w", k, err)
	}
	added, _ := res.(*Key)
	return added, nil
}

// RemoveKey removes k along with the foreign keys that reference it.
func (et *EntityType) RemoveKey(k *Key) error {
	if err := et.mutable(); err != nil {
		return err
	}
	if k.declaring != et || !k.InModel() {
		return fmt.Errorf("remove key %s: %w", k, ErrNotInModel)
	}

	err := et.model.d.Batch(func() error {
		for _, fk := range slices.Clone(et.referencing) {
			if fk.principalKey == k {
				if err := fk.dependent.RemoveForeignKey(fk); err != nil {
					return err
				}
			}
		}
		if et.primaryKey == k {
			et.primaryKey = nil
			if _, err := et.model.d.OnEntityTypePrimaryKeyChanged(et, nil, k); err != nil {
				return err
			}
		}
		k.removed = true
		et.keys = slices.DeleteFunc(et.keys, func(x *Key) bool { return x == k })
		_, err := et.model.d.OnKeyRemoved(et, k)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove key %s: %w", k, err)
	}
	return nil
}

// AddIndex adds an index over props, or returns the existing one.
func (et *EntityType) AddIndex(props ...*Property) (*Index, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}
	if err := et.ownsAll(props); err != nil {
		return nil, fmt.Errorf("add index to %s: %w", et.name, err)
	}
	if ix := et.FindIndex(props); ix != nil {
		return ix, nil
	}

	ix := &Index{declaring: et, properties: slices.Clone(props)}
	et.indexes = append(et.indexes, ix)

	res, err := et.model.d.OnIndexAdded(et, ix)
	if err != nil {
		return nil, fmt.Errorf("add index %s: %w", ix, err)
	}
	added, _ := res.(*Index)
	return added, nil
}

// RemoveIndex removes ix.
func (et *EntityType) RemoveIndex(ix *Index) error {
	if err := et.mutable(); err != nil {
		return err
	}
	if ix.declaring != et || !ix.InModel() {
		return fmt.Errorf("remove index %s: %w", ix, ErrNotInModel)
	}
	ix.removed = true
	et.indexes = slices.DeleteFunc(et.indexes, func(x *Index) bool { return x == ix })
	if _, err := et.model.d.OnIndexRemoved(et, ix); err != nil {
		return fmt.Errorf("remove index %s: %w", ix, err)
	}
	return nil
}

// SetAnnotation sets an annotation on et.
func (et *EntityType) SetAnnotation(name string, value any) (*convention.Annotation, error) {
	if err := et.mutable(); err != nil {
		return nil, err
	}
	current, old := et.put(name, value)
	return et.model.d.OnEntityTypeAnnotationChanged(et, name, current, old)
}

func (et *EntityType) ownsAll(props []*Property) error {
	if len(props) == 0 {
		return fmt.Errorf("no properties: %w", ErrInvalid)
	}
	for _, p := range props {
		if p == nil || !p.InModel() {
			return fmt.Errorf("property %v: %w", p, ErrNotInModel)
		}
		if p.declaring != et {
			return fmt.Errorf("property %s is declared on %s: %w", p, p.declaring.name, ErrInvalid)
		}
	}
	return nil
}

func (et *EntityType) mutable() error {
	if err := et.model.mutable(); err != nil {
		return err
	}
	if et.removed {
		return fmt.Errorf("%s: %w", et.name, ErrNotInModel)
	}
	return nil
}

// The dispatcher reads a nil element as "none"; a typed nil pointer would
// not compare equal to nil, so these helpers convert explicitly.

func entityElement(et *EntityType) convention.Element {
	if et == nil {
		return nil
	}
	return et
}

func keyElement(k *Key) convention.Element {
	if k == nil {
		return nil
	}
	return k
}

func foreignKeyElement(fk *ForeignKey) convention.Element {
	if fk == nil {
		return nil
	}
	return fk
}

func skipNavigationElement(n *SkipNavigation) convention.Element {
	if n == nil {
		return nil
	}
	return n
}
