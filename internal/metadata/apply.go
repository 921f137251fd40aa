package metadata

import (
	"fmt"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/ir"
)

// Well-known annotation names set by Apply and read by conventions.
const (
	AnnotationRequired       = "Required"
	AnnotationKeyless        = "Keyless"
	AnnotationProductVersion = "ProductVersion"
)

// Apply builds spec into m, in the order a hand-written model builder would:
// entity types and their members, base types, explicit keys, indexes,
// relationships, many-to-many navigations. Every step settles before the
// next one starts, so conventions see a consistent graph.
//
// Apply does not initialize or finalize m.
func Apply(m *Model, spec *ir.ModelSpec) error {
	if spec == nil {
		return fmt.Errorf("apply: nil spec: %w", ErrInvalid)
	}
	for _, name := range spec.Ignored {
		if err := m.Ignore(name); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	for _, k := range ir.Object(spec.Annotations).SortedKeys() {
		if _, err := m.SetAnnotation(k, spec.Annotations[k]); err != nil {
			return fmt.Errorf("apply: model annotation %q: %w", k, err)
		}
	}

	for i := range spec.Entities {
		if err := applyEntity(m, &spec.Entities[i]); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	for i := range spec.Entities {
		if err := applyBase(m, &spec.Entities[i]); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	for i := range spec.Entities {
		if err := applyKeys(m, &spec.Entities[i]); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	for i := range spec.Entities {
		if err := applyIndexes(m, &spec.Entities[i]); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	for i := range spec.Entities {
		es := &spec.Entities[i]
		for j := range es.Relationships {
			if err := applyRelationship(m, es.Name, &es.Relationships[j]); err != nil {
				return fmt.Errorf("apply: %w", err)
			}
		}
	}
	for i := range spec.Entities {
		es := &spec.Entities[i]
		for j := range es.ManyToMany {
			if err := applyManyToMany(m, es.Name, &es.ManyToMany[j]); err != nil {
				return fmt.Errorf("apply: %w", err)
			}
		}
	}
	return nil
}

func applyEntity(m *Model, es *ir.EntitySpec) error {
	et, err := m.AddEntityType(es.Name)
	if err != nil {
		return err
	}
	if et == nil {
		// A convention rejected the type; members have nowhere to go.
		return nil
	}
	for _, k := range ir.Object(es.Annotations).SortedKeys() {
		if _, err := et.SetAnnotation(k, es.Annotations[k]); err != nil {
			return fmt.Errorf("%s annotation %q: %w", es.Name, k, err)
		}
	}
	if es.Keyless {
		if _, err := et.SetAnnotation(AnnotationKeyless, ir.Bool(true)); err != nil {
			return err
		}
	}

	for _, ps := range es.Properties {
		p, err := et.AddProperty(ps.Name, ps.Type)
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		if ps.Field != "" {
			if err := p.SetField(ps.Field); err != nil {
				return err
			}
		}
		if ps.Required {
			if _, err := p.SetAnnotation(AnnotationRequired, ir.Bool(true)); err != nil {
				return err
			}
		}
		for _, k := range ir.Object(ps.Annotations).SortedKeys() {
			if !p.InModel() {
				break
			}
			if _, err := p.SetAnnotation(k, ps.Annotations[k]); err != nil {
				return fmt.Errorf("%s annotation %q: %w", p, k, err)
			}
		}
	}

	for _, name := range es.Ignore {
		if !et.InModel() {
			break
		}
		if err := et.IgnoreMember(name); err != nil {
			return err
		}
	}
	return nil
}

func applyBase(m *Model, es *ir.EntitySpec) error {
	if es.Base == "" {
		return nil
	}
	et := m.EntityType(es.Name)
	if et == nil {
		return nil
	}
	base := m.EntityType(es.Base)
	if base == nil {
		return fmt.Errorf("%s: base type %q: %w", es.Name, es.Base, ErrNotFound)
	}
	return et.SetBaseType(base)
}

func applyKeys(m *Model, es *ir.EntitySpec) error {
	if len(es.Key) == 0 {
		return nil
	}
	et := m.EntityType(es.Name)
	if et == nil {
		return nil
	}
	props, err := lookupProperties(et, es.Key)
	if err != nil {
		return fmt.Errorf("%s key: %w", es.Name, err)
	}
	_, err = et.SetPrimaryKey(props...)
	return err
}

func applyIndexes(m *Model, es *ir.EntitySpec) error {
	et := m.EntityType(es.Name)
	if et == nil {
		return nil
	}
	for _, is := range es.Indexes {
		props, err := lookupProperties(et, is.Properties)
		if err != nil {
			return fmt.Errorf("%s index: %w", es.Name, err)
		}
		ix, err := et.AddIndex(props...)
		if err != nil {
			return err
		}
		if ix != nil && is.Unique {
			if _, err := ix.SetUnique(true); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyRelationship(m *Model, declaring string, rs *ir.RelationshipSpec) error {
	dependent := m.EntityType(declaring)
	if dependent == nil {
		return nil
	}
	if dependent.IsIgnored(rs.Navigation) {
		return nil
	}
	principal := m.EntityType(rs.Target)
	if principal == nil {
		if m.IsIgnored(rs.Target) {
			return nil
		}
		return fmt.Errorf("%s.%s: target %q: %w", declaring, rs.Navigation, rs.Target, ErrNotFound)
	}
	if principal.BaseType() != nil {
		return fmt.Errorf("%s.%s: target %s is a derived type: %w", declaring, rs.Navigation, rs.Target, ErrInvalid)
	}
	key := principal.PrimaryKey()
	if key == nil {
		return fmt.Errorf("%s.%s: target %s has no primary key: %w", declaring, rs.Navigation, rs.Target, ErrInvalid)
	}

	var props []*Property
	var err error
	if len(rs.ForeignKey) > 0 {
		props, err = lookupProperties(dependent, rs.ForeignKey)
	} else {
		props, err = shadowForeignKey(dependent, rs, key)
	}
	if err != nil {
		return fmt.Errorf("%s.%s: %w", declaring, rs.Navigation, err)
	}

	fk, err := dependent.AddForeignKey(props, key)
	if err != nil || fk == nil {
		return err
	}

	d := m.Dispatcher()
	_, err = d.Track(fk, func() error {
		if _, err := dependent.AddNavigation(rs.Navigation, fk, true); err != nil {
			return err
		}
		if rs.Unique {
			if _, err := fk.SetUnique(true); err != nil {
				return err
			}
		}
		if rs.Inverse != "" {
			if _, err := principal.AddNavigation(rs.Inverse, fk, false); err != nil {
				return err
			}
		}
		if rs.Required {
			if _, err := fk.SetRequired(true); err != nil {
				return err
			}
		}
		if rs.Owned {
			if _, err := fk.SetOwnership(true); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// shadowForeignKey creates one shadow property per principal key property,
// named <Navigation><KeyProperty>. An optional relationship gets pointer
// types so the foreign key starts out nullable.
func shadowForeignKey(et *EntityType, rs *ir.RelationshipSpec, key *Key) ([]*Property, error) {
	props := make([]*Property, 0, len(key.properties))
	for _, kp := range key.properties {
		name := uniqueMemberName(et, rs.Navigation+kp.name)
		typ := kp.clrType
		if !rs.Required && !IsNullableType(typ) {
			typ = "*" + typ
		}
		p, err := et.AddShadowProperty(name, typ)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("shadow property %s.%s was rejected: %w", et.name, name, ErrInvalid)
		}
		props = append(props, p)
	}
	return props, nil
}

func uniqueMemberName(et *EntityType, name string) string {
	candidate := name
	for i := 1; et.Property(candidate) != nil || et.Navigation(candidate) != nil || et.SkipNavigation(candidate) != nil; i++ {
		candidate = fmt.Sprintf("%s%d", name, i)
	}
	return candidate
}

func applyManyToMany(m *Model, declaring string, ss *ir.SkipNavigationSpec) error {
	et := m.EntityType(declaring)
	if et == nil {
		return nil
	}
	target := m.EntityType(ss.Target)
	if target == nil {
		if m.IsIgnored(ss.Target) {
			return nil
		}
		return fmt.Errorf("%s.%s: target %q: %w", declaring, ss.Navigation, ss.Target, ErrNotFound)
	}

	return m.Dispatcher().Batch(func() error {
		nav, err := et.AddSkipNavigation(ss.Navigation, target)
		if err != nil || nav == nil || ss.Inverse == "" {
			return err
		}
		inverse, err := target.AddSkipNavigation(ss.Inverse, et)
		if err != nil || inverse == nil {
			return err
		}
		if err := nav.SetInverse(inverse); err != nil {
			return err
		}
		return inverse.SetInverse(nav)
	})
}

func lookupProperties(et *EntityType, names []string) ([]*Property, error) {
	props := make([]*Property, 0, len(names))
	for _, name := range names {
		p := et.Property(name)
		if p == nil {
			return nil, fmt.Errorf("property %s.%s: %w", et.name, name, ErrNotFound)
		}
		props = append(props, p)
	}
	return props, nil
}

// annotationValue converts a stored annotation value for a snapshot.
func annotationValue(a *convention.Annotation) ir.Value {
	if v, err := ir.ValueOf(a.Value); err == nil {
		return v
	}
	return ir.String(fmt.Sprint(a.Value))
}
