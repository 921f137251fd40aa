package rules

import (
	"strings"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/ir"
	"github.com/roach88/conventions/internal/metadata"
)

// KeyDiscovery makes a property called "Id" or "<Type>Id" the primary key
// of a root entity type. Derived types share their root's key and never
// keep one of their own. Keyless types are left alone.
type KeyDiscovery struct{}

func (KeyDiscovery) Name() string { return "KeyDiscovery" }

func (r KeyDiscovery) Process(_ *convention.Context, ev convention.Event) error {
	switch e := ev.(type) {
	case convention.ElementAdded:
		switch el := e.Element.(type) {
		case *metadata.EntityType:
			return r.discover(el)
		case *metadata.Property:
			return r.discover(el.DeclaringType())
		}
	case convention.ElementRemoved:
		if et, ok := e.Owner.(*metadata.EntityType); ok {
			return r.discover(et)
		}
	case convention.ElementChanged:
		et, ok := e.Element.(*metadata.EntityType)
		if !ok {
			return nil
		}
		if e.EventKind == convention.KindEntityTypePrimaryKeyChanged {
			return r.dropDiscovered(et, e.Old)
		}
		return r.discover(et)
	case convention.AnnotationChanged:
		if et, ok := e.Element.(*metadata.EntityType); ok && e.Name == metadata.AnnotationKeyless {
			return r.discover(et)
		}
	}
	return nil
}

func (r KeyDiscovery) discover(et *metadata.EntityType) error {
	if !et.InModel() {
		return nil
	}
	if et.BaseType() != nil {
		if et.PrimaryKey() != nil {
			_, err := et.SetPrimaryKey()
			return err
		}
		return nil
	}
	if isKeyless(et) || et.PrimaryKey() != nil {
		return nil
	}
	p := keyCandidate(et)
	if p == nil {
		return nil
	}
	_, err := et.SetPrimaryKey(p)
	return err
}

// dropDiscovered removes the key the primary key moved away from when that
// key was the conventional one and nothing references it.
func (r KeyDiscovery) dropDiscovered(et *metadata.EntityType, old convention.Element) error {
	key, ok := old.(*metadata.Key)
	if !ok || !key.InModel() || key.IsPrimary() || et.PrimaryKey() == nil {
		return nil
	}
	props := key.Properties()
	if len(props) != 1 || props[0] != keyCandidate(et) {
		return nil
	}
	for _, fk := range et.ReferencingForeignKeys() {
		if fk.PrincipalKey() == key {
			return nil
		}
	}
	return et.RemoveKey(key)
}

func keyCandidate(et *metadata.EntityType) *metadata.Property {
	byType := et.Name() + "Id"
	var typed *metadata.Property
	for _, p := range et.Properties() {
		if p.IsShadow() {
			continue
		}
		if strings.EqualFold(p.Name(), "Id") {
			return p
		}
		if strings.EqualFold(p.Name(), byType) {
			typed = p
		}
	}
	return typed
}

func isKeyless(et *metadata.EntityType) bool {
	return truthy(et.AnnotationValue(metadata.AnnotationKeyless))
}

func truthy(v any) bool {
	switch b := v.(type) {
	case ir.Bool:
		return bool(b)
	case bool:
		return b
	}
	return false
}
