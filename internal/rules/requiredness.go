package rules

import (
	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/metadata"
)

// Requiredness keeps nullability and foreign key requiredness in step:
//   - a property annotated Required is not nullable
//   - a foreign key is required when none of its properties is nullable
//   - a required foreign key makes its properties non-nullable; an optional
//     one makes them nullable where the type allows it
//   - the foreign key of an owned type is required
type Requiredness struct{}

func (Requiredness) Name() string { return "Requiredness" }

func (r Requiredness) Process(_ *convention.Context, ev convention.Event) error {
	switch e := ev.(type) {
	case convention.AnnotationChanged:
		p, ok := e.Element.(*metadata.Property)
		if !ok || e.Name != metadata.AnnotationRequired || e.Annotation == nil {
			return nil
		}
		if truthy(e.Annotation.Value) {
			_, err := p.SetNullable(false)
			return err
		}
	case convention.ElementAdded:
		if fk, ok := e.Element.(*metadata.ForeignKey); ok {
			return r.syncRequired(fk)
		}
	case convention.FlagChanged:
		switch el := e.Element.(type) {
		case *metadata.Property:
			for _, fk := range el.DeclaringType().ForeignKeys() {
				if !usesProperty(fk, el) {
					continue
				}
				if err := r.syncRequired(fk); err != nil {
					return err
				}
			}
		case *metadata.ForeignKey:
			if e.EventKind == convention.KindForeignKeyOwnershipChanged {
				if el.IsOwnership() && !el.IsRequired() {
					_, err := el.SetRequired(true)
					return err
				}
				return nil
			}
			return r.syncNullability(el)
		}
	}
	return nil
}

func (r Requiredness) syncRequired(fk *metadata.ForeignKey) error {
	if !fk.InModel() {
		return nil
	}
	required := true
	for _, p := range fk.Properties() {
		if p.IsNullable() {
			required = false
			break
		}
	}
	if fk.IsOwnership() {
		required = true
	}
	if fk.IsRequired() == required {
		return nil
	}
	_, err := fk.SetRequired(required)
	return err
}

func (r Requiredness) syncNullability(fk *metadata.ForeignKey) error {
	for _, p := range fk.Properties() {
		if !p.InModel() {
			continue
		}
		nullable := !fk.IsRequired() && metadata.IsNullableType(p.Type())
		if p.IsNullable() == nullable {
			continue
		}
		if _, err := p.SetNullable(nullable); err != nil {
			return err
		}
	}
	return nil
}

func usesProperty(fk *metadata.ForeignKey, p *metadata.Property) bool {
	for _, fp := range fk.Properties() {
		if fp == p {
			return true
		}
	}
	return false
}
