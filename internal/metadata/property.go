package metadata

import (
	"fmt"
	"strings"

	"github.com/roach88/conventions/internal/convention"
)

// Property is a scalar member of an entity type.
type Property struct {
	annotations

	declaring *EntityType
	name      string
	clrType   string
	nullable  bool
	shadow    bool
	field     string
	removed   bool
}

// InModel implements convention.Element.
func (p *Property) InModel() bool { return !p.removed && p.declaring.InModel() }

func (p *Property) String() string { return p.declaring.name + "." + p.name }

func (p *Property) Name() string               { return p.name }
func (p *Property) Type() string               { return p.clrType }
func (p *Property) DeclaringType() *EntityType { return p.declaring }
func (p *Property) IsShadow() bool             { return p.shadow }
func (p *Property) Field() string              { return p.field }

// IsNullable reports whether the property accepts null. Key properties
// never do.
func (p *Property) IsNullable() bool { return p.nullable && !p.IsKey() }

// IsKey reports whether p is part of any key of its type.
func (p *Property) IsKey() bool {
	for _, k := range p.declaring.keys {
		for _, kp := range k.properties {
			if kp == p {
				return true
			}
		}
	}
	return false
}

// IsForeignKey reports whether p is part of a foreign key of its type.
func (p *Property) IsForeignKey() bool {
	for _, fk := range p.declaring.foreignKeys {
		for _, fp := range fk.properties {
			if fp == p {
				return true
			}
		}
	}
	return false
}

// Flag implements convention.Flagged.
func (p *Property) Flag(k convention.Kind) bool {
	if k == convention.KindPropertyNullabilityChanged {
		return p.IsNullable()
	}
	return false
}

// SetNullable changes nullability and returns the settled value.
func (p *Property) SetNullable(nullable bool) (bool, error) {
	if err := p.mutable(); err != nil {
		return false, err
	}
	if p.nullable == nullable {
		return p.IsNullable(), nil
	}
	p.nullable = nullable
	v, _, err := p.declaring.model.d.OnPropertyNullabilityChanged(p, p.declaring)
	if err != nil {
		return false, fmt.Errorf("set nullability of %s: %w", p, err)
	}
	return v, nil
}

// SetField sets the backing field name.
func (p *Property) SetField(field string) error {
	if err := p.mutable(); err != nil {
		return err
	}
	if p.field == field {
		return nil
	}
	old := p.field
	p.field = field
	if _, _, err := p.declaring.model.d.OnPropertyFieldChanged(p.declaring, p, field, old); err != nil {
		return fmt.Errorf("set field of %s: %w", p, err)
	}
	return nil
}

// SetAnnotation sets an annotation on p.
func (p *Property) SetAnnotation(name string, value any) (*convention.Annotation, error) {
	if err := p.mutable(); err != nil {
		return nil, err
	}
	current, old := p.put(name, value)
	return p.declaring.model.d.OnPropertyAnnotationChanged(p, name, current, old)
}

func (p *Property) mutable() error {
	if err := p.declaring.model.mutable(); err != nil {
		return err
	}
	if !p.InModel() {
		return fmt.Errorf("%s: %w", p, ErrNotInModel)
	}
	return nil
}

// IsNullableType reports whether values of clrType can be null: pointers,
// slices, maps, string and bytes. Value types cannot.
func IsNullableType(clrType string) bool {
	switch {
	case clrType == "string", clrType == "bytes":
		return true
	case strings.HasPrefix(clrType, "*"), strings.HasPrefix(clrType, "[]"), strings.HasPrefix(clrType, "map["):
		return true
	default:
		return false
	}
}

func propertyNames(props []*Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.name
	}
	return out
}
