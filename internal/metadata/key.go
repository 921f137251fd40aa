package metadata

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/conventions/internal/convention"
)

// Key is a set of properties uniquely identifying instances of a type.
type Key struct {
	annotations

	declaring  *EntityType
	properties []*Property
	removed    bool
}

// InModel implements convention.Element.
func (k *Key) InModel() bool { return !k.removed && k.declaring.InModel() }

func (k *Key) String() string {
	return fmt.Sprintf("%s{%s}", k.declaring.name, strings.Join(propertyNames(k.properties), ","))
}

func (k *Key) DeclaringType() *EntityType { return k.declaring }
func (k *Key) Properties() []*Property    { return slices.Clone(k.properties) }

// IsPrimary reports whether k is the primary key of its type.
func (k *Key) IsPrimary() bool { return k.declaring.primaryKey == k }

// SetAnnotation sets an annotation on k.
func (k *Key) SetAnnotation(name string, value any) (*convention.Annotation, error) {
	if err := k.declaring.mutable(); err != nil {
		return nil, err
	}
	current, old := k.put(name, value)
	return k.declaring.model.d.OnKeyAnnotationChanged(k, name, current, old)
}

// Index speeds up lookups over a set of properties.
type Index struct {
	annotations

	declaring  *EntityType
	properties []*Property
	unique     bool
	removed    bool
}

// InModel implements convention.Element.
func (ix *Index) InModel() bool { return !ix.removed && ix.declaring.InModel() }

func (ix *Index) String() string {
	return fmt.Sprintf("IX %s{%s}", ix.declaring.name, strings.Join(propertyNames(ix.properties), ","))
}

func (ix *Index) DeclaringType() *EntityType { return ix.declaring }
func (ix *Index) Properties() []*Property    { return slices.Clone(ix.properties) }
func (ix *Index) IsUnique() bool             { return ix.unique }

// Flag implements convention.Flagged.
func (ix *Index) Flag(k convention.Kind) bool {
	if k == convention.KindIndexUniquenessChanged {
		return ix.unique
	}
	return false
}

// SetUnique changes uniqueness and returns the settled value.
func (ix *Index) SetUnique(unique bool) (bool, error) {
	if err := ix.declaring.mutable(); err != nil {
		return false, err
	}
	if !ix.InModel() {
		return false, fmt.Errorf("%s: %w", ix, ErrNotInModel)
	}
	if ix.unique == unique {
		return unique, nil
	}
	ix.unique = unique
	v, _, err := ix.declaring.model.d.OnIndexUniquenessChanged(ix)
	if err != nil {
		return false, fmt.Errorf("set uniqueness of %s: %w", ix, err)
	}
	return v, nil
}

// SetAnnotation sets an annotation on ix.
func (ix *Index) SetAnnotation(name string, value any) (*convention.Annotation, error) {
	if err := ix.declaring.mutable(); err != nil {
		return nil, err
	}
	current, old := ix.put(name, value)
	return ix.declaring.model.d.OnIndexAnnotationChanged(ix, name, current, old)
}
