package metadata

import (
	"slices"
	"strings"

	"github.com/roach88/conventions/internal/convention"
)

// annotations is the annotation bag embedded in every element.
type annotations struct {
	values map[string]*convention.Annotation
}

// Annotation returns the annotation called name.
func (a *annotations) Annotation(name string) (*convention.Annotation, bool) {
	v, ok := a.values[name]
	return v, ok
}

// AnnotationValue returns the value of the annotation called name, or nil.
func (a *annotations) AnnotationValue(name string) any {
	if v, ok := a.values[name]; ok {
		return v.Value
	}
	return nil
}

// Annotations returns all annotations sorted by name.
func (a *annotations) Annotations() []*convention.Annotation {
	out := make([]*convention.Annotation, 0, len(a.values))
	for _, v := range a.values {
		out = append(out, v)
	}
	slices.SortFunc(out, func(x, y *convention.Annotation) int {
		return strings.Compare(x.Name, y.Name)
	})
	return out
}

func (a *annotations) put(name string, value any) (current, old *convention.Annotation) {
	if a.values == nil {
		a.values = make(map[string]*convention.Annotation)
	}
	old = a.values[name]
	current = &convention.Annotation{Name: name, Value: value}
	a.values[name] = current
	return current, old
}

func (a *annotations) drop(name string) *convention.Annotation {
	old, ok := a.values[name]
	if !ok {
		return nil
	}
	delete(a.values, name)
	return old
}
