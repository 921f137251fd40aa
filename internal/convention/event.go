package convention

import "fmt"

// Element is any node of the schema graph. InModel is the liveness flag: it
// turns false once the node has been removed from, or replaced in, the graph.
type Element interface {
	InModel() bool
}

// IgnoreSet is an element that remembers names explicitly excluded from the
// model (the model itself, or an entity type for its members).
type IgnoreSet interface {
	Element
	IsIgnored(name string) bool
}

// Relationship is the read-only view of a foreign key the dispatcher needs.
type Relationship interface {
	Element
	Dependent() Element
	Principal() Element
	PropertyList() []Element
}

// Flagged is an element with boolean facets. Flag returns the current value
// of the facet announced by kind k.
type Flagged interface {
	Element
	Flag(k Kind) bool
}

// Annotation is a named value attached to an element.
type Annotation struct {
	Name  string
	Value any
}

// Event is a single notification. The set of implementations is closed: one
// struct per Shape, each carrying its Kind tag and captured arguments.
type Event interface {
	Kind() Kind
	Shape() Shape

	// subject is the initial candidate result. It is re-read after each
	// plugin by the debug contract check.
	subject() any
	// live reports whether the governing elements are still in the model.
	live() bool
	// settle computes the result of a chain that ran to the end without
	// being stopped; nil means invalidated.
	settle(result any) any
}

// ModelEvent announces a model lifecycle step.
type ModelEvent struct {
	EventKind Kind
	Model     IgnoreSet
}

func (e ModelEvent) Kind() Kind   { return e.EventKind }
func (e ModelEvent) Shape() Shape { return ShapeModel }
func (e ModelEvent) subject() any { return elementValue(e.Model) }
func (e ModelEvent) live() bool   { return e.Model != nil && e.Model.InModel() }
func (e ModelEvent) settle(result any) any {
	if !e.live() {
		return nil
	}
	return result
}

// ElementAdded announces a new element. Owners are the elements that must
// stay live for the notification to matter (declaring type, principal type).
type ElementAdded struct {
	EventKind Kind
	Owners    []Element
	Element   Element
}

func (e ElementAdded) Kind() Kind   { return e.EventKind }
func (e ElementAdded) Shape() Shape { return ShapeElementAdded }
func (e ElementAdded) subject() any { return elementValue(e.Element) }
func (e ElementAdded) live() bool {
	return allLive(e.Owners) && e.Element != nil && e.Element.InModel()
}
func (e ElementAdded) settle(result any) any {
	if !e.live() {
		return nil
	}
	return result
}

// ElementRemoved announces that Element left Owner. The removed element is
// never live; only the owner governs the chain.
type ElementRemoved struct {
	EventKind Kind
	Owner     Element
	Element   Element
}

func (e ElementRemoved) Kind() Kind   { return e.EventKind }
func (e ElementRemoved) Shape() Shape { return ShapeElementRemoved }
func (e ElementRemoved) subject() any { return elementValue(e.Element) }
func (e ElementRemoved) live() bool   { return e.Owner != nil && e.Owner.InModel() }
func (e ElementRemoved) settle(result any) any {
	if !e.live() {
		return nil
	}
	return result
}

// NameEvent carries a member name: an ignored type or member, or the name of
// a removed navigation. Target is the navigation's target type, if any.
type NameEvent struct {
	EventKind Kind
	Owner     Element
	Target    Element
	Name      string
}

func (e NameEvent) Kind() Kind   { return e.EventKind }
func (e NameEvent) Shape() Shape { return ShapeName }
func (e NameEvent) subject() any { return e.Name }
func (e NameEvent) live() bool {
	if e.Owner == nil || !e.Owner.InModel() {
		return false
	}
	switch e.EventKind {
	case KindEntityTypeIgnored, KindEntityTypeMemberIgnored:
		// An ignore that was undone by an earlier plugin is no longer news.
		if set, ok := e.Owner.(IgnoreSet); ok {
			return set.IsIgnored(e.Name)
		}
	}
	return true
}
func (e NameEvent) settle(result any) any {
	if !e.live() {
		return nil
	}
	return result
}

// AnnotationChanged announces that annotation Name on Element was set,
// replaced or removed. Annotation is nil on removal.
type AnnotationChanged struct {
	EventKind  Kind
	Element    Element
	Name       string
	Annotation *Annotation
	Old        *Annotation
}

func (e AnnotationChanged) Kind() Kind   { return e.EventKind }
func (e AnnotationChanged) Shape() Shape { return ShapeAnnotation }
func (e AnnotationChanged) subject() any {
	if e.Annotation == nil {
		return nil
	}
	return e.Annotation
}
func (e AnnotationChanged) live() bool { return e.Element != nil && e.Element.InModel() }
func (e AnnotationChanged) settle(result any) any {
	if !e.live() {
		return nil
	}
	return result
}

// FlagChanged announces that a boolean facet of Element changed. Owner, when
// set, is the declaring type that must also stay live.
type FlagChanged struct {
	EventKind Kind
	Element   Flagged
	Owner     Element
}

func (e FlagChanged) Kind() Kind   { return e.EventKind }
func (e FlagChanged) Shape() Shape { return ShapeFlag }
func (e FlagChanged) subject() any {
	if e.Element == nil {
		return nil
	}
	return e.Element.Flag(e.EventKind)
}
func (e FlagChanged) live() bool {
	if e.Owner != nil && !e.Owner.InModel() {
		return false
	}
	return e.Element != nil && e.Element.InModel()
}
func (e FlagChanged) settle(result any) any {
	if !e.live() {
		return nil
	}
	return result
}

// ElementChanged announces that a single-valued reference of Element moved
// from Old to New: base type, primary key, principal end, skip navigation
// foreign key or inverse.
type ElementChanged struct {
	EventKind Kind
	Element   Element
	New       Element
	Old       Element
}

func (e ElementChanged) Kind() Kind   { return e.EventKind }
func (e ElementChanged) Shape() Shape { return ShapeElementChanged }
func (e ElementChanged) subject() any { return elementValue(e.New) }
func (e ElementChanged) live() bool   { return e.Element != nil && e.Element.InModel() }
func (e ElementChanged) settle(result any) any {
	if !e.live() {
		return nil
	}
	if e.New != nil && !e.New.InModel() {
		return nil
	}
	return result
}

// PropertiesChanged announces that the dependent properties of ForeignKey
// changed. The subject is the live property list.
type PropertiesChanged struct {
	EventKind       Kind
	ForeignKey      Relationship
	OldProperties   []Element
	OldPrincipalKey Element
}

func (e PropertiesChanged) Kind() Kind   { return e.EventKind }
func (e PropertiesChanged) Shape() Shape { return ShapeProperties }
func (e PropertiesChanged) subject() any {
	if e.ForeignKey == nil {
		return nil
	}
	return e.ForeignKey.PropertyList()
}
func (e PropertiesChanged) live() bool   { return e.ForeignKey != nil && e.ForeignKey.InModel() }
func (e PropertiesChanged) settle(any) any {
	if !e.live() {
		return nil
	}
	return e.ForeignKey.PropertyList()
}

// FieldChanged announces that the backing field of Property changed.
type FieldChanged struct {
	EventKind Kind
	Property  Element
	Owner     Element
	Field     string
	OldField  string
}

func (e FieldChanged) Kind() Kind   { return e.EventKind }
func (e FieldChanged) Shape() Shape { return ShapeField }
func (e FieldChanged) subject() any { return e.Field }
func (e FieldChanged) live() bool {
	if e.Owner != nil && !e.Owner.InModel() {
		return false
	}
	return e.Property != nil && e.Property.InModel()
}
func (e FieldChanged) settle(result any) any {
	if !e.live() {
		return nil
	}
	return result
}

// checkShape rejects events whose tag does not belong to their shape.
func checkShape(ev Event) error {
	if ev == nil {
		return newInvalidEventError(KindInvalid, "nil event")
	}
	k := ev.Kind()
	if !k.Valid() {
		return newInvalidEventError(k, fmt.Sprintf("invalid kind %d", int(k)))
	}
	if k.Shape() != ev.Shape() {
		return newInvalidEventError(k, fmt.Sprintf("kind %s cannot be carried by %T", k, ev))
	}
	return nil
}

// Describe renders a short label of the event for logs and traces.
func Describe(ev Event) string {
	if ev == nil {
		return "<nil>"
	}
	if s := Label(ev); s != "" {
		return fmt.Sprintf("%s(%s)", ev.Kind(), s)
	}
	return ev.Kind().String()
}

// Label renders the event's subject alone: the element, the annotation or
// field name, or the new flag value. It is empty for a nil subject.
func Label(ev Event) string {
	switch e := ev.(type) {
	case nil:
		return ""
	case NameEvent:
		return e.Name
	case AnnotationChanged:
		return e.Name
	case FieldChanged:
		return e.Field
	}
	return label(ev.subject())
}

func label(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case fmt.Stringer:
		return s.String()
	case bool:
		return fmt.Sprintf("%t", s)
	case string:
		return s
	case []Element:
		return fmt.Sprintf("%d properties", len(s))
	}
	return ""
}

// elementValue keeps a nil element a nil interface so it reads as
// invalidation rather than a typed nil.
func elementValue(el Element) any {
	if el == nil {
		return nil
	}
	return el
}

func allLive(els []Element) bool {
	for _, el := range els {
		if el == nil || !el.InModel() {
			return false
		}
	}
	return true
}
