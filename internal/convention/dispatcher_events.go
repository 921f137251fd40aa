package convention

// Typed entry points, one per kind. Each builds the event and forwards to
// Dispatch. A nil element, nil annotation, nil list or false ok means the
// subject is no longer in the model. A plugin that stops with a value of the
// wrong type for the kind is read as invalidation as well; use Dispatch to
// observe raw results.

// OnModelInitialized runs the initialization plugins, each in its own batch.
func (d *Dispatcher) OnModelInitialized(model IgnoreSet) (Element, error) {
	return d.element(ModelEvent{EventKind: KindModelInitialized, Model: model})
}

// OnModelFinalizing runs the finalizing plugins, each in its own batch.
func (d *Dispatcher) OnModelFinalizing(model IgnoreSet) (Element, error) {
	return d.element(ModelEvent{EventKind: KindModelFinalizing, Model: model})
}

// OnModelFinalized runs the finalized chain.
func (d *Dispatcher) OnModelFinalized(model IgnoreSet) (Element, error) {
	return d.element(ModelEvent{EventKind: KindModelFinalized, Model: model})
}

func (d *Dispatcher) OnModelAnnotationChanged(model Element, name string, annotation, old *Annotation) (*Annotation, error) {
	return d.annotation(KindModelAnnotationChanged, model, name, annotation, old)
}

func (d *Dispatcher) OnEntityTypeAdded(model, entityType Element) (Element, error) {
	return d.added(KindEntityTypeAdded, entityType, model)
}

// OnEntityTypeIgnored announces that name was excluded from model. The chain
// is skipped once the name is no longer ignored.
func (d *Dispatcher) OnEntityTypeIgnored(model IgnoreSet, name string) (string, bool, error) {
	return d.name(NameEvent{EventKind: KindEntityTypeIgnored, Owner: model, Name: name})
}

func (d *Dispatcher) OnEntityTypeRemoved(model, entityType Element) (Element, error) {
	return d.removed(KindEntityTypeRemoved, model, entityType)
}

func (d *Dispatcher) OnEntityTypeMemberIgnored(entityType IgnoreSet, name string) (string, bool, error) {
	return d.name(NameEvent{EventKind: KindEntityTypeMemberIgnored, Owner: entityType, Name: name})
}

func (d *Dispatcher) OnEntityTypeBaseTypeChanged(entityType, newBase, oldBase Element) (Element, error) {
	return d.changed(KindEntityTypeBaseTypeChanged, entityType, newBase, oldBase)
}

func (d *Dispatcher) OnEntityTypePrimaryKeyChanged(entityType, newKey, oldKey Element) (Element, error) {
	return d.changed(KindEntityTypePrimaryKeyChanged, entityType, newKey, oldKey)
}

func (d *Dispatcher) OnEntityTypeAnnotationChanged(entityType Element, name string, annotation, old *Annotation) (*Annotation, error) {
	return d.annotation(KindEntityTypeAnnotationChanged, entityType, name, annotation, old)
}

// OnForeignKeyAdded requires both the dependent and the principal type to
// stay in the model.
func (d *Dispatcher) OnForeignKeyAdded(fk Relationship) (Element, error) {
	return d.added(KindForeignKeyAdded, fk, fk.Dependent(), fk.Principal())
}

func (d *Dispatcher) OnForeignKeyRemoved(entityType, fk Element) (Element, error) {
	return d.removed(KindForeignKeyRemoved, entityType, fk)
}

// OnForeignKeyPropertiesChanged returns the live property list of fk.
func (d *Dispatcher) OnForeignKeyPropertiesChanged(fk Relationship, oldProperties []Element, oldPrincipalKey Element) ([]Element, error) {
	v, err := d.Dispatch(PropertiesChanged{
		EventKind:       KindForeignKeyPropertiesChanged,
		ForeignKey:      fk,
		OldProperties:   oldProperties,
		OldPrincipalKey: oldPrincipalKey,
	})
	if err != nil {
		return nil, err
	}
	list, _ := v.([]Element)
	return list, nil
}

func (d *Dispatcher) OnForeignKeyUniquenessChanged(fk Flagged) (bool, bool, error) {
	return d.flag(KindForeignKeyUniquenessChanged, fk, nil)
}

func (d *Dispatcher) OnForeignKeyRequirednessChanged(fk Flagged) (bool, bool, error) {
	return d.flag(KindForeignKeyRequirednessChanged, fk, nil)
}

func (d *Dispatcher) OnForeignKeyDependentRequirednessChanged(fk Flagged) (bool, bool, error) {
	return d.flag(KindForeignKeyDependentRequirednessChanged, fk, nil)
}

func (d *Dispatcher) OnForeignKeyOwnershipChanged(fk Flagged) (bool, bool, error) {
	return d.flag(KindForeignKeyOwnershipChanged, fk, nil)
}

func (d *Dispatcher) OnForeignKeyPrincipalEndChanged(fk Relationship) (Element, error) {
	return d.changed(KindForeignKeyPrincipalEndChanged, fk, fk, nil)
}

func (d *Dispatcher) OnForeignKeyAnnotationChanged(fk Element, name string, annotation, old *Annotation) (*Annotation, error) {
	return d.annotation(KindForeignKeyAnnotationChanged, fk, name, annotation, old)
}

func (d *Dispatcher) OnNavigationAdded(fk, navigation Element) (Element, error) {
	return d.added(KindNavigationAdded, navigation, fk)
}

func (d *Dispatcher) OnNavigationAnnotationChanged(navigation Element, name string, annotation, old *Annotation) (*Annotation, error) {
	return d.annotation(KindNavigationAnnotationChanged, navigation, name, annotation, old)
}

// OnNavigationRemoved announces that the navigation called name left
// source. target is the type it pointed to.
func (d *Dispatcher) OnNavigationRemoved(source, target Element, name string) (string, bool, error) {
	return d.name(NameEvent{EventKind: KindNavigationRemoved, Owner: source, Target: target, Name: name})
}

func (d *Dispatcher) OnSkipNavigationAdded(entityType, navigation Element) (Element, error) {
	return d.added(KindSkipNavigationAdded, navigation, entityType)
}

func (d *Dispatcher) OnSkipNavigationAnnotationChanged(navigation Element, name string, annotation, old *Annotation) (*Annotation, error) {
	return d.annotation(KindSkipNavigationAnnotationChanged, navigation, name, annotation, old)
}

func (d *Dispatcher) OnSkipNavigationForeignKeyChanged(navigation, newFK, oldFK Element) (Element, error) {
	return d.changed(KindSkipNavigationForeignKeyChanged, navigation, newFK, oldFK)
}

func (d *Dispatcher) OnSkipNavigationInverseChanged(navigation, newInverse, oldInverse Element) (Element, error) {
	return d.changed(KindSkipNavigationInverseChanged, navigation, newInverse, oldInverse)
}

func (d *Dispatcher) OnSkipNavigationRemoved(entityType, navigation Element) (Element, error) {
	return d.removed(KindSkipNavigationRemoved, entityType, navigation)
}

func (d *Dispatcher) OnKeyAdded(entityType, key Element) (Element, error) {
	return d.added(KindKeyAdded, key, entityType)
}

func (d *Dispatcher) OnKeyRemoved(entityType, key Element) (Element, error) {
	return d.removed(KindKeyRemoved, entityType, key)
}

func (d *Dispatcher) OnKeyAnnotationChanged(key Element, name string, annotation, old *Annotation) (*Annotation, error) {
	return d.annotation(KindKeyAnnotationChanged, key, name, annotation, old)
}

func (d *Dispatcher) OnIndexAdded(entityType, index Element) (Element, error) {
	return d.added(KindIndexAdded, index, entityType)
}

func (d *Dispatcher) OnIndexRemoved(entityType, index Element) (Element, error) {
	return d.removed(KindIndexRemoved, entityType, index)
}

func (d *Dispatcher) OnIndexUniquenessChanged(index Flagged) (bool, bool, error) {
	return d.flag(KindIndexUniquenessChanged, index, nil)
}

func (d *Dispatcher) OnIndexAnnotationChanged(index Element, name string, annotation, old *Annotation) (*Annotation, error) {
	return d.annotation(KindIndexAnnotationChanged, index, name, annotation, old)
}

func (d *Dispatcher) OnPropertyAdded(entityType, property Element) (Element, error) {
	return d.added(KindPropertyAdded, property, entityType)
}

func (d *Dispatcher) OnPropertyNullabilityChanged(property Flagged, entityType Element) (bool, bool, error) {
	return d.flag(KindPropertyNullabilityChanged, property, entityType)
}

// OnPropertyFieldChanged announces a new backing field for property.
func (d *Dispatcher) OnPropertyFieldChanged(entityType, property Element, field, oldField string) (string, bool, error) {
	v, err := d.Dispatch(FieldChanged{
		EventKind: KindPropertyFieldChanged,
		Property:  property,
		Owner:     entityType,
		Field:     field,
		OldField:  oldField,
	})
	if err != nil {
		return "", false, err
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (d *Dispatcher) OnPropertyAnnotationChanged(property Element, name string, annotation, old *Annotation) (*Annotation, error) {
	return d.annotation(KindPropertyAnnotationChanged, property, name, annotation, old)
}

func (d *Dispatcher) OnPropertyRemoved(entityType, property Element) (Element, error) {
	return d.removed(KindPropertyRemoved, entityType, property)
}

func (d *Dispatcher) element(ev Event) (Element, error) {
	v, err := d.Dispatch(ev)
	if err != nil {
		return nil, err
	}
	el, _ := v.(Element)
	return el, nil
}

func (d *Dispatcher) added(k Kind, el Element, owners ...Element) (Element, error) {
	return d.element(ElementAdded{EventKind: k, Owners: owners, Element: el})
}

func (d *Dispatcher) removed(k Kind, owner, el Element) (Element, error) {
	return d.element(ElementRemoved{EventKind: k, Owner: owner, Element: el})
}

func (d *Dispatcher) changed(k Kind, el, newValue, oldValue Element) (Element, error) {
	return d.element(ElementChanged{EventKind: k, Element: el, New: newValue, Old: oldValue})
}

func (d *Dispatcher) annotation(k Kind, el Element, name string, annotation, old *Annotation) (*Annotation, error) {
	v, err := d.Dispatch(AnnotationChanged{
		EventKind:  k,
		Element:    el,
		Name:       name,
		Annotation: annotation,
		Old:        old,
	})
	if err != nil {
		return nil, err
	}
	a, _ := v.(*Annotation)
	return a, nil
}

func (d *Dispatcher) flag(k Kind, el Flagged, owner Element) (bool, bool, error) {
	v, err := d.Dispatch(FlagChanged{EventKind: k, Element: el, Owner: owner})
	if err != nil {
		return false, false, err
	}
	b, ok := v.(bool)
	return b, ok, nil
}

func (d *Dispatcher) name(ev NameEvent) (string, bool, error) {
	v, err := d.Dispatch(ev)
	if err != nil {
		return "", false, err
	}
	s, ok := v.(string)
	return s, ok, nil
}
