package convention

import "fmt"

// Kind identifies a schema mutation notification and fixes its argument
// shape. The set is closed; kinds are dense so they index lookup tables.
type Kind int

const (
	KindInvalid Kind = iota

	KindModelInitialized
	KindModelFinalizing
	KindModelFinalized
	KindModelAnnotationChanged

	KindEntityTypeAdded
	KindEntityTypeIgnored
	KindEntityTypeRemoved
	KindEntityTypeMemberIgnored
	KindEntityTypeBaseTypeChanged
	KindEntityTypePrimaryKeyChanged
	KindEntityTypeAnnotationChanged

	KindForeignKeyAdded
	KindForeignKeyRemoved
	KindForeignKeyPropertiesChanged
	KindForeignKeyUniquenessChanged
	KindForeignKeyRequirednessChanged
	KindForeignKeyDependentRequirednessChanged
	KindForeignKeyOwnershipChanged
	KindForeignKeyPrincipalEndChanged
	KindForeignKeyAnnotationChanged

	KindNavigationAdded
	KindNavigationAnnotationChanged
	KindNavigationRemoved

	KindSkipNavigationAdded
	KindSkipNavigationAnnotationChanged
	KindSkipNavigationForeignKeyChanged
	KindSkipNavigationInverseChanged
	KindSkipNavigationRemoved

	KindKeyAdded
	KindKeyRemoved
	KindKeyAnnotationChanged

	KindIndexAdded
	KindIndexRemoved
	KindIndexUniquenessChanged
	KindIndexAnnotationChanged

	KindPropertyAdded
	KindPropertyNullabilityChanged
	KindPropertyFieldChanged
	KindPropertyAnnotationChanged
	KindPropertyRemoved

	kindCount
)

// Shape is the argument layout shared by a group of kinds. Each shape maps to
// exactly one Event implementation.
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeModel
	ShapeElementAdded
	ShapeElementRemoved
	ShapeName
	ShapeAnnotation
	ShapeFlag
	ShapeElementChanged
	ShapeProperties
	ShapeField
)

// SubjectType describes the value plugins may override for a kind.
type SubjectType int

const (
	SubjectNone SubjectType = iota
	SubjectElement
	SubjectAnnotation
	SubjectFlag
	SubjectName
	SubjectList
	SubjectField
)

type kindInfo struct {
	name    string
	shape   Shape
	subject SubjectType
}

var kinds = [kindCount]kindInfo{
	KindInvalid: {name: "Invalid"},

	KindModelInitialized:       {"ModelInitialized", ShapeModel, SubjectElement},
	KindModelFinalizing:        {"ModelFinalizing", ShapeModel, SubjectElement},
	KindModelFinalized:         {"ModelFinalized", ShapeModel, SubjectElement},
	KindModelAnnotationChanged: {"ModelAnnotationChanged", ShapeAnnotation, SubjectAnnotation},

	KindEntityTypeAdded:             {"EntityTypeAdded", ShapeElementAdded, SubjectElement},
	KindEntityTypeIgnored:           {"EntityTypeIgnored", ShapeName, SubjectName},
	KindEntityTypeRemoved:           {"EntityTypeRemoved", ShapeElementRemoved, SubjectElement},
	KindEntityTypeMemberIgnored:     {"EntityTypeMemberIgnored", ShapeName, SubjectName},
	KindEntityTypeBaseTypeChanged:   {"EntityTypeBaseTypeChanged", ShapeElementChanged, SubjectElement},
	KindEntityTypePrimaryKeyChanged: {"EntityTypePrimaryKeyChanged", ShapeElementChanged, SubjectElement},
	KindEntityTypeAnnotationChanged: {"EntityTypeAnnotationChanged", ShapeAnnotation, SubjectAnnotation},

	KindForeignKeyAdded:                        {"ForeignKeyAdded", ShapeElementAdded, SubjectElement},
	KindForeignKeyRemoved:                      {"ForeignKeyRemoved", ShapeElementRemoved, SubjectElement},
	KindForeignKeyPropertiesChanged:            {"ForeignKeyPropertiesChanged", ShapeProperties, SubjectList},
	KindForeignKeyUniquenessChanged:            {"ForeignKeyUniquenessChanged", ShapeFlag, SubjectFlag},
	KindForeignKeyRequirednessChanged:          {"ForeignKeyRequirednessChanged", ShapeFlag, SubjectFlag},
	KindForeignKeyDependentRequirednessChanged: {"ForeignKeyDependentRequirednessChanged", ShapeFlag, SubjectFlag},
	KindForeignKeyOwnershipChanged:             {"ForeignKeyOwnershipChanged", ShapeFlag, SubjectFlag},
	KindForeignKeyPrincipalEndChanged:          {"ForeignKeyPrincipalEndChanged", ShapeElementChanged, SubjectElement},
	KindForeignKeyAnnotationChanged:            {"ForeignKeyAnnotationChanged", ShapeAnnotation, SubjectAnnotation},

	KindNavigationAdded:             {"NavigationAdded", ShapeElementAdded, SubjectElement},
	KindNavigationAnnotationChanged: {"NavigationAnnotationChanged", ShapeAnnotation, SubjectAnnotation},
	KindNavigationRemoved:           {"NavigationRemoved", ShapeName, SubjectName},

	KindSkipNavigationAdded:             {"SkipNavigationAdded", ShapeElementAdded, SubjectElement},
	KindSkipNavigationAnnotationChanged: {"SkipNavigationAnnotationChanged", ShapeAnnotation, SubjectAnnotation},
	KindSkipNavigationForeignKeyChanged: {"SkipNavigationForeignKeyChanged", ShapeElementChanged, SubjectElement},
	KindSkipNavigationInverseChanged:    {"SkipNavigationInverseChanged", ShapeElementChanged, SubjectElement},
	KindSkipNavigationRemoved:           {"SkipNavigationRemoved", ShapeElementRemoved, SubjectElement},

	KindKeyAdded:             {"KeyAdded", ShapeElementAdded, SubjectElement},
	KindKeyRemoved:           {"KeyRemoved", ShapeElementRemoved, SubjectElement},
	KindKeyAnnotationChanged: {"KeyAnnotationChanged", ShapeAnnotation, SubjectAnnotation},

	KindIndexAdded:             {"IndexAdded", ShapeElementAdded, SubjectElement},
	KindIndexRemoved:           {"IndexRemoved", ShapeElementRemoved, SubjectElement},
	KindIndexUniquenessChanged: {"IndexUniquenessChanged", ShapeFlag, SubjectFlag},
	KindIndexAnnotationChanged: {"IndexAnnotationChanged", ShapeAnnotation, SubjectAnnotation},

	KindPropertyAdded:              {"PropertyAdded", ShapeElementAdded, SubjectElement},
	KindPropertyNullabilityChanged: {"PropertyNullabilityChanged", ShapeFlag, SubjectFlag},
	KindPropertyFieldChanged:       {"PropertyFieldChanged", ShapeField, SubjectField},
	KindPropertyAnnotationChanged:  {"PropertyAnnotationChanged", ShapeAnnotation, SubjectAnnotation},
	KindPropertyRemoved:            {"PropertyRemoved", ShapeElementRemoved, SubjectElement},
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindInvalid + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind resolves a kind by its name, e.g. "PropertyAdded".
func ParseKind(name string) (Kind, error) {
	for k := KindInvalid + 1; k < kindCount; k++ {
		if kinds[k].name == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown event kind %q", name)
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < kindCount
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// Shape returns the argument shape of the kind.
func (k Kind) Shape() Shape {
	if !k.Valid() {
		return ShapeInvalid
	}
	return kinds[k].shape
}

// Subject returns the type of value plugins may override for the kind.
func (k Kind) Subject() SubjectType {
	if !k.Valid() {
		return SubjectNone
	}
	return kinds[k].subject
}

// isModelOrchestration reports kinds whose plugins each run in their own
// batch so cascades settle before the next plugin observes the graph.
func (k Kind) isModelOrchestration() bool {
	return k == KindModelInitialized || k == KindModelFinalizing
}
