package rules

import (
	"fmt"
	"slices"

	"github.com/roach88/conventions/internal/convention"
)

// Set names accepted by ByName.
const (
	SetDefault = "default"
	SetNone    = "none"
)

// Register adds the default rules to b in chain order.
func Register(b *convention.RegistryBuilder) *convention.RegistryBuilder {
	return b.
		Add(ProductVersion{}, convention.KindModelInitialized).
		Add(IgnoredMembers{}, convention.KindEntityTypeMemberIgnored).
		Add(KeyDiscovery{},
			convention.KindEntityTypeAdded,
			convention.KindPropertyAdded,
			convention.KindPropertyRemoved,
			convention.KindEntityTypeBaseTypeChanged,
			convention.KindEntityTypePrimaryKeyChanged,
			convention.KindEntityTypeAnnotationChanged).
		Add(ForeignKeyPropertyDiscovery{},
			convention.KindForeignKeyAdded,
			convention.KindNavigationAdded,
			convention.KindPropertyAdded,
			convention.KindForeignKeyRemoved).
		Add(ForeignKeyIndex{},
			convention.KindForeignKeyAdded,
			convention.KindForeignKeyRemoved,
			convention.KindForeignKeyUniquenessChanged,
			convention.KindKeyAdded).
		Add(Requiredness{},
			convention.KindPropertyAnnotationChanged,
			convention.KindForeignKeyAdded,
			convention.KindPropertyNullabilityChanged,
			convention.KindForeignKeyRequirednessChanged,
			convention.KindForeignKeyOwnershipChanged).
		Add(ManyToManyJoin{}, convention.KindSkipNavigationInverseChanged).
		Add(ModelValidation{}, convention.KindModelFinalizing)
}

// Default returns the built-in convention set.
func Default() *convention.Registry {
	return Register(convention.NewRegistryBuilder()).MustBuild()
}

// ByName returns a named convention set.
func ByName(name string) (*convention.Registry, error) {
	switch name {
	case SetDefault, "":
		return Default(), nil
	case SetNone:
		return convention.NewRegistryBuilder().MustBuild(), nil
	default:
		return nil, fmt.Errorf("unknown convention set %q (known: %v)", name, Sets())
	}
}

// Sets lists the names ByName accepts.
func Sets() []string {
	return slices.Clone([]string{SetDefault, SetNone})
}
