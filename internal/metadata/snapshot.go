package metadata

import (
	"github.com/roach88/conventions/internal/ir"
)

// Snapshot returns the deterministic view of m used for golden files and
// model hashes. Entity types are sorted by name; members keep declaration
// order, which a deterministic build reproduces exactly.
func Snapshot(m *Model) *ir.ModelSnapshot {
	snap := &ir.ModelSnapshot{
		Entities:    make([]ir.EntitySnapshot, 0, len(m.entities)),
		Ignored:     m.IgnoredNames(),
		Annotations: snapshotAnnotations(&m.annotations),
	}
	if len(snap.Ignored) == 0 {
		snap.Ignored = nil
	}
	for _, et := range m.EntityTypes() {
		snap.Entities = append(snap.Entities, snapshotEntity(et))
	}
	return snap
}

func snapshotEntity(et *EntityType) ir.EntitySnapshot {
	es := ir.EntitySnapshot{
		Name:        et.name,
		Properties:  make([]ir.PropertySnapshot, 0, len(et.properties)),
		Annotations: snapshotAnnotations(&et.annotations),
	}
	if et.base != nil {
		es.Base = et.base.name
	}
	if et.primaryKey != nil {
		es.PrimaryKey = propertyNames(et.primaryKey.properties)
	}

	for _, p := range et.properties {
		es.Properties = append(es.Properties, ir.PropertySnapshot{
			Name:        p.name,
			Type:        p.clrType,
			Nullable:    p.IsNullable(),
			Shadow:      p.shadow,
			Field:       p.field,
			Annotations: snapshotAnnotations(&p.annotations),
		})
	}
	for _, k := range et.keys {
		es.Keys = append(es.Keys, propertyNames(k.properties))
	}
	for _, ix := range et.indexes {
		es.Indexes = append(es.Indexes, ir.IndexSnapshot{
			Properties: propertyNames(ix.properties),
			Unique:     ix.unique,
		})
	}
	for _, fk := range et.foreignKeys {
		es.ForeignKeys = append(es.ForeignKeys, ir.ForeignKeySnapshot{
			Properties:        propertyNames(fk.properties),
			Principal:         fk.principal.name,
			PrincipalKey:      propertyNames(fk.principalKey.properties),
			Unique:            fk.unique,
			Required:          fk.required,
			RequiredDependent: fk.requiredDependent,
			Ownership:         fk.ownership,
		})
	}
	for _, n := range et.navigations {
		es.Navigations = append(es.Navigations, ir.NavigationSnapshot{
			Name:       n.name,
			Target:     n.TargetType().name,
			Collection: n.IsCollection(),
			ForeignKey: propertyNames(n.fk.properties),
		})
	}
	for _, n := range et.skipNavigations {
		sn := ir.SkipNavigationSnapshot{Name: n.name, Target: n.target.name}
		if n.inverse != nil {
			sn.Inverse = n.inverse.name
		}
		if n.fk != nil {
			sn.JoinType = n.fk.dependent.name
		}
		es.SkipNavigations = append(es.SkipNavigations, sn)
	}
	return es
}

func snapshotAnnotations(a *annotations) map[string]ir.Value {
	if len(a.values) == 0 {
		return nil
	}
	out := make(map[string]ir.Value, len(a.values))
	for name, v := range a.values {
		out[name] = annotationValue(v)
	}
	return out
}
