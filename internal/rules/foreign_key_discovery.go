package rules

import (
	"strings"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/metadata"
)

// ForeignKeyPropertyDiscovery binds a foreign key created over shadow
// properties to matching properties of the dependent type, named after the
// navigation or the principal type followed by the principal key property
// ("BlogId" for a navigation "Blog" to a key "Id"). The shadow properties
// left behind are removed once nothing uses them.
type ForeignKeyPropertyDiscovery struct{}

func (ForeignKeyPropertyDiscovery) Name() string { return "ForeignKeyPropertyDiscovery" }

func (r ForeignKeyPropertyDiscovery) Process(_ *convention.Context, ev convention.Event) error {
	switch e := ev.(type) {
	case convention.ElementAdded:
		switch el := e.Element.(type) {
		case *metadata.ForeignKey:
			return r.discover(el)
		case *metadata.Navigation:
			if el.IsOnDependent() {
				return r.discover(el.ForeignKey())
			}
		case *metadata.Property:
			for _, fk := range el.DeclaringType().ForeignKeys() {
				if err := r.discover(fk); err != nil {
					return err
				}
			}
		}
	case convention.ElementRemoved:
		et, ok := e.Owner.(*metadata.EntityType)
		fk, isFK := e.Element.(*metadata.ForeignKey)
		if ok && isFK {
			return removeOrphanShadows(et, fk.Properties())
		}
	}
	return nil
}

func (r ForeignKeyPropertyDiscovery) discover(fk *metadata.ForeignKey) error {
	if fk == nil || !fk.InModel() || !allShadow(fk.Properties()) {
		return nil
	}
	dependent := fk.DependentType()
	keyProps := fk.PrincipalKey().Properties()

	var prefixes []string
	if nav := fk.DependentToPrincipal(); nav != nil {
		prefixes = append(prefixes, nav.Name())
	}
	prefixes = append(prefixes, fk.PrincipalType().Name())

	for _, prefix := range prefixes {
		props := matchProperties(dependent, prefix, keyProps, fk.IsUnique())
		if props == nil {
			continue
		}
		_, err := dependent.ReplaceForeignKey(fk, props)
		return err
	}
	return nil
}

func matchProperties(et *metadata.EntityType, prefix string, keyProps []*metadata.Property, unique bool) []*metadata.Property {
	out := make([]*metadata.Property, 0, len(keyProps))
	for _, kp := range keyProps {
		name := prefix + kp.Name()
		var match *metadata.Property
		for _, p := range et.Properties() {
			if !p.IsShadow() && strings.EqualFold(p.Name(), name) {
				match = p
				break
			}
		}
		if match == nil || baseType(match.Type()) != baseType(kp.Type()) {
			return nil
		}
		if !unique && inPrimaryKey(et, match) {
			return nil
		}
		out = append(out, match)
	}
	return out
}

// removeOrphanShadows removes shadow properties of et that are no longer
// part of a key or foreign key, along with their indexes.
func removeOrphanShadows(et *metadata.EntityType, props []*metadata.Property) error {
	if !et.InModel() {
		return nil
	}
	for _, p := range props {
		if !p.InModel() || !p.IsShadow() || p.IsKey() || p.IsForeignKey() {
			continue
		}
		if err := et.RemoveProperty(p); err != nil {
			return err
		}
	}
	return nil
}

func allShadow(props []*metadata.Property) bool {
	for _, p := range props {
		if !p.IsShadow() {
			return false
		}
	}
	return len(props) > 0
}

func inPrimaryKey(et *metadata.EntityType, p *metadata.Property) bool {
	pk := et.FindPrimaryKey()
	if pk == nil {
		return false
	}
	for _, kp := range pk.Properties() {
		if kp == p {
			return true
		}
	}
	return false
}

func baseType(clrType string) string {
	return strings.TrimPrefix(clrType, "*")
}
