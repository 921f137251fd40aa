package rules

import (
	"slices"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/metadata"
)

// ForeignKeyIndex keeps one index per foreign key property list, unique when
// the foreign key is. A list already covered by the start of a key needs no
// index.
type ForeignKeyIndex struct{}

func (ForeignKeyIndex) Name() string { return "ForeignKeyIndex" }

func (r ForeignKeyIndex) Process(_ *convention.Context, ev convention.Event) error {
	switch e := ev.(type) {
	case convention.ElementAdded:
		switch el := e.Element.(type) {
		case *metadata.ForeignKey:
			return r.ensure(el)
		case *metadata.Key:
			return r.dropCovered(el)
		}
	case convention.ElementRemoved:
		et, ok := e.Owner.(*metadata.EntityType)
		fk, isFK := e.Element.(*metadata.ForeignKey)
		if ok && isFK {
			return r.release(et, fk.Properties())
		}
	case convention.FlagChanged:
		if fk, ok := e.Element.(*metadata.ForeignKey); ok {
			ix := fk.DependentType().FindIndex(fk.Properties())
			if ix != nil && ix.IsUnique() != fk.IsUnique() {
				_, err := ix.SetUnique(fk.IsUnique())
				return err
			}
		}
	}
	return nil
}

func (r ForeignKeyIndex) ensure(fk *metadata.ForeignKey) error {
	et := fk.DependentType()
	props := fk.Properties()
	if coveredByKey(et, props) {
		return nil
	}
	ix := et.FindIndex(props)
	if ix == nil {
		added, err := et.AddIndex(props...)
		if err != nil || added == nil {
			return err
		}
		ix = added
	}
	if fk.IsUnique() && !ix.IsUnique() {
		_, err := ix.SetUnique(true)
		return err
	}
	return nil
}

// release removes the index over props once no foreign key uses them.
func (r ForeignKeyIndex) release(et *metadata.EntityType, props []*metadata.Property) error {
	if !et.InModel() {
		return nil
	}
	ix := et.FindIndex(props)
	if ix == nil {
		return nil
	}
	for _, other := range et.ForeignKeys() {
		if slices.Equal(other.Properties(), props) {
			return nil
		}
	}
	return et.RemoveIndex(ix)
}

// dropCovered removes foreign key indexes made redundant by a new key.
func (r ForeignKeyIndex) dropCovered(key *metadata.Key) error {
	et := key.DeclaringType()
	for _, fk := range et.ForeignKeys() {
		props := fk.Properties()
		if !hasPrefix(key.Properties(), props) {
			continue
		}
		if ix := et.FindIndex(props); ix != nil && !ix.IsUnique() {
			if err := et.RemoveIndex(ix); err != nil {
				return err
			}
		}
	}
	return nil
}

func coveredByKey(et *metadata.EntityType, props []*metadata.Property) bool {
	for _, k := range et.Keys() {
		if hasPrefix(k.Properties(), props) {
			return true
		}
	}
	return false
}

func hasPrefix(list, prefix []*metadata.Property) bool {
	return len(prefix) <= len(list) && slices.Equal(list[:len(prefix)], prefix)
}
