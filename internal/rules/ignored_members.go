package rules

import (
	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/metadata"
)

// IgnoredMembers removes the member an entity type was told to ignore,
// whether it is a property, a navigation or a skip navigation.
type IgnoredMembers struct{}

func (IgnoredMembers) Name() string { return "IgnoredMembers" }

func (IgnoredMembers) Process(_ *convention.Context, ev convention.Event) error {
	e, ok := ev.(convention.NameEvent)
	if !ok {
		return nil
	}
	et, ok := e.Owner.(*metadata.EntityType)
	if !ok {
		return nil
	}
	if p := et.Property(e.Name); p != nil {
		return et.RemoveProperty(p)
	}
	if n := et.Navigation(e.Name); n != nil {
		return et.RemoveNavigation(n)
	}
	if n := et.SkipNavigation(e.Name); n != nil {
		return et.RemoveSkipNavigation(n)
	}
	return nil
}
