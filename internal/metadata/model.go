package metadata

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/conventions/internal/convention"
)

type modelState int

const (
	stateBuilding modelState = iota
	stateFinalizing
	stateFinalized
)

// Model is the root of the schema graph. Every mutation notifies the
// dispatcher, whose plugins may in turn mutate the graph.
//
// A Model is not safe for concurrent use.
type Model struct {
	annotations

	d        *convention.Dispatcher
	entities []*EntityType
	byName   map[string]*EntityType
	ignored  map[string]bool
	state    modelState
}

// NewModel creates an empty model bound to d.
func NewModel(d *convention.Dispatcher) *Model {
	return &Model{
		d:       d,
		byName:  make(map[string]*EntityType),
		ignored: make(map[string]bool),
	}
}

// Dispatcher returns the dispatcher the model notifies.
func (m *Model) Dispatcher() *convention.Dispatcher { return m.d }

// InModel implements convention.Element. The model is always live.
func (m *Model) InModel() bool { return true }

func (m *Model) String() string { return "Model" }

// IsIgnored implements convention.IgnoreSet.
func (m *Model) IsIgnored(name string) bool { return m.ignored[name] }

// IgnoredNames returns the ignored entity type names, sorted.
func (m *Model) IgnoredNames() []string {
	out := make([]string, 0, len(m.ignored))
	for name := range m.ignored {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Finalized reports whether the model is read-only.
func (m *Model) Finalized() bool { return m.state == stateFinalized }

// Initialize runs the model initialization plugins.
func (m *Model) Initialize() error {
	if err := m.mutable(); err != nil {
		return err
	}
	_, err := m.d.OnModelInitialized(m)
	return err
}

// Finalize runs the finalizing plugins, freezes the model and announces it.
// It refuses to run while a batch is still open.
func (m *Model) Finalize() error {
	if err := m.mutable(); err != nil {
		return err
	}
	if err := m.d.RequireNoOpenScope(); err != nil {
		return fmt.Errorf("finalize model: %w", err)
	}

	m.state = stateFinalizing
	if _, err := m.d.OnModelFinalizing(m); err != nil {
		m.state = stateBuilding
		return fmt.Errorf("finalize model: %w", err)
	}
	m.state = stateFinalized
	if _, err := m.d.OnModelFinalized(m); err != nil {
		return fmt.Errorf("finalize model: %w", err)
	}
	return nil
}

// EntityType returns the entity type called name, or nil.
func (m *Model) EntityType(name string) *EntityType {
	return m.byName[name]
}

// EntityTypes returns the entity types sorted by name.
func (m *Model) EntityTypes() []*EntityType {
	out := slices.Clone(m.entities)
	slices.SortFunc(out, func(a, b *EntityType) int { return strings.Compare(a.name, b.name) })
	return out
}

// AddEntityType adds an entity type, or returns the existing one. Adding a
// name clears a previous Ignore. The result is nil when a plugin removed the
// new type.
func (m *Model) AddEntityType(name string) (*EntityType, error) {
	if err := m.mutable(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("add entity type: empty name: %w", ErrInvalid)
	}
	if et, ok := m.byName[name]; ok {
		return et, nil
	}

	delete(m.ignored, name)
	et := newEntityType(m, name)
	m.entities = append(m.entities, et)
	m.byName[name] = et

	res, err := m.d.OnEntityTypeAdded(m, et)
	if err != nil {
		return nil, fmt.Errorf("add entity type %q: %w", name, err)
	}
	added, _ := res.(*EntityType)
	return added, nil
}

// RemoveEntityType detaches et with everything that depends on it:
// relationships in both directions and derived types' base.
func (m *Model) RemoveEntityType(et *EntityType) error {
	if err := m.mutable(); err != nil {
		return err
	}
	if !et.InModel() {
		return fmt.Errorf("remove entity type %s: %w", et.name, ErrNotInModel)
	}

	err := m.d.Batch(func() error {
		for _, fk := range slices.Clone(et.referencing) {
			if err := fk.dependent.RemoveForeignKey(fk); err != nil {
				return err
			}
		}
		for _, fk := range slices.Clone(et.foreignKeys) {
			if err := et.RemoveForeignKey(fk); err != nil {
				return err
			}
		}
		for _, other := range m.entities {
			for _, nav := range other.SkipNavigations() {
				if nav.declaring == et || nav.target == et {
					if err := other.RemoveSkipNavigation(nav); err != nil {
						return err
					}
				}
			}
		}
		for _, derived := range m.entities {
			if derived.base == et {
				if err := derived.SetBaseType(nil); err != nil {
					return err
				}
			}
		}

		et.removed = true
		m.entities = slices.DeleteFunc(m.entities, func(e *EntityType) bool { return e == et })
		delete(m.byName, et.name)

		_, err := m.d.OnEntityTypeRemoved(m, et)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove entity type %s: %w", et.name, err)
	}
	return nil
}

// Ignore excludes name from the model, removing the entity type if present.
func (m *Model) Ignore(name string) error {
	if err := m.mutable(); err != nil {
		return err
	}
	if et, ok := m.byName[name]; ok {
		if err := m.RemoveEntityType(et); err != nil {
			return err
		}
	}
	m.ignored[name] = true
	if _, _, err := m.d.OnEntityTypeIgnored(m, name); err != nil {
		return fmt.Errorf("ignore %q: %w", name, err)
	}
	return nil
}

// SetAnnotation sets a model annotation. The returned annotation is the one
// plugins settled on, nil if they rejected it.
func (m *Model) SetAnnotation(name string, value any) (*convention.Annotation, error) {
	if err := m.mutable(); err != nil {
		return nil, err
	}
	current, old := m.put(name, value)
	return m.d.OnModelAnnotationChanged(m, name, current, old)
}

// RemoveAnnotation removes a model annotation.
func (m *Model) RemoveAnnotation(name string) error {
	if err := m.mutable(); err != nil {
		return err
	}
	old := m.drop(name)
	if old == nil {
		return nil
	}
	_, err := m.d.OnModelAnnotationChanged(m, name, nil, old)
	return err
}

func (m *Model) mutable() error {
	if m.state == stateFinalized {
		return ErrReadOnly
	}
	return nil
}
