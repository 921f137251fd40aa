package convention

import (
	"errors"
	"fmt"
)

// Plugin is a single rule reacting to one or more event kinds. Process may
// mutate the graph, override the candidate result or stop the chain through
// ctx. Returned errors propagate untouched to the code that fired the event.
type Plugin interface {
	Name() string
	Process(ctx *Context, ev Event) error
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc struct {
	ID string
	Fn func(ctx *Context, ev Event) error
}

// Name implements Plugin.
func (p PluginFunc) Name() string { return p.ID }

// Process implements Plugin.
func (p PluginFunc) Process(ctx *Context, ev Event) error { return p.Fn(ctx, ev) }

// Func builds a PluginFunc.
func Func(name string, fn func(ctx *Context, ev Event) error) Plugin {
	return PluginFunc{ID: name, Fn: fn}
}

// Registry is the ordered, immutable table of plugin chains per kind.
//
// INVARIANTS:
//   - chain order is registration order and never changes after Build
//   - plugin names are unique within a chain
type Registry struct {
	chains [kindCount][]Plugin
}

// Plugins returns the chain for k in registration order. The slice must not
// be modified.
func (r *Registry) Plugins(k Kind) []Plugin {
	if r == nil || !k.Valid() {
		return nil
	}
	return r.chains[k]
}

// Len returns the number of plugins registered for k.
func (r *Registry) Len(k Kind) int {
	return len(r.Plugins(k))
}

// RegistryBuilder collects plugins in registration order.
type RegistryBuilder struct {
	chains [kindCount][]Plugin
	errs   []error
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// Add appends p to the chain of every listed kind.
func (b *RegistryBuilder) Add(p Plugin, ks ...Kind) *RegistryBuilder {
	if p == nil {
		b.errs = append(b.errs, fmt.Errorf("nil plugin"))
		return b
	}
	if len(ks) == 0 {
		b.errs = append(b.errs, fmt.Errorf("plugin %q: no event kinds", p.Name()))
		return b
	}
	for _, k := range ks {
		if !k.Valid() {
			b.errs = append(b.errs, fmt.Errorf("plugin %q: invalid kind %d", p.Name(), int(k)))
			continue
		}
		for _, existing := range b.chains[k] {
			if existing.Name() == p.Name() {
				b.errs = append(b.errs, fmt.Errorf("duplicate plugin %q for %s", p.Name(), k))
			}
		}
		b.chains[k] = append(b.chains[k], p)
	}
	return b
}

// Build validates the collected chains and freezes them.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("build registry: %w", errors.Join(b.errs...))
	}
	r := &Registry{}
	for k := range b.chains {
		if len(b.chains[k]) == 0 {
			continue
		}
		// Copy so later Add calls on the builder cannot reorder a built chain.
		r.chains[k] = append([]Plugin(nil), b.chains[k]...)
	}
	return r, nil
}

// MustBuild is Build for static rule sets; it panics on error.
func (b *RegistryBuilder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}
