// Package pool maps marker reference names to the pools that share one overlay slot.
package pool

import (
	"errors"
	"fmt"
	"sort"
)

// ID names a pool.
type ID string

var (
	// ErrDuplicateMarker is returned when a marker is assigned to more than one pool.
	ErrDuplicateMarker = errors.New("marker assigned to more than one pool")
	// ErrDuplicatePool is returned when a pool id is defined twice.
	ErrDuplicatePool = errors.New("pool defined twice")
	// ErrUnknownPool is returned when looking up a pool that is not configured.
	ErrUnknownPool = errors.New("unknown pool")
	// ErrEmptyPoolID is returned for a definition without an id.
	ErrEmptyPoolID = errors.New("pool id is empty")
)

// Definition configures one pool.
type Definition struct {
	ID        ID       `json:"id" mapstructure:"id"`
	Prototype string   `json:"prototype" mapstructure:"prototype"`
	Markers   []string `json:"markers" mapstructure:"markers"`
}

// Registry is an immutable pool table. Pools keep their configured order,
// which is also the pin priority order.
type Registry struct {
	order      []ID
	byMarker   map[string]ID
	prototypes map[ID]string
}

// New builds a registry from definitions.
func New(defs []Definition) (*Registry, error) {
	r := &Registry{
		order:      make([]ID, 0, len(defs)),
		byMarker:   make(map[string]ID),
		prototypes: make(map[ID]string, len(defs)),
	}
	for _, d := range defs {
		if d.ID == "" {
			return nil, ErrEmptyPoolID
		}
		if _, ok := r.prototypes[d.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePool, d.ID)
		}
		r.order = append(r.order, d.ID)
		r.prototypes[d.ID] = d.Prototype
		for _, name := range d.Markers {
			if other, ok := r.byMarker[name]; ok {
				return nil, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateMarker, name, other, d.ID)
			}
			r.byMarker[name] = d.ID
		}
	}
	return r, nil
}

// Resolve returns the pool a marker reference name belongs to.
func (r *Registry) Resolve(markerName string) (ID, bool) {
	id, ok := r.byMarker[markerName]
	return id, ok
}

// Pools returns all pool ids in priority order.
func (r *Registry) Pools() []ID {
	out := make([]ID, len(r.order))
	copy(out, r.order)
	return out
}

// Prototype returns the visual prototype registered for a pool.
// An empty prototype counts as not registered.
func (r *Registry) Prototype(id ID) (string, bool) {
	p, ok := r.prototypes[id]
	if !ok || p == "" {
		return "", false
	}
	return p, true
}

// Markers returns the sorted marker names assigned to a pool.
func (r *Registry) Markers(id ID) []string {
	var out []string
	for name, pid := range r.byMarker {
		if pid == id {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup returns the definition of a configured pool.
func (r *Registry) Lookup(id ID) (Definition, error) {
	p, ok := r.prototypes[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownPool, id)
	}
	return Definition{ID: id, Prototype: p, Markers: r.Markers(id)}, nil
}
