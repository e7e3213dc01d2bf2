package connectors

import (
	"fmt"

	"goscout/ports"
)

// Registry keeps a mapping from connector names to their implementations.
type Registry struct {
	connectors map[string]ports.Connector
	order      []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: map[string]ports.Connector{}}
}

// Register adds or replaces a connector implementation.
func (r *Registry) Register(c ports.Connector) {
	if _, exists := r.connectors[c.Name()]; !exists {
		r.order = append(r.order, c.Name())
	}
	r.connectors[c.Name()] = c
}

// Resolve returns a connector by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Connector, error) {
	if c, ok := r.connectors[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("connector %s is not registered", name)
}

// All returns every registered connector in registration order.
func (r *Registry) All() []ports.Connector {
	out := make([]ports.Connector, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.connectors[name])
	}
	return out
}
