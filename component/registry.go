package component

import (
	"encoding/json"
	"fmt"
	"sync"

	fbperrors "github.com/c360/fbpcore/errors"
)

// Factory builds a Component instance from its raw JSON configuration and
// the ambient dependencies.
type Factory func(rawConfig json.RawMessage, deps Dependencies) (Component, error)

// Registration holds a component type's factory and discovery metadata.
type Registration struct {
	Name        string
	Description string
	Version     string
	Factory     Factory
	Descriptor  Descriptor
}

// Registry is the process-wide catalog of component types a graph
// description can reference by name.
type Registry struct {
	mu         sync.RWMutex
	factories  map[string]*Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Registration)}
}

// RegisterFactory adds a component type. Returns an error if name is empty,
// registration is incomplete, or name is already registered.
func (r *Registry) RegisterFactory(name string, reg *Registration) error {
	if name == "" {
		return fbperrors.WrapInvalid(fmt.Errorf("factory name must not be empty"), "Registry", "RegisterFactory")
	}
	if reg == nil || reg.Factory == nil {
		return fbperrors.WrapInvalid(fmt.Errorf("registration and factory function are required"), "Registry", "RegisterFactory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fbperrors.WrapInvalid(fmt.Errorf("factory %q is already registered", name), "Registry", "RegisterFactory")
	}
	r.factories[name] = reg
	return nil
}

// Lookup returns the registration for name.
func (r *Registry) Lookup(name string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[name]
	return reg, ok
}

// Create builds a Component instance of the named type.
func (r *Registry) Create(name string, rawConfig json.RawMessage, deps Dependencies) (Component, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateFactoryConfig(rawConfig); err != nil {
		return nil, fbperrors.Wrap(err, "Registry", "Create", "config validation")
	}
	reg, ok := r.Lookup(name)
	if !ok {
		return nil, fbperrors.WrapInvalid(fmt.Errorf("unknown component type %q", name), "Registry", "Create")
	}
	comp, err := reg.Factory(rawConfig, deps)
	if err != nil {
		return nil, fbperrors.Wrap(err, "Registry", "Create", "factory execution")
	}
	return comp, nil
}

// Describe returns the static descriptor for a registered component kind,
// independent of any network instance.
func (r *Registry) Describe(kind string) (Descriptor, error) {
	reg, ok := r.Lookup(kind)
	if !ok {
		return Descriptor{}, fbperrors.WrapInvalid(fmt.Errorf("unknown component type %q", kind), "Registry", "Describe")
	}
	return reg.Descriptor, nil
}

// List returns every registered type name, in registration order is not
// guaranteed (map iteration), used by the control surface's list_components
// operation.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
