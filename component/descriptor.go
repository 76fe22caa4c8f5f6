// Package component defines the Component contract, its runtime Instance,
// and the factory Registry used to build components from a graph
// description.
package component

import "github.com/c360/fbpcore/port"

// Descriptor is a component type's static declaration: its ports, whether it
// depends on other component types being present in the same network, and
// documentation surfaced by the control plane's describe_component
// operation.
type Descriptor struct {
	Name     string
	Doc      string
	InPorts  []port.Spec
	OutPorts []port.Spec
	// Requires names other component type names that must exist elsewhere in
	// the same network for this component to be meaningful.
	Requires []string
	Schema   ConfigSchema
}

// InPort returns the named input port spec, or (zero, false).
func (d Descriptor) InPort(name string) (port.Spec, bool) {
	for _, p := range d.InPorts {
		if p.Name == name {
			return p, true
		}
	}
	return port.Spec{}, false
}

// OutPort returns the named output port spec, or (zero, false).
func (d Descriptor) OutPort(name string) (port.Spec, bool) {
	for _, p := range d.OutPorts {
		if p.Name == name {
			return p, true
		}
	}
	return port.Spec{}, false
}

// ConfigSchema documents a component's JSON configuration for the control
// surface's describe_component operation.
type ConfigSchema struct {
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema describes a single configuration property.
type PropertySchema struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}
