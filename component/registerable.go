package component

import "context"

// Component is what a factory produces: a component type capable of
// describing its own ports and running one instance of itself against a set
// of wired ports.
type Component interface {
	// Descriptor returns this component type's static port/requirement
	// declaration.
	Descriptor() Descriptor
	// Run executes one instance's body. It must return when ctx is done, and
	// should return nil on normal (voluntary) termination.
	Run(ctx context.Context, self *Instance) error
}

// Registerable allows a Component to carry registry metadata beyond its
// Descriptor — version and free-text description. Nothing in the runtime
// calls Registration; list_components reports instance names only.
type Registerable interface {
	Component
	Registration() Registration
}
