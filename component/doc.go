// Package component defines a component type's static Descriptor (its ports
// and requirements), the Registry that builds instances from a factory by
// name, and the runtime Instance that a network wires up and schedules.
//
// A component author implements Component (Descriptor + Run) and registers a
// Factory under a type name. The network looks up the factory when
// materializing a graph description, builds an Instance around the wired
// ports, and runs it on its own goroutine; Instance.Receive/Send wrap the
// underlying port operations to track lifecycle state for the deadlock
// monitor and packet ownership for the leak check.
package component
