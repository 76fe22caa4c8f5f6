package network

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/c360/fbpcore/component"
	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/port"
)

// RunState is the network's own lifecycle, distinct from any one component's
// State.
type RunState int

const (
	Idle RunState = iota
	Running
	Terminating
	Terminated
	Errored
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminating:
		return "terminating"
	case Terminated:
		return "terminated"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// RecordedError is one failure surfaced by run(): the owning component,
// the error's class and message, and when it was recorded — the causality
// context an aggregated error report needs.
type RecordedError struct {
	Component string    `json:"component"`
	Class     string    `json:"class"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// Network is the addressable graph of component instances and connections:
// the build surface plus the scheduler that runs it. After a
// run concludes, build operations become legal again and a fresh Run reuses
// the same graph; Status keeps reporting the previous run's final state
// until the next Run starts.
type Network struct {
	mu sync.RWMutex

	name string
	reg  *component.Registry
	deps component.Dependencies
	opts RunOptions

	nodes map[string]*node
	edges []Edge
	iips  []IIP

	state     RunState
	instances map[string]*component.Instance

	runID      string
	errorLog   *lru.Cache[string, RecordedError]
	cancel     context.CancelFunc
	suspended  []string
	deadlocked bool
	cancelled  bool
}

// New creates an empty, idle network named name. reg resolves component
// kinds passed to AddComponent; deps are forwarded to every component this
// network creates.
func New(name string, reg *component.Registry, deps component.Dependencies, opts RunOptions) *Network {
	errLog, _ := lru.New[string, RecordedError](256)
	return &Network{
		name:     name,
		reg:      reg,
		deps:     deps,
		opts:     opts,
		nodes:    make(map[string]*node),
		state:    Idle,
		errorLog: errLog,
	}
}

// Name returns the network's identifier.
func (net *Network) Name() string { return net.name }

// State returns the network's current run state.
func (net *Network) State() RunState {
	net.mu.RLock()
	defer net.mu.RUnlock()
	return net.state
}

// requireIdle rejects build operations while a run is in progress. A
// concluded run (Terminated or Errored) counts as idle for building: the
// graph may be edited and run again, while Status keeps reporting the last
// run's final state until the next Run begins.
func (net *Network) requireIdle() error {
	if net.state == Running || net.state == Terminating {
		return fbperrors.WrapInvalid(fbperrors.ErrNotIdle, net.name, "build")
	}
	return nil
}

// AddComponent instantiates kind under name and records it as a graph node.
// iips attaches initial information packets to the new component's simple
// (non-array) input ports by name; use Initialize for array-port or post-hoc
// attachment.
func (net *Network) AddComponent(name, kind string, rawConfig json.RawMessage, iips map[string]any) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	if err := net.requireIdle(); err != nil {
		return err
	}
	if err := component.ValidateName(name); err != nil {
		return err
	}
	if _, exists := net.nodes[name]; exists {
		return fbperrors.WrapInvalid(fmt.Errorf("component %q already exists", name), net.name, "AddComponent")
	}

	comp, err := net.reg.Create(kind, rawConfig, net.deps)
	if err != nil {
		return fbperrors.Wrap(err, net.name, "AddComponent", "create component")
	}

	n := newNode(name, kind, comp)
	net.nodes[name] = n

	for portName, value := range iips {
		spec, ok := n.desc.InPort(portName)
		if !ok {
			delete(net.nodes, name)
			return fbperrors.WrapInvalid(fbperrors.ErrUnknownPort, name, portName)
		}
		if spec.Array {
			delete(net.nodes, name)
			return fbperrors.WrapInvalid(fmt.Errorf("port %q is an array port, use Initialize with an index", portName), name, "AddComponent")
		}
		net.iips = append(net.iips, IIP{To: PortRef{Component: name, Port: portName}, Value: value})
		n.inConnected[portName]++
	}
	return nil
}

// AddComponentInstance registers an already-constructed Component under
// name, bypassing the kind/registry lookup AddComponent uses. It exists for
// the subnet package to wire its internal boundary-bridge components, which
// are not meant to be addressable through the control surface's component
// type catalog.
func (net *Network) AddComponentInstance(name string, comp component.Component) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	if err := net.requireIdle(); err != nil {
		return err
	}
	if err := component.ValidateName(name); err != nil {
		return err
	}
	if _, exists := net.nodes[name]; exists {
		return fbperrors.WrapInvalid(fmt.Errorf("component %q already exists", name), net.name, "AddComponentInstance")
	}
	net.nodes[name] = newNode(name, "<internal>", comp)
	return nil
}

// RemoveComponent deletes a component and every edge and IIP touching it.
func (net *Network) RemoveComponent(name string) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	if err := net.requireIdle(); err != nil {
		return err
	}
	if _, ok := net.nodes[name]; !ok {
		return fbperrors.WrapInvalid(fbperrors.ErrUnknownComponent, net.name, name)
	}

	kept := net.edges[:0]
	for _, e := range net.edges {
		if e.From.Component == name || e.To.Component == name {
			continue
		}
		kept = append(kept, e)
	}
	net.edges = kept

	keptIIPs := net.iips[:0]
	for _, i := range net.iips {
		if i.To.Component == name {
			continue
		}
		keptIIPs = append(keptIIPs, i)
	}
	net.iips = keptIIPs

	delete(net.nodes, name)
	return nil
}

// Connect wires an output port to an input port with a bounded-capacity
// connection. A capacity of zero uses RunOptions.DefaultCapacity.
func (net *Network) Connect(from, to PortRef, capacity int) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	if err := net.requireIdle(); err != nil {
		return err
	}

	fromNode, ok := net.nodes[from.Component]
	if !ok {
		return fbperrors.WrapInvalid(fbperrors.ErrUnknownComponent, net.name, from.Component)
	}
	toNode, ok := net.nodes[to.Component]
	if !ok {
		return fbperrors.WrapInvalid(fbperrors.ErrUnknownComponent, net.name, to.Component)
	}

	outSpec, ok := fromNode.desc.OutPort(from.Port)
	if !ok {
		return fbperrors.WrapInvalid(fbperrors.ErrUnknownPort, from.Component, from.Port)
	}
	inSpec, ok := toNode.desc.InPort(to.Port)
	if !ok {
		return fbperrors.WrapInvalid(fbperrors.ErrUnknownPort, to.Component, to.Port)
	}
	if outSpec.Array != (from.Index != nil) {
		return fbperrors.WrapInvalid(fmt.Errorf("port %q array/index mismatch", from.Port), from.Component, "Connect")
	}
	if inSpec.Array != (to.Index != nil) {
		return fbperrors.WrapInvalid(fmt.Errorf("port %q array/index mismatch", to.Port), to.Component, "Connect")
	}

	if err := port.ValidateCompatible(outSpec.Type, inSpec.Type); err != nil {
		return fbperrors.WrapInvalid(err, net.name, "Connect")
	}

	if fromNode.outConnected[from.Port] > 0 {
		if !outSpec.FanOut {
			return fbperrors.WrapInvalid(fbperrors.ErrDuplicateConnection, from.Component, from.Port)
		}
		if !outSpec.Type.Cloneable() {
			return fbperrors.WrapInvalid(fbperrors.ErrNotCloneable, from.Component, from.Port)
		}
	}
	if toNode.inConnected[to.Port] > 0 && !inSpec.Array {
		return fbperrors.WrapInvalid(fbperrors.ErrPortAlreadyInitialized, to.Component, to.Port)
	}
	if net.hasIIP(to.Component, to.Port, to.Index) {
		return fbperrors.WrapInvalid(fbperrors.ErrPortAlreadyInitialized, to.Component, to.Port)
	}

	if capacity <= 0 {
		capacity = net.opts.DefaultCapacity
	}
	net.edges = append(net.edges, Edge{From: from, To: to, Capacity: capacity})
	fromNode.outConnected[from.Port]++
	toNode.inConnected[to.Port]++
	return nil
}

// Disconnect removes a single connection.
func (net *Network) Disconnect(from, to PortRef) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	if err := net.requireIdle(); err != nil {
		return err
	}

	for i, e := range net.edges {
		if refEqual(e.From, from) && refEqual(e.To, to) {
			net.edges = append(net.edges[:i], net.edges[i+1:]...)
			if n, ok := net.nodes[from.Component]; ok {
				n.outConnected[from.Port]--
			}
			if n, ok := net.nodes[to.Component]; ok {
				n.inConnected[to.Port]--
			}
			return nil
		}
	}
	return fbperrors.WrapInvalid(fmt.Errorf("no connection %s -> %s", refString(from), refString(to)), net.name, "Disconnect")
}

// Initialize attaches an IIP to ref, including array-port indices that
// AddComponent's convenience iips map cannot address.
func (net *Network) Initialize(ref PortRef, value any) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	if err := net.requireIdle(); err != nil {
		return err
	}
	n, ok := net.nodes[ref.Component]
	if !ok {
		return fbperrors.WrapInvalid(fbperrors.ErrUnknownComponent, net.name, ref.Component)
	}
	spec, ok := n.desc.InPort(ref.Port)
	if !ok {
		return fbperrors.WrapInvalid(fbperrors.ErrUnknownPort, ref.Component, ref.Port)
	}
	if spec.Array != (ref.Index != nil) {
		return fbperrors.WrapInvalid(fmt.Errorf("port %q array/index mismatch", ref.Port), ref.Component, "Initialize")
	}
	if n.inConnected[ref.Port] > 0 && !spec.Array {
		return fbperrors.WrapInvalid(fbperrors.ErrPortAlreadyInitialized, ref.Component, ref.Port)
	}
	if net.hasIIP(ref.Component, ref.Port, ref.Index) {
		return fbperrors.WrapInvalid(fbperrors.ErrPortAlreadyInitialized, ref.Component, ref.Port)
	}
	net.iips = append(net.iips, IIP{To: ref, Value: value})
	n.inConnected[ref.Port]++
	return nil
}

// Uninitialize removes a previously-attached IIP.
func (net *Network) Uninitialize(ref PortRef) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	if err := net.requireIdle(); err != nil {
		return err
	}
	for i, iip := range net.iips {
		if refEqual(iip.To, ref) {
			net.iips = append(net.iips[:i], net.iips[i+1:]...)
			if n, ok := net.nodes[ref.Component]; ok {
				n.inConnected[ref.Port]--
			}
			return nil
		}
	}
	return fbperrors.WrapInvalid(fmt.Errorf("no IIP on %s", refString(ref)), net.name, "Uninitialize")
}

func (net *Network) hasIIP(component, port string, index *int) bool {
	for _, iip := range net.iips {
		if iip.To.Component == component && iip.To.Port == port && indexEqual(iip.To.Index, index) {
			return true
		}
	}
	return false
}

func refEqual(a, b PortRef) bool {
	return a.Component == b.Component && a.Port == b.Port && indexEqual(a.Index, b.Index)
}

func indexEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func refString(r PortRef) string {
	if r.Index != nil {
		return fmt.Sprintf("%s.%s[%d]", r.Component, r.Port, *r.Index)
	}
	return fmt.Sprintf("%s.%s", r.Component, r.Port)
}

// Validate runs the build-time graph checks without starting a run: every
// required input port has a connection, an IIP, or a default.
func (net *Network) Validate() AnalysisResult {
	net.mu.RLock()
	defer net.mu.RUnlock()
	return net.validateLocked()
}

func (net *Network) validateLocked() AnalysisResult {
	result := analyze(net.nodes, net.edges, net.iips)
	// A required port with a default is satisfied even with zero explicit
	// connections/IIPs: materialize attaches the default as an IIP.
	filtered := result.UnconnectedPorts[:0]
	for _, ref := range result.UnconnectedPorts {
		n := net.nodes[ref.Component]
		spec, _ := n.desc.InPort(ref.Port)
		if spec.HasDefault {
			continue
		}
		filtered = append(filtered, ref)
	}
	result.UnconnectedPorts = filtered
	result.Healthy = len(result.UnconnectedPorts) == 0
	return result
}

// ListComponents returns every component name in the graph.
func (net *Network) ListComponents() []string {
	net.mu.RLock()
	defer net.mu.RUnlock()
	names := make([]string, 0, len(net.nodes))
	for name := range net.nodes {
		names = append(names, name)
	}
	return names
}

// ListConnections returns every edge in the graph.
func (net *Network) ListConnections() []Edge {
	net.mu.RLock()
	defer net.mu.RUnlock()
	out := make([]Edge, len(net.edges))
	copy(out, net.edges)
	return out
}

// DescribeComponent returns the static descriptor of an already-added
// component instance, keyed by its name in this network.
func (net *Network) DescribeComponent(name string) (component.Descriptor, error) {
	net.mu.RLock()
	defer net.mu.RUnlock()
	n, ok := net.nodes[name]
	if !ok {
		return component.Descriptor{}, fbperrors.WrapInvalid(fbperrors.ErrUnknownComponent, net.name, name)
	}
	return n.desc, nil
}

// Status reports the network's current run state for the control surface.
type Status struct {
	Name       string          `json:"name"`
	State      string          `json:"state"`
	RunID      string          `json:"run_id,omitempty"`
	Suspended  []string        `json:"suspended,omitempty"`
	Deadlocked bool            `json:"deadlocked"`
	Cancelled  bool            `json:"cancelled"`
	Errors     []RecordedError `json:"errors,omitempty"`
}

// Status returns a snapshot of the network's run state.
func (net *Network) Status() Status {
	net.mu.RLock()
	defer net.mu.RUnlock()
	st := Status{
		Name:       net.name,
		State:      net.state.String(),
		RunID:      net.runID,
		Suspended:  append([]string(nil), net.suspended...),
		Deadlocked: net.deadlocked,
		Cancelled:  net.cancelled,
	}
	if net.errorLog != nil {
		for _, key := range net.errorLog.Keys() {
			if v, ok := net.errorLog.Peek(key); ok {
				st.Errors = append(st.Errors, v)
			}
		}
	}
	return st
}

func specArraySize(spec port.Spec) int {
	if spec.Arity.Kind == port.Fixed {
		return spec.Arity.Fixed
	}
	return 0
}
