// Package network implements the Network: the addressable graph of component
// instances and connections, its build operations, and the Run scheduler
// that launches one goroutine per component and detects quiescence and
// deadlock.
package network

import "github.com/c360/fbpcore/component"

// node is one component instance in the build-time graph, tracked separately
// from the runtime component.Instance so build operations
// (add_component/connect/disconnect/remove_component) can be validated
// before any goroutine exists.
type node struct {
	name string
	kind string
	desc component.Descriptor
	comp component.Component
	// connected records, per port name, how many connections/IIPs feed or
	// drain it — used to validate required-port-unconnected and
	// duplicate-connection at build time.
	inConnected  map[string]int
	outConnected map[string]int
}

func newNode(name, kind string, comp component.Component) *node {
	desc := comp.Descriptor()
	n := &node{
		name: name, kind: kind, desc: desc, comp: comp,
		inConnected:  make(map[string]int),
		outConnected: make(map[string]int),
	}
	for _, p := range desc.InPorts {
		n.inConnected[p.Name] = 0
	}
	for _, p := range desc.OutPorts {
		n.outConnected[p.Name] = 0
	}
	return n
}

// PortRef names one endpoint of a connection: a component instance and one
// of its ports, with an optional array index.
type PortRef struct {
	Component string `json:"component" yaml:"component"`
	Port      string `json:"port" yaml:"port"`
	Index     *int   `json:"index,omitempty" yaml:"index,omitempty"`
}

// Edge is one connection in the build-time graph.
type Edge struct {
	From     PortRef `json:"from" yaml:"from"`
	To       PortRef `json:"to" yaml:"to"`
	Capacity int     `json:"capacity" yaml:"capacity"`
}

// IIP is an initial information packet attached to a component's input port.
type IIP struct {
	To    PortRef `json:"to" yaml:"to"`
	Value any     `json:"value" yaml:"value"`
}

// AnalysisResult reports structural issues in the current graph: components
// with no connections at all, and required ports left unconnected. It does
// not mutate the graph; Network.Validate calls it before Run.
type AnalysisResult struct {
	Healthy           bool
	DisconnectedNodes []string
	UnconnectedPorts  []PortRef
}

// analyze walks the current node/edge set: disconnected-node detection via
// undirected adjacency, plus the required-port rule (a required in-port with
// zero connections and no IIP is always an error, not a warning, because FBP
// connections are explicit rather than inferred from a pub/sub subject).
func analyze(nodes map[string]*node, edges []Edge, iips []IIP) AnalysisResult {
	result := AnalysisResult{Healthy: true}

	hasConnection := make(map[string]bool)
	for _, e := range edges {
		hasConnection[e.From.Component] = true
		hasConnection[e.To.Component] = true
	}
	for _, i := range iips {
		hasConnection[i.To.Component] = true
	}
	for name := range nodes {
		if !hasConnection[name] {
			result.DisconnectedNodes = append(result.DisconnectedNodes, name)
		}
	}

	for name, n := range nodes {
		for _, spec := range n.desc.InPorts {
			if !spec.Required {
				continue
			}
			if n.inConnected[spec.Name] > 0 {
				continue
			}
			result.UnconnectedPorts = append(result.UnconnectedPorts, PortRef{Component: name, Port: spec.Name})
		}
	}

	if len(result.UnconnectedPorts) > 0 {
		result.Healthy = false
	}
	return result
}

