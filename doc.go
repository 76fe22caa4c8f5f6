// Package fbpcore is a runtime for Flow-Based Programming (FBP): a
// computation is a directed graph of independent components that
// communicate exclusively by sending immutable information packets over
// bounded, named ports connected by point-to-point connections.
//
// # Model
//
// A Network owns components and connections; a component owns its declared
// ports; a connection owns its queued packets. Packets transfer ownership
// across those boundaries on send and receive, and the runtime reports any
// component that terminates still holding packets.
//
//	┌──────────┐  OUT        IN  ┌──────────┐  OUT        IN  ┌──────────┐
//	│  Source  ├────►(conn)─────►│ Transform├────►(conn)─────►│   Sink   │
//	└──────────┘   bounded FIFO  └──────────┘   bounded FIFO  └──────────┘
//
// Each component runs on its own goroutine; every connection is a bounded
// FIFO whose capacity is the sole backpressure mechanism. The network
// drives the graph from start to quiescence, detecting deadlock (every live
// component suspended, and no queued packet waiting for a consumer that is
// blocked in receive) and propagating component errors
// by closing the faulting component's ports in both directions.
//
// # Packages
//
//   - ip: the information packet — typed, owned, normal or bracket role
//   - port: ports, connections, IIPs, array ports, per-port type contracts
//   - component: the component contract, descriptors, registry, lifecycle
//   - network: graph building, scheduling, deadlock and termination
//     detection, graph description import/export
//   - subnet: composite components wrapping an inner network
//   - control: HTTP control surface and Go client for a running network
//   - eventbus: the structured event stream, with an optional NATS sink
//   - metric: Prometheus metrics for networks, components, and connections
//   - stdlib: built-in widget components for example and test graphs
//   - errors: error classification shared across packages
//
// # Usage
//
//	reg := component.NewRegistry()
//	stdlib.Register(reg)
//
//	net := network.New("hello", reg, component.Dependencies{}, network.DefaultRunOptions())
//	net.AddComponent("source", "Source", nil, map[string]any{"CONST": "Hello Goodbye World"})
//	net.AddComponent("split", "LineToWords", nil, nil)
//	net.AddComponent("out", "Output", nil, nil)
//	net.Connect(network.PortRef{Component: "source", Port: "OUT"}, network.PortRef{Component: "split", Port: "IN"}, 8)
//	net.Connect(network.PortRef{Component: "split", Port: "OUT"}, network.PortRef{Component: "out", Port: "IN"}, 8)
//
//	err := net.Run(ctx) // blocks until quiescence, deadlock, error, or cancellation
//
// The cmd/fbprun binary runs a graph description file (JSON or YAML) with
// an optional HTTP control surface; cmd/fbpctl drives that surface from the
// command line.
package fbpcore
