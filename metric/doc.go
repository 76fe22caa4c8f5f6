// Package metric publishes the network and component runtime statistics
// of the status surface as Prometheus metrics.
//
// A Registry holds a Core set of metrics (component state, packet and
// connection counters, deadlock counts) that every Network.Run records
// automatically, plus an extension point for components to register their
// own collectors. Server exposes a Registry over HTTP at /metrics and
// /health.
package metric
