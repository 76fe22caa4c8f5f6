package network

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/c360/fbpcore/component"
	fbperrors "github.com/c360/fbpcore/errors"
)

// ComponentEntry is one node of a graph description.
type ComponentEntry struct {
	Kind   string          `json:"kind" yaml:"kind"`
	Config json.RawMessage `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Description is the import/export form of a graph: components,
// connections, IIPs, and boundary port specs. Export does not fill InPorts
// or OutPorts, and Import does not apply them.
type Description struct {
	Components  map[string]ComponentEntry `json:"components" yaml:"components"`
	Connections []Edge                    `json:"connections" yaml:"connections"`
	IIPs        []IIP                     `json:"iips,omitempty" yaml:"iips,omitempty"`
	InPorts     map[string]PortRef        `json:"inports,omitempty" yaml:"inports,omitempty"`
	OutPorts    map[string]PortRef        `json:"outports,omitempty" yaml:"outports,omitempty"`
}

// Export renders the network's current build-time graph: each component's
// kind, the connections, and the IIPs. The config passed to AddComponent is
// not kept, so exported components carry no metadata; component-internal
// state is not captured either.
func (net *Network) Export() Description {
	net.mu.RLock()
	defer net.mu.RUnlock()

	desc := Description{
		Components:  make(map[string]ComponentEntry, len(net.nodes)),
		Connections: append([]Edge(nil), net.edges...),
		IIPs:        append([]IIP(nil), net.iips...),
	}
	for name, n := range net.nodes {
		desc.Components[name] = ComponentEntry{Kind: n.kind}
	}
	return desc
}

// ExportJSON renders Export as JSON.
func (net *Network) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(net.Export(), "", "  ")
}

// ExportYAML renders Export as YAML.
func (net *Network) ExportYAML() ([]byte, error) {
	return yaml.Marshal(net.Export())
}

// Import replaces the network's current build-time graph with desc. The
// network must be idle; every referenced component kind must be in the
// registry.
func (net *Network) Import(desc Description) error {
	net.mu.Lock()
	if err := net.requireIdle(); err != nil {
		net.mu.Unlock()
		return err
	}
	net.nodes = make(map[string]*node)
	net.edges = nil
	net.iips = nil
	net.mu.Unlock()

	for name, entry := range desc.Components {
		if err := net.AddComponent(name, entry.Kind, entry.Config, nil); err != nil {
			return fbperrors.Wrap(err, net.name, "Import", fmt.Sprintf("component %q", name))
		}
	}
	for _, e := range desc.Connections {
		if err := net.Connect(e.From, e.To, e.Capacity); err != nil {
			return fbperrors.Wrap(err, net.name, "Import", fmt.Sprintf("connect %s", refString(e.From)))
		}
	}
	for _, i := range desc.IIPs {
		if err := net.Initialize(i.To, i.Value); err != nil {
			return fbperrors.Wrap(err, net.name, "Import", fmt.Sprintf("iip %s", refString(i.To)))
		}
	}
	return nil
}

// ImportJSON parses raw as a JSON Description and imports it.
func (net *Network) ImportJSON(raw []byte) error {
	var desc Description
	if err := json.Unmarshal(raw, &desc); err != nil {
		return fbperrors.WrapInvalid(err, net.name, "ImportJSON")
	}
	return net.Import(desc)
}

// ImportYAML parses raw as a YAML Description and imports it.
func (net *Network) ImportYAML(raw []byte) error {
	var desc Description
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return fbperrors.WrapInvalid(err, net.name, "ImportYAML")
	}
	return net.Import(desc)
}

// DescriptorFormat is the wire shape describe_component returns.
type DescriptorFormat struct {
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
	InPorts     []PortSpecEntry `json:"inports"`
	OutPorts    []PortSpecEntry `json:"outports"`
}

// PortSpecEntry is one port entry of DescriptorFormat.
type PortSpecEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// DescribeComponentFormat returns the wire-format descriptor for an
// already-added component instance, keyed by its name in this network.
func (net *Network) DescribeComponentFormat(name string) (DescriptorFormat, error) {
	desc, err := net.DescribeComponent(name)
	if err != nil {
		return DescriptorFormat{}, err
	}
	return toDescriptorFormat(desc), nil
}

// DescribeKind returns the wire-format descriptor for a registered component
// kind, independent of any instance in this network's graph.
func (net *Network) DescribeKind(kind string) (DescriptorFormat, error) {
	desc, err := net.reg.Describe(kind)
	if err != nil {
		return DescriptorFormat{}, err
	}
	return toDescriptorFormat(desc), nil
}

func toDescriptorFormat(desc component.Descriptor) DescriptorFormat {
	out := DescriptorFormat{Kind: desc.Name, Description: desc.Doc}
	for _, p := range desc.InPorts {
		entry := PortSpecEntry{Name: p.Name, Type: p.Type.Name, Required: p.Required, Description: p.Description}
		if p.HasDefault {
			entry.Default = p.Default
		}
		out.InPorts = append(out.InPorts, entry)
	}
	for _, p := range desc.OutPorts {
		out.OutPorts = append(out.OutPorts, PortSpecEntry{Name: p.Name, Type: p.Type.Name, Required: p.Required, Description: p.Description})
	}
	return out
}
