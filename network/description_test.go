package network_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/fbpcore/component"
	"github.com/c360/fbpcore/network"
	"github.com/c360/fbpcore/stdlib"
)

func newGraphFixture(t *testing.T) *network.Network {
	t.Helper()
	reg := component.NewRegistry()
	require.NoError(t, stdlib.Register(reg))
	net := network.New("roundtrip", reg, component.Dependencies{}, network.DefaultRunOptions())

	require.NoError(t, net.AddComponent("source", "Source", nil, nil))
	require.NoError(t, net.AddComponent("l2w", "LineToWords", nil, nil))
	require.NoError(t, net.Connect(ref("source", "OUT"), ref("l2w", "IN"), 4))
	require.NoError(t, net.Initialize(ref("source", "CONST"), "a line"))
	return net
}

func TestExportCapturesGraph(t *testing.T) {
	net := newGraphFixture(t)

	desc := net.Export()
	assert.Len(t, desc.Components, 2)
	assert.Equal(t, "Source", desc.Components["source"].Kind)
	require.Len(t, desc.Connections, 1)
	assert.Equal(t, ref("source", "OUT"), desc.Connections[0].From)
	assert.Equal(t, 4, desc.Connections[0].Capacity)
	require.Len(t, desc.IIPs, 1)
	assert.Equal(t, "a line", desc.IIPs[0].Value)
}

func TestImportJSONRoundTrip(t *testing.T) {
	net := newGraphFixture(t)
	raw, err := net.ExportJSON()
	require.NoError(t, err)

	reg := component.NewRegistry()
	require.NoError(t, stdlib.Register(reg))
	fresh := network.New("imported", reg, component.Dependencies{}, network.DefaultRunOptions())
	require.NoError(t, fresh.ImportJSON(raw))

	assert.Equal(t, net.Export(), fresh.Export())
}

func TestImportYAMLRoundTrip(t *testing.T) {
	net := newGraphFixture(t)
	raw, err := net.ExportYAML()
	require.NoError(t, err)

	reg := component.NewRegistry()
	require.NoError(t, stdlib.Register(reg))
	fresh := network.New("imported", reg, component.Dependencies{}, network.DefaultRunOptions())
	require.NoError(t, fresh.ImportYAML(raw))

	desc := fresh.Export()
	assert.Len(t, desc.Components, 2)
	require.Len(t, desc.Connections, 1)
	assert.Equal(t, ref("l2w", "IN"), desc.Connections[0].To)
	require.Len(t, desc.IIPs, 1)
	assert.Equal(t, "a line", desc.IIPs[0].Value)
}

func TestImportRejectsUnknownKind(t *testing.T) {
	net := newGraphFixture(t)
	desc := net.Export()
	desc.Components["ghost"] = network.ComponentEntry{Kind: "NoSuchKind"}

	reg := component.NewRegistry()
	require.NoError(t, stdlib.Register(reg))
	fresh := network.New("imported", reg, component.Dependencies{}, network.DefaultRunOptions())
	require.Error(t, fresh.Import(desc))
}
