package control_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/c360/fbpcore/component"
	"github.com/c360/fbpcore/control"
	"github.com/c360/fbpcore/network"
)

type noopComponent struct{}

func (noopComponent) Descriptor() component.Descriptor {
	return component.Descriptor{Name: "noop"}
}

func (noopComponent) Run(ctx context.Context, self *component.Instance) error {
	<-ctx.Done()
	return nil
}

func newTestServer(t *testing.T) (*control.Client, func()) {
	t.Helper()
	reg := component.NewRegistry()
	require.NoError(t, reg.RegisterFactory("noop", &component.Registration{
		Name:       "noop",
		Factory:    func(_ json.RawMessage, _ component.Dependencies) (component.Component, error) { return noopComponent{}, nil },
		Descriptor: noopComponent{}.Descriptor(),
	}))

	net := network.New("test", reg, component.Dependencies{}, network.DefaultRunOptions())
	srv := control.NewServer(net)
	ts := httptest.NewServer(srv.Handler("/"))
	client := control.NewClient(ts.URL, ts.Client())
	return client, ts.Close
}

func TestControlAddAndListComponents(t *testing.T) {
	client, closeServer := newTestServer(t)
	defer closeServer()
	ctx := context.Background()

	require.NoError(t, client.AddComponent(ctx, "a", "noop", nil, nil))
	require.NoError(t, client.AddComponent(ctx, "b", "noop", nil, nil))

	names, err := client.ListComponents(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestControlUnknownKindRejected(t *testing.T) {
	client, closeServer := newTestServer(t)
	defer closeServer()
	ctx := context.Background()

	err := client.AddComponent(ctx, "a", "does-not-exist", nil, nil)
	require.Error(t, err)
}

func TestControlRunAndTerminate(t *testing.T) {
	client, closeServer := newTestServer(t)
	defer closeServer()
	ctx := context.Background()

	require.NoError(t, client.AddComponent(ctx, "a", "noop", nil, nil))
	require.NoError(t, client.Run(ctx))

	require.Eventually(t, func() bool {
		status, err := client.Status(ctx)
		return err == nil && status.State == network.Running.String()
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, client.Terminate(ctx))

	require.Eventually(t, func() bool {
		status, err := client.Status(ctx)
		return err == nil && status.State != network.Running.String()
	}, time.Second, 10*time.Millisecond)
}

func TestControlDescribeKind(t *testing.T) {
	client, closeServer := newTestServer(t)
	defer closeServer()
	ctx := context.Background()

	format, err := client.DescribeComponent(ctx, "noop")
	require.NoError(t, err)
	require.Equal(t, "noop", format.Kind)
}
