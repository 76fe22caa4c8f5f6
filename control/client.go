package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/network"
)

// Client drives a running Server's HTTP control surface, for cmd/fbpctl and
// embedding programs that don't link against network directly.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient wraps baseURL (e.g. "http://localhost:8080/"). A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return fbperrors.WrapInvalid(err, "control.Client", "do")
		}
	}

	return withRetry(ctx, defaultRetryConfig(), func() error {
		var reader io.Reader
		if raw != nil {
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fbperrors.WrapInvalid(err, "control.Client", "do")
		}
		if raw != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fbperrors.WrapTransient(err, "control.Client", "do")
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			var errBody struct {
				Error string `json:"error"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&errBody)
			msg := errBody.Error
			if msg == "" {
				msg = resp.Status
			}
			if resp.StatusCode == http.StatusServiceUnavailable {
				return fbperrors.WrapTransient(fmt.Errorf("%s", msg), "control.Client", method+" "+path)
			}
			return fbperrors.WrapInvalid(fmt.Errorf("%s", msg), "control.Client", method+" "+path)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fbperrors.WrapInvalid(err, "control.Client", "decode response")
		}
		return nil
	})
}

// AddComponent calls add_component.
func (c *Client) AddComponent(ctx context.Context, name, kind string, config json.RawMessage, iips map[string]any) error {
	return c.do(ctx, http.MethodPost, "components", addComponentRequest{Name: name, Kind: kind, Config: config, IIPs: iips}, nil)
}

// RemoveComponent calls remove_component.
func (c *Client) RemoveComponent(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "components/"+name, nil, nil)
}

// Connect calls connect.
func (c *Client) Connect(ctx context.Context, from, to network.PortRef, capacity int) error {
	return c.do(ctx, http.MethodPost, "connections", connectionRequest{From: FormatPortRef(from), To: FormatPortRef(to), Capacity: capacity}, nil)
}

// Disconnect calls disconnect.
func (c *Client) Disconnect(ctx context.Context, from, to network.PortRef) error {
	return c.do(ctx, http.MethodDelete, "connections", connectionRequest{From: FormatPortRef(from), To: FormatPortRef(to)}, nil)
}

// Initialize calls initialize.
func (c *Client) Initialize(ctx context.Context, ref network.PortRef, value any) error {
	return c.do(ctx, http.MethodPost, "iips", iipRequest{Port: FormatPortRef(ref), Value: value}, nil)
}

// Uninitialize calls uninitialize.
func (c *Client) Uninitialize(ctx context.Context, ref network.PortRef) error {
	return c.do(ctx, http.MethodDelete, "iips", iipRequest{Port: FormatPortRef(ref)}, nil)
}

// Run calls run().
func (c *Client) Run(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "run", nil, nil)
}

// Terminate calls terminate().
func (c *Client) Terminate(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "terminate", nil, nil)
}

// Status calls status().
func (c *Client) Status(ctx context.Context) (network.Status, error) {
	var status network.Status
	err := c.do(ctx, http.MethodGet, "status", nil, &status)
	return status, err
}

// ListComponents calls list_components().
func (c *Client) ListComponents(ctx context.Context) ([]string, error) {
	var names []string
	err := c.do(ctx, http.MethodGet, "components", nil, &names)
	return names, err
}

// ListConnections calls list_connections().
func (c *Client) ListConnections(ctx context.Context) ([]map[string]string, error) {
	var edges []map[string]string
	err := c.do(ctx, http.MethodGet, "connections", nil, &edges)
	return edges, err
}

// DescribeComponent calls describe_component(kind) against the registry.
func (c *Client) DescribeComponent(ctx context.Context, kind string) (network.DescriptorFormat, error) {
	var format network.DescriptorFormat
	err := c.do(ctx, http.MethodGet, "describe/"+kind, nil, &format)
	return format, err
}
