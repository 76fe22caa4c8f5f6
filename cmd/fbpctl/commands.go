package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/c360/fbpcore/control"
)

func clientFrom(c *cli.Context) *control.Client {
	return control.NewClient(c.String("addr"), nil)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// parseIIPs turns "PORT=value" pairs (one per --iip flag) into a map, trying
// to decode each value as JSON first so numbers/bools/objects round-trip,
// falling back to the raw string for anything that isn't valid JSON.
func parseIIPs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	iips := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		port, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --iip %q, want PORT=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		iips[port] = value
	}
	return iips, nil
}

func addComponentCommand() *cli.Command {
	return &cli.Command{
		Name:      "add-component",
		Usage:     "Add a component instance to the network",
		ArgsUsage: "NAME KIND",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Component configuration as a JSON object"},
			&cli.StringSliceFlag{Name: "iip", Usage: "Initial information packet PORT=value, repeatable"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("expected NAME and KIND arguments", 1)
			}
			name, kind := c.Args().Get(0), c.Args().Get(1)
			var rawConfig json.RawMessage
			if cfg := c.String("config"); cfg != "" {
				rawConfig = json.RawMessage(cfg)
			}
			iips, err := parseIIPs(c.StringSlice("iip"))
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := clientFrom(c).AddComponent(c.Context, name, kind, rawConfig, iips); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("added %s (%s)\n", name, kind)
			return nil
		},
	}
}

func removeComponentCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove-component",
		Usage:     "Remove a component instance from the network",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("expected NAME argument", 1)
			}
			if err := clientFrom(c).RemoveComponent(c.Context, c.Args().First()); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("removed %s\n", c.Args().First())
			return nil
		},
	}
}

func connectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Wire a connection between two ports",
		ArgsUsage: "FROM TO",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "capacity", Usage: "Connection buffer capacity", Value: 8},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("expected FROM and TO port references", 1)
			}
			from, err := control.ParsePortRef(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err, 1)
			}
			to, err := control.ParsePortRef(c.Args().Get(1))
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := clientFrom(c).Connect(c.Context, from, to, c.Int("capacity")); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("connected %s -> %s\n", c.Args().Get(0), c.Args().Get(1))
			return nil
		},
	}
}

func disconnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "disconnect",
		Usage:     "Remove a connection between two ports",
		ArgsUsage: "FROM TO",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("expected FROM and TO port references", 1)
			}
			from, err := control.ParsePortRef(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err, 1)
			}
			to, err := control.ParsePortRef(c.Args().Get(1))
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := clientFrom(c).Disconnect(c.Context, from, to); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("disconnected %s -> %s\n", c.Args().Get(0), c.Args().Get(1))
			return nil
		},
	}
}

func initializeCommand() *cli.Command {
	return &cli.Command{
		Name:      "initialize",
		Usage:     "Attach an initial information packet to a port",
		ArgsUsage: "PORT VALUE",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("expected PORT and VALUE arguments", 1)
			}
			ref, err := control.ParsePortRef(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err, 1)
			}
			raw := c.Args().Get(1)
			var value any
			if err := json.Unmarshal([]byte(raw), &value); err != nil {
				value = raw
			}
			if err := clientFrom(c).Initialize(c.Context, ref, value); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("initialized %s\n", c.Args().Get(0))
			return nil
		},
	}
}

func uninitializeCommand() *cli.Command {
	return &cli.Command{
		Name:      "uninitialize",
		Usage:     "Remove a port's initial information packet",
		ArgsUsage: "PORT",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("expected PORT argument", 1)
			}
			ref, err := control.ParsePortRef(c.Args().First())
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := clientFrom(c).Uninitialize(c.Context, ref); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("uninitialized %s\n", c.Args().First())
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the network running",
		Action: func(c *cli.Context) error {
			if err := clientFrom(c).Run(c.Context); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Println("run started")
			return nil
		},
	}
}

func terminateCommand() *cli.Command {
	return &cli.Command{
		Name:  "terminate",
		Usage: "Request cancellation of the running network",
		Action: func(c *cli.Context) error {
			if err := clientFrom(c).Terminate(c.Context); err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Println("terminate requested")
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print the network's current status",
		Action: func(c *cli.Context) error {
			status, err := clientFrom(c).Status(c.Context)
			if err != nil {
				return cli.Exit(err, 1)
			}
			return printJSON(status)
		},
	}
}

func listComponentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-components",
		Usage: "List component instances in the network",
		Action: func(c *cli.Context) error {
			names, err := clientFrom(c).ListComponents(c.Context)
			if err != nil {
				return cli.Exit(err, 1)
			}
			return printJSON(names)
		},
	}
}

func listConnectionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-connections",
		Usage: "List connections in the network",
		Action: func(c *cli.Context) error {
			edges, err := clientFrom(c).ListConnections(c.Context)
			if err != nil {
				return cli.Exit(err, 1)
			}
			return printJSON(edges)
		},
	}
}

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Describe a registered component kind",
		ArgsUsage: "KIND",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("expected KIND argument", 1)
			}
			format, err := clientFrom(c).DescribeComponent(c.Context, c.Args().First())
			if err != nil {
				return cli.Exit(err, 1)
			}
			return printJSON(format)
		},
	}
}
