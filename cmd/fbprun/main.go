// Package main implements fbprun, a CLI that builds a Network from a graph
// description file and runs it to completion.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/c360/fbpcore/component"
	"github.com/c360/fbpcore/control"
	"github.com/c360/fbpcore/eventbus"
	"github.com/c360/fbpcore/metric"
	"github.com/c360/fbpcore/network"
	"github.com/c360/fbpcore/stdlib"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "fbprun"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("fbprun failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	if cfg.ShowHelp {
		printHelp()
		return nil
	}
	if cfg.ShowVersion {
		fmt.Printf("%s %s (%s)\n", appName, Version, BuildTime)
		return nil
	}
	if err := validateFlags(cfg); err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	raw, err := os.ReadFile(cfg.GraphPath)
	if err != nil {
		return fmt.Errorf("reading graph file: %w", err)
	}

	reg := component.NewRegistry()
	if err := stdlib.Register(reg); err != nil {
		return fmt.Errorf("registering stdlib components: %w", err)
	}

	deps := component.Dependencies{
		Logger:  logger,
		Metrics: metric.NewRegistry(),
		Events:  eventbus.New(nil),
	}

	opts := network.DefaultRunOptions()
	opts.DefaultCapacity = cfg.DefaultCapacity
	if cfg.DeadlockPolicy == "strict" {
		opts.Deadlock = network.DeadlockStrict
	}
	opts.GracePeriod = cfg.GracePeriod

	name := strings.TrimSuffix(filepath.Base(cfg.GraphPath), filepath.Ext(cfg.GraphPath))
	net := network.New(name, reg, deps, opts)

	if err := importGraph(net, cfg.GraphPath, raw); err != nil {
		return fmt.Errorf("importing graph: %w", err)
	}

	analysis := net.Validate()
	if !analysis.Healthy {
		return fmt.Errorf("graph is not runnable: %d required port(s) unconnected", len(analysis.UnconnectedPorts))
	}
	if cfg.Validate {
		slog.Info("graph is valid")
		return nil
	}

	var controlServer *http.Server
	if cfg.ControlAddr != "" {
		controlServer = &http.Server{Addr: cfg.ControlAddr, Handler: control.NewServer(net).Handler("/")}
		go func() {
			if err := controlServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("control server failed", "error", err)
			}
		}()
		slog.Info("control surface listening", "addr", cfg.ControlAddr)
		defer controlServer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := net.Run(ctx)

	status := net.Status()
	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))

	if runErr != nil {
		return runErr
	}
	if status.Deadlocked || len(status.Errors) > 0 {
		return fmt.Errorf("network %q finished with state %q", name, status.State)
	}
	return nil
}

func importGraph(net *network.Network, path string, raw []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return net.ImportYAML(raw)
	default:
		return net.ImportJSON(raw)
	}
}
