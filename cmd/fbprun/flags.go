package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// cliConfig holds command-line configuration; every value flag falls back to
// an environment variable (the -version, -help and -validate switches have
// none).
type cliConfig struct {
	GraphPath       string
	LogLevel        string
	LogFormat       string
	ControlAddr     string
	DeadlockPolicy  string
	DefaultCapacity int
	GracePeriod     time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags() *cliConfig {
	cfg := &cliConfig{}

	flag.StringVar(&cfg.GraphPath, "graph",
		getEnv("FBPRUN_GRAPH", ""),
		"Path to a graph description file (.json or .yaml) (env: FBPRUN_GRAPH)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("FBPRUN_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: FBPRUN_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("FBPRUN_LOG_FORMAT", "text"),
		"Log format: json, text (env: FBPRUN_LOG_FORMAT)")

	flag.StringVar(&cfg.ControlAddr, "control-addr",
		getEnv("FBPRUN_CONTROL_ADDR", ""),
		"Address to serve the HTTP control surface on, empty to disable (env: FBPRUN_CONTROL_ADDR)")

	flag.StringVar(&cfg.DeadlockPolicy, "deadlock",
		getEnv("FBPRUN_DEADLOCK_POLICY", "lenient"),
		"Deadlock policy: lenient, strict (env: FBPRUN_DEADLOCK_POLICY)")

	flag.IntVar(&cfg.DefaultCapacity, "default-capacity",
		getEnvInt("FBPRUN_DEFAULT_CAPACITY", 8),
		"Default connection capacity for edges with no explicit capacity (env: FBPRUN_DEFAULT_CAPACITY)")

	flag.DurationVar(&cfg.GracePeriod, "grace-period",
		getEnvDuration("FBPRUN_GRACE_PERIOD", 5*time.Second),
		"Grace period after terminate() before a forced exit (env: FBPRUN_GRACE_PERIOD)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate the graph and exit without running it")

	flag.Usage = func() { printHelp() }
	flag.Parse()

	return cfg
}

func validateFlags(cfg *cliConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}
	if cfg.GraphPath == "" {
		return fmt.Errorf("-graph is required")
	}
	if _, err := os.Stat(cfg.GraphPath); err != nil {
		return fmt.Errorf("graph file not found: %s", cfg.GraphPath)
	}
	if cfg.DeadlockPolicy != "lenient" && cfg.DeadlockPolicy != "strict" {
		return fmt.Errorf("invalid deadlock policy: %s", cfg.DeadlockPolicy)
	}
	return nil
}

func printHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - run a flow-based graph description

Usage: %s -graph=<path> [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  %s -graph=examples/hello_goodbye_world.yaml
  %s -graph=graph.json -control-addr=:8080
  %s -graph=graph.json -validate

Version: %s
`, os.Args[0], os.Args[0], os.Args[0], Version)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
