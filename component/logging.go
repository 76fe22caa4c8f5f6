package component

import (
	"context"
	"log/slog"

	"github.com/c360/fbpcore/eventbus"
)

// Logger is a component-scoped logger that writes structured local logs via
// slog and, when an event bus is configured, mirrors error-level messages
// onto the event stream as ComponentErrored events for bus subscribers.
type Logger struct {
	network   string
	component string
	slog      *slog.Logger
	bus       *eventbus.Bus
}

// NewLogger creates a component logger. bus may be nil, disabling event
// mirroring.
func NewLogger(network, componentName string, base *slog.Logger, bus *eventbus.Bus) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{
		network:   network,
		component: componentName,
		slog:      base.With("network", network, "component", componentName),
		bus:       bus,
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }

// Error logs locally and, if a bus is configured, publishes a
// ComponentErrored event so bus subscribers see it without tailing logs.
func (l *Logger) Error(_ context.Context, msg string, err error) {
	l.slog.Error(msg, "error", err)
	if l.bus == nil {
		return
	}
	message := msg
	if err != nil {
		message = msg + ": " + err.Error()
	}
	l.bus.Publish(eventbus.Event{
		Kind:      eventbus.ComponentErrored,
		Network:   l.network,
		Component: l.component,
		Message:   message,
	})
}
