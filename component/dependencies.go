package component

import (
	"log/slog"

	"github.com/c360/fbpcore/eventbus"
	"github.com/c360/fbpcore/metric"
)

// Dependencies provides the external services a component factory may use,
// kept to the ambient stack the runtime itself needs.
type Dependencies struct {
	Logger  *slog.Logger
	Metrics *metric.Registry // may be nil
	Events  *eventbus.Bus    // may be nil
}

// GetLogger returns the configured logger, or slog.Default() if none was
// provided.
func (d Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// WithComponent returns a logger annotated with the component's instance
// name.
func (d Dependencies) WithComponent(name string) *slog.Logger {
	return d.GetLogger().With("component", name)
}
