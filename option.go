package minimind

import (
	"github.com/viant/afs"

	"github.com/Saroosh05/MiniMindOS/service/event"
	"github.com/Saroosh05/MiniMindOS/service/messaging"
	"github.com/Saroosh05/MiniMindOS/service/parental"
	"github.com/Saroosh05/MiniMindOS/service/process"
	"github.com/Saroosh05/MiniMindOS/tracing"
)

// Option customises the Service assembly.
type Option func(s *Service)

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithDataURL sets the base location for persisted state.
func WithDataURL(URL string) Option {
	return func(s *Service) { s.config.DataURL = URL }
}

// WithFS sets the storage service used for persistence.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithPolicy overrides the parental policy.
func WithPolicy(policy parental.Policy) Option {
	return func(s *Service) { s.config.Parental = policy }
}

// WithProcessObserver registers an observer notified on any process table
// change.
func WithProcessObserver(observer process.Observer) Option {
	return func(s *Service) { s.observers = append(s.observers, observer) }
}

// WithEventQueue replaces the in-memory lifecycle event queue.
func WithEventQueue(queue messaging.Queue[event.Event[string]]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithEventHandler registers a handler for lifecycle events. Handlers run on
// the event listener goroutine after Runtime.Start.
func WithEventHandler(handler func(*event.Event[string])) Option {
	return func(s *Service) { s.eventHandlers = append(s.eventHandlers, handler) }
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file
// path. Safe to call multiple times, the first successful initialisation
// wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}
