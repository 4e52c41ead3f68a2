package minimind

import (
	"github.com/viant/afs"

	"github.com/Saroosh05/MiniMindOS/service/activity"
	"github.com/Saroosh05/MiniMindOS/service/event"
	"github.com/Saroosh05/MiniMindOS/service/hardware"
	"github.com/Saroosh05/MiniMindOS/service/memory"
	"github.com/Saroosh05/MiniMindOS/service/messaging"
	mmemory "github.com/Saroosh05/MiniMindOS/service/messaging/memory"
	"github.com/Saroosh05/MiniMindOS/service/parental"
	"github.com/Saroosh05/MiniMindOS/service/process"
	"github.com/Saroosh05/MiniMindOS/service/scheduler"
	"github.com/Saroosh05/MiniMindOS/service/vfs"
)

// Service wires the OS components together. Use Runtime() to drive the
// assembled system.
type Service struct {
	config *Config
	fs     afs.Service

	allocator *memory.Service
	processes *process.Service
	scheduler *scheduler.Service
	activity  *activity.Service
	parental  *parental.Service
	files     *vfs.Service
	hardware  *hardware.Service

	queue         messaging.Queue[event.Event[string]]
	publisher     *event.Publisher[string]
	eventHandlers []func(*event.Event[string])
	observers     []process.Observer

	runtime *Runtime
}

// New assembles the OS from its services, applying the supplied options.
func New(options ...Option) *Service {
	s := &Service{config: DefaultConfig()}
	s.init(options)
	return s
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()

	s.allocator = memory.New()
	s.processes = process.New(s.allocator)
	s.scheduler = scheduler.New(s.processes)
	s.hardware = hardware.New(s.allocator)
	s.publisher = event.NewPublisher[string](s.queue)

	var storageOptions []activity.Option
	storageOptions = append(storageOptions, activity.WithMaxEntries(s.config.Activity.MaxEntries))
	if s.config.DataURL != "" {
		storageOptions = append(storageOptions, activity.WithStorage(s.fs, s.config.DataURL))
	}
	s.activity = activity.New(storageOptions...)

	parentalOptions := []parental.Option{
		parental.WithPolicy(s.config.Parental),
		parental.WithActivity(s.activity),
	}
	if s.config.DataURL != "" {
		parentalOptions = append(parentalOptions, parental.WithStorage(s.fs, s.config.DataURL))
	}
	s.parental = parental.New(parentalOptions...)

	var vfsOptions []vfs.Option
	if s.config.DataURL != "" {
		vfsOptions = append(vfsOptions, vfs.WithStorage(s.fs, s.config.DataURL))
	}
	s.files = vfs.New(vfsOptions...)

	for _, observer := range s.observers {
		s.processes.AddObserver(observer)
	}

	s.runtime = newRuntime(s)
}

func (s *Service) ensureBaseSetup() {
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.queue == nil {
		s.queue = mmemory.NewQueue[event.Event[string]](mmemory.DefaultConfig())
	}
}

// Runtime returns the façade used to drive the OS.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the active configuration.
func (s *Service) Config() *Config {
	return s.config
}
