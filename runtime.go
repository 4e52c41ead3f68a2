package minimind

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/Saroosh05/MiniMindOS/service/activity"
	"github.com/Saroosh05/MiniMindOS/service/event"
	"github.com/Saroosh05/MiniMindOS/service/hardware"
	"github.com/Saroosh05/MiniMindOS/service/memory"
	"github.com/Saroosh05/MiniMindOS/service/parental"
	"github.com/Saroosh05/MiniMindOS/service/process"
	"github.com/Saroosh05/MiniMindOS/service/scheduler"
	"github.com/Saroosh05/MiniMindOS/service/vfs"
	"github.com/Saroosh05/MiniMindOS/tracing"
)

// Launch failures.
var (
	ErrSystemLocked  = errors.New("system is locked")
	ErrAppNotAllowed = errors.New("app is not allowed")
	ErrUnknownApp    = errors.New("unknown app")
	ErrOutOfMemory   = errors.New("not enough memory")
)

// AppSpec describes a launchable application.
type AppSpec struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MemoryKB int    `json:"memoryKB"`
	Priority int    `json:"priority"`
	Icon     string `json:"icon"`
}

// ParentPanelID launches even while the system is locked; parents need a way
// in.
const ParentPanelID = "parent_panel"

var appCatalog = map[string]AppSpec{
	"drawing":     {ID: "drawing", Name: "Drawing App", MemoryKB: 128, Priority: 4, Icon: "🎨"},
	"stories":     {ID: "stories", Name: "Story Reader", MemoryKB: 64, Priority: 3, Icon: "📚"},
	"music":       {ID: "music", Name: "Music Player", MemoryKB: 96, Priority: 3, Icon: "🎵"},
	"puzzle":      {ID: "puzzle", Name: "Puzzle Games", MemoryKB: 80, Priority: 4, Icon: "🧩"},
	ParentPanelID: {ID: ParentPanelID, Name: "Parent Panel", MemoryKB: 64, Priority: 5, Icon: "👨‍👩‍👧"},
}

// Runtime is the façade hosts drive: app launching, process and memory
// queries, parent mode, lifecycle of the background services.
type Runtime struct {
	service  *Service
	listener *event.Listener[string]
}

func newRuntime(s *Service) *Runtime {
	r := &Runtime{service: s}
	r.listener = event.NewListener(s.publisher, r.dispatch)

	// A lock throws the kids out: every non-init process is terminated.
	s.parental.OnLock(func(reason string) {
		r.TerminateAll()
		r.publish("system.locked", 0, reason)
	})
	return r
}

// Start launches the background services: scheduler tick loop, usage
// tracking, hardware clock and the event listener.
func (r *Runtime) Start() {
	r.service.scheduler.Start()
	r.service.parental.Start()
	r.service.hardware.Start()
	r.listener.Start()
	r.service.activity.Log("SYSTEM", "MiniMind OS started", "system")
	r.publish("system.started", 0, "")
}

// Shutdown stops the background services in reverse order.
func (r *Runtime) Shutdown() {
	r.service.activity.Log("SYSTEM", "MiniMind OS shutdown", "system")
	r.listener.Stop()
	r.service.hardware.Shutdown()
	r.service.parental.Stop()
	r.service.scheduler.Stop()
}

// Launch starts a catalog app as a new process, enforcing the parental
// rules first. The parent panel bypasses the lock and the allow list.
func (r *Runtime) Launch(ctx context.Context, appID string) (pid int, err error) {
	_, span := tracing.StartSpan(ctx, "runtime.launch")
	defer func() { tracing.EndSpan(span.WithAttributes(map[string]string{"app": appID}), err) }()

	if appID != ParentPanelID {
		if locked, reason := r.service.parental.Locked(); locked {
			return 0, errors.Wrapf(ErrSystemLocked, "%v", reason)
		}
		if !r.service.parental.AppAllowed(appID) {
			return 0, errors.Wrapf(ErrAppNotAllowed, "%v", appID)
		}
	}
	spec, ok := appCatalog[appID]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownApp, "%v", appID)
	}
	pid, ok = r.CreateProcess(spec.Name, spec.Priority, spec.MemoryKB, spec.Icon)
	if !ok {
		return 0, errors.Wrapf(ErrOutOfMemory, "%v needs %vKB", spec.Name, spec.MemoryKB)
	}
	return pid, nil
}

// Apps returns the launchable catalog.
func (r *Runtime) Apps() []AppSpec {
	specs := make([]AppSpec, 0, len(appCatalog))
	for _, id := range []string{"drawing", "stories", "music", "puzzle", ParentPanelID} {
		specs = append(specs, appCatalog[id])
	}
	return specs
}

// CreateProcess admits a process and enqueues it for scheduling. It returns
// false when memory is exhausted.
func (r *Runtime) CreateProcess(name string, priority, memoryKB int, icon string) (int, bool) {
	_, span := tracing.StartSpan(context.Background(), "process.create")
	defer tracing.EndSpan(span.WithAttributes(map[string]string{"name": name}), nil)

	pid, ok := r.service.processes.Create(name, priority, memoryKB, icon, process.InitPID)
	if !ok {
		r.service.activity.Log("PROCESS", "Failed to start "+name+": out of memory", "system")
		return 0, false
	}
	r.service.scheduler.Enqueue(pid, priority)
	r.service.activity.Log("PROCESS", "Process created: "+name, "system")
	r.publish("process.created", pid, name)
	return pid, true
}

// TerminateProcess removes a process from the scheduler and the table,
// releasing its memory. The init process is refused.
func (r *Runtime) TerminateProcess(pid int) bool {
	_, span := tracing.StartSpan(context.Background(), "process.terminate")
	defer tracing.EndSpan(span, nil)

	info, ok := r.service.processes.Get(pid)
	if !ok {
		return false
	}
	r.service.scheduler.Dequeue(pid)
	if !r.service.processes.Terminate(pid) {
		return false
	}
	r.service.activity.Log("PROCESS", "Process terminated: "+info.Name, "system")
	r.publish("process.terminated", pid, info.Name)
	return true
}

// TerminateAll terminates every process except init.
func (r *Runtime) TerminateAll() {
	for _, info := range r.service.processes.List() {
		if info.PID == process.InitPID {
			continue
		}
		r.TerminateProcess(info.PID)
	}
}

// Processes returns the process table sorted by pid.
func (r *Runtime) Processes() []process.Process {
	return r.service.processes.List()
}

// Process returns a single process row.
func (r *Runtime) Process(pid int) (process.Process, bool) {
	return r.service.processes.Get(pid)
}

// MemorySnapshot returns the allocated blocks ordered by start offset.
func (r *Runtime) MemorySnapshot() []memory.Block {
	return r.service.allocator.Snapshot()
}

// MemoryStats returns pool usage figures.
func (r *Runtime) MemoryStats() memory.Stats {
	return r.service.allocator.Stats()
}

// SchedulerStats returns dispatcher counters.
func (r *Runtime) SchedulerStats() scheduler.Stats {
	return r.service.scheduler.Stats()
}

// QueueSnapshot returns the ready queues keyed by priority.
func (r *Runtime) QueueSnapshot() map[int][]int {
	return r.service.scheduler.QueueSnapshot()
}

// SystemInfo aggregates the hardware figures for the monitor screen.
func (r *Runtime) SystemInfo() hardware.SystemInfo {
	return r.service.hardware.Info()
}

// EnterParentMode authenticates the parent. File system access widens to the
// parent user on success.
func (r *Runtime) EnterParentMode(password string) bool {
	if !r.service.parental.EnterParentMode(password) {
		return false
	}
	r.service.files.SetUser(vfs.UserParent)
	return true
}

// ExitParentMode returns to kid mode and narrows file system access.
func (r *Runtime) ExitParentMode() {
	r.service.parental.ExitParentMode()
	r.service.files.SetUser(vfs.UserKid)
}

// Unlock clears a parental lock with the parent password.
func (r *Runtime) Unlock(password string) bool {
	return r.service.parental.Unlock(password)
}

// FileSystem exposes the sandboxed virtual file system.
func (r *Runtime) FileSystem() *vfs.Service {
	return r.service.files
}

// Parental exposes the parental control service.
func (r *Runtime) Parental() *parental.Service {
	return r.service.parental
}

// Activity exposes the activity log.
func (r *Runtime) Activity() *activity.Service {
	return r.service.activity
}

// Hardware exposes the hardware simulation.
func (r *Runtime) Hardware() *hardware.Service {
	return r.service.hardware
}

// RegisterObserver registers a process table observer.
func (r *Runtime) RegisterObserver(observer process.Observer) {
	r.service.processes.AddObserver(observer)
}

func (r *Runtime) publish(kind string, pid int, detail string) {
	e := event.NewEvent(&event.Context{Kind: kind, PID: pid, Detail: detail}, detail)
	_ = r.service.publisher.Publish(context.Background(), e)
}

func (r *Runtime) dispatch(e *event.Event[string]) {
	for _, handler := range r.service.eventHandlers {
		handler(e)
	}
}
