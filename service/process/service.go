package process

import (
	"log"
	"sort"
	"sync"

	"github.com/Saroosh05/MiniMindOS/internal/clock"
	"github.com/Saroosh05/MiniMindOS/service/memory"
)

// Priority bounds; 5 is the highest.
const (
	MinPriority = 1
	MaxPriority = 5
)

// InitPID is the id of the system init process synthesized at construction.
const InitPID = 0

// Allocator is the slice of the memory service the table needs to reserve
// and release backing memory.
type Allocator interface {
	Allocate(pid, size int, name string) bool
	Free(pid int) bool
}

// Observer is invoked after every successful create, terminate or state
// change. Panics inside an observer are recovered and discarded so that one
// misbehaving UI callback cannot break scheduling.
type Observer func()

// Service owns the process table and provides lifecycle operations with
// accompanying memory side effects. The internal lock is held across the
// allocator call during Create - lock ordering is strictly one-way (table
// into allocator, never back) so no inversion can occur.
type Service struct {
	mu        sync.Mutex
	table     map[int]*Process
	nextPID   int
	allocator Allocator

	obsMu     sync.Mutex
	observers []Observer
}

// New creates a process table with the init process (PID 0) already running.
// The init row mirrors the allocator's pre-reserved system block instead of
// going through Allocate.
func New(allocator Allocator) *Service {
	s := &Service{
		table:     make(map[int]*Process),
		nextPID:   1,
		allocator: allocator,
	}
	s.table[InitPID] = &Process{
		PID:        InitPID,
		Name:       "MiniMind Init",
		Priority:   MaxPriority,
		State:      StateRunning,
		MemoryUsed: memory.SystemReserved,
		StartTime:  clock.Now(),
		Icon:       "⚙️",
	}
	return s
}

// ClampPriority forces priority into the valid [MinPriority, MaxPriority]
// range.
func ClampPriority(priority int) int {
	if priority < MinPriority {
		return MinPriority
	}
	if priority > MaxPriority {
		return MaxPriority
	}
	return priority
}

// Create allocates backing memory and inserts a new process row in Ready
// state, returning the fresh pid. When the allocation fails it returns
// (0, false) and the pid counter is not consumed.
func (s *Service) Create(name string, priority, memoryRequired int, icon string, parentPID int) (int, bool) {
	priority = ClampPriority(priority)
	s.mu.Lock()
	if !s.allocator.Allocate(s.nextPID, memoryRequired, name) {
		s.mu.Unlock()
		log.Printf("process: failed to create %q: not enough memory", name)
		return 0, false
	}
	pid := s.nextPID
	s.nextPID++
	proc := &Process{
		PID:        pid,
		Name:       name,
		Priority:   priority,
		State:      StateNew,
		MemoryUsed: memoryRequired,
		StartTime:  clock.Now(),
		ParentPID:  parentPID,
		Icon:       icon,
	}
	s.table[pid] = proc
	proc.State = StateReady
	s.mu.Unlock()

	s.notify()
	return pid, true
}

// Terminate removes the process row, releases its memory and notifies
// observers. It returns false for an unknown pid and for the init process.
func (s *Service) Terminate(pid int) bool {
	s.mu.Lock()
	proc, ok := s.table[pid]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if pid == InitPID {
		s.mu.Unlock()
		log.Printf("process: refusing to terminate init process")
		return false
	}
	proc.State = StateTerminated
	s.allocator.Free(pid)
	delete(s.table, pid)
	s.mu.Unlock()

	s.notify()
	return true
}

// SetState mutates the state of a known process. Terminated rows are removed
// from the table, so they can never be re-entered through this path.
func (s *Service) SetState(pid int, state State) bool {
	s.mu.Lock()
	proc, ok := s.table[pid]
	if !ok {
		s.mu.Unlock()
		return false
	}
	proc.State = state
	s.mu.Unlock()

	s.notify()
	return true
}

// Get returns a copy of the process row for pid.
func (s *Service) Get(pid int) (Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc, ok := s.table[pid]
	if !ok {
		return Process{}, false
	}
	return *proc, true
}

// List returns copies of all live rows ordered by pid.
func (s *Service) List() []Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Process, 0, len(s.table))
	for _, proc := range s.table {
		out = append(out, *proc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Runnable returns copies of the rows in Running or Ready state.
func (s *Service) Runnable() []Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Process, 0, len(s.table))
	for _, proc := range s.table {
		if proc.State == StateRunning || proc.State == StateReady {
			out = append(out, *proc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Count returns the number of live rows, the init process included.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table)
}

// AddCPUTime accumulates seconds of CPU time on a known pid. Unknown pids
// are a silent no-op; the scheduler calls this for ids that may have been
// terminated between selection and crediting.
func (s *Service) AddCPUTime(pid int, seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if proc, ok := s.table[pid]; ok {
		proc.CPUTime += seconds
	}
}

// AddObserver registers a callback invoked after every successful mutation.
func (s *Service) AddObserver(observer Observer) {
	if observer == nil {
		return
	}
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, observer)
}

// notify runs outside the table lock so an observer may call back into the
// service (or into the scheduler) without deadlocking.
func (s *Service) notify() {
	s.obsMu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()
	for _, observer := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("process: observer panic recovered: %v", r)
				}
			}()
			observer()
		}()
	}
}
