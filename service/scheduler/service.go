package scheduler

import (
	"sync"
	"time"

	"github.com/Saroosh05/MiniMindOS/service/process"
)

// TimeQuantum is the fixed time slice per tick. The same constant drives the
// tick loop's sleep interval and the amount of CPU time credited to the
// current process - keep those coupled or cpu_time drifts from uptime.
const TimeQuantum = 100 * time.Millisecond

// NoProcess marks the current-process pointer as empty.
const NoProcess = -1

// joinTimeout bounds how long Stop waits for the loop to observe the stop
// signal.
const joinTimeout = 2 * TimeQuantum

// Table is the slice of the process service the scheduler needs: it stores
// pids only and re-validates them here on every tick.
type Table interface {
	Get(pid int) (process.Process, bool)
	SetState(pid int, state process.State) bool
	AddCPUTime(pid int, seconds float64)
}

// Stats reports scheduler counters for display.
type Stats struct {
	CurrentPID      int           `json:"currentPid"`
	ContextSwitches int           `json:"contextSwitches"`
	TotalTime       float64       `json:"totalTime"`
	Quantum         time.Duration `json:"quantum"`
	Running         bool          `json:"running"`
}

// Service is a round-robin dispatcher with strict priority preemption: one
// FIFO queue per priority level, scanned from 5 down to 1 each tick. The
// internal lock is never held across a call into the process table; the
// table's observers may legally call back into Dequeue.
type Service struct {
	table Table

	mu              sync.Mutex
	queues          map[int][]int
	current         int
	pending         int
	running         bool
	stopCh          chan struct{}
	doneCh          chan struct{}
	contextSwitches int
	totalTime       float64
	quantum         time.Duration
}

// New creates a stopped scheduler bound to the given process table.
func New(table Table) *Service {
	queues := make(map[int][]int, process.MaxPriority)
	for level := process.MinPriority; level <= process.MaxPriority; level++ {
		queues[level] = nil
	}
	return &Service{
		table:   table,
		queues:  queues,
		current: NoProcess,
		pending: NoProcess,
		quantum: TimeQuantum,
	}
}

// Start launches the background tick loop. Calling Start on a running
// scheduler is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.loop(stopCh, doneCh)
}

// Stop signals the tick loop and waits, bounded, for it to exit. Stopping a
// stopped scheduler is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
	case <-time.After(joinTimeout):
	}
}

func (s *Service) loop(stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(s.quantum)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick()
			s.mu.Lock()
			s.totalTime += s.quantum.Seconds()
			s.mu.Unlock()
		}
	}
}

// tick performs one dispatch: select the next runnable pid, switch states if
// it differs from the previous current and credit one quantum of CPU time.
// A tick with no runnable pid leaves the current pointer untouched.
func (s *Service) tick() {
	prev, next, ok := s.dispatch()
	if !ok {
		return
	}

	if prev != next {
		if prev != NoProcess {
			s.table.SetState(prev, process.StateReady)
		}
		s.table.SetState(next, process.StateRunning)
	}
	s.table.AddCPUTime(next, s.quantum.Seconds())
}

// dispatch scans priority levels from highest to lowest and pops the front
// of the first non-empty queue. A pid whose process no longer exists (or is
// terminated) is dropped, not requeued, and the scan moves on to the next
// level. A valid pid is rotated to the back of its queue (round robin) and
// becomes current, in the same critical section.
//
// The table lookup runs unlocked; the popped pid is parked in s.pending for
// that window so a concurrent Dequeue can revoke it. A revoked pid is
// dropped exactly as a stale one.
func (s *Service) dispatch() (prev, next int, ok bool) {
	for level := process.MaxPriority; level >= process.MinPriority; level-- {
		s.mu.Lock()
		queue := s.queues[level]
		if len(queue) == 0 {
			s.mu.Unlock()
			continue
		}
		pid := queue[0]
		s.queues[level] = append([]int(nil), queue[1:]...)
		s.pending = pid
		s.mu.Unlock()

		proc, live := s.table.Get(pid)

		s.mu.Lock()
		revoked := s.pending != pid
		s.pending = NoProcess
		if revoked || !live || proc.State == process.StateTerminated {
			s.mu.Unlock()
			continue // stale or just dequeued, silently dropped
		}
		s.queues[level] = append(s.queues[level], pid)
		prev = s.current
		if prev != pid {
			s.current = pid
			s.contextSwitches++
		}
		s.mu.Unlock()
		return prev, pid, true
	}
	return NoProcess, NoProcess, false
}

// Enqueue appends pid to the ready queue of the clamped priority level.
func (s *Service) Enqueue(pid, priority int) {
	priority = process.ClampPriority(priority)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[priority] = append(s.queues[priority], pid)
}

// Dequeue removes pid from whichever queue holds it. When pid is the current
// process the pointer is cleared; the next tick naturally picks a successor.
// A pid mid-validation in dispatch is revoked so it cannot be requeued.
func (s *Service) Dequeue(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for level, queue := range s.queues {
		for i, queued := range queue {
			if queued == pid {
				s.queues[level] = append(queue[:i:i], queue[i+1:]...)
				break
			}
		}
	}
	if s.pending == pid {
		s.pending = NoProcess
	}
	if s.current == pid {
		s.current = NoProcess
	}
}

// QueueSnapshot returns, per priority level, the ordered pids currently
// queued. For visualisation only.
func (s *Service) QueueSnapshot() map[int][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int][]int, len(s.queues))
	for level, queue := range s.queues {
		out[level] = append([]int(nil), queue...)
	}
	return out
}

// Stats returns the scheduler counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		CurrentPID:      s.current,
		ContextSwitches: s.contextSwitches,
		TotalTime:       s.totalTime,
		Quantum:         s.quantum,
		Running:         s.running,
	}
}
