package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saroosh05/MiniMindOS/service/memory"
)

func newService() (*Service, *memory.Service) {
	allocator := memory.New()
	return New(allocator), allocator
}

func TestService_InitProcess(t *testing.T) {
	s, _ := newService()
	init, ok := s.Get(InitPID)
	require.True(t, ok)
	assert.Equal(t, StateRunning, init.State)
	assert.Equal(t, MaxPriority, init.Priority)
	assert.Equal(t, memory.SystemReserved, init.MemoryUsed)
	assert.Equal(t, 1, s.Count())
}

func TestService_Create(t *testing.T) {
	s, allocator := newService()
	pid, ok := s.Create("Drawing App", 4, 128, "🎨", 0)
	require.True(t, ok)
	assert.Equal(t, 1, pid)

	proc, ok := s.Get(pid)
	require.True(t, ok)
	assert.Equal(t, StateReady, proc.State)
	assert.Equal(t, 128, proc.MemoryUsed)
	assert.Equal(t, 128, allocator.CapacityFor(pid))
}

func TestService_CreatePriorityClamped(t *testing.T) {
	s, _ := newService()
	pid, ok := s.Create("noisy", 9, 32, "🔷", 0)
	require.True(t, ok)
	proc, _ := s.Get(pid)
	assert.Equal(t, MaxPriority, proc.Priority)

	pid, ok = s.Create("quiet", -1, 32, "🔷", 0)
	require.True(t, ok)
	proc, _ = s.Get(pid)
	assert.Equal(t, MinPriority, proc.Priority)
}

func TestService_CreateOutOfMemoryKeepsPID(t *testing.T) {
	s, allocator := newService()
	pid, ok := s.Create("Huge", 3, memory.UserCapacity+1, "🔷", 0)
	assert.False(t, ok)
	assert.Equal(t, 0, pid)
	assert.Equal(t, memory.SystemReserved, allocator.UsedCapacity())

	// The failed call must not consume the pid counter.
	pid, ok = s.Create("Drawing App", 4, 128, "🎨", 0)
	require.True(t, ok)
	assert.Equal(t, 1, pid)
}

func TestService_Terminate(t *testing.T) {
	s, allocator := newService()
	pid, ok := s.Create("Music Player", 3, 96, "🎵", 0)
	require.True(t, ok)

	assert.True(t, s.Terminate(pid))
	_, ok = s.Get(pid)
	assert.False(t, ok)
	assert.Equal(t, 0, allocator.CapacityFor(pid))
	assert.Equal(t, memory.SystemReserved, allocator.UsedCapacity())

	// Already gone.
	assert.False(t, s.Terminate(pid))
}

func TestService_TerminateInitRefused(t *testing.T) {
	s, _ := newService()
	assert.False(t, s.Terminate(InitPID))
	_, ok := s.Get(InitPID)
	assert.True(t, ok)
}

func TestService_SetState(t *testing.T) {
	s, _ := newService()
	pid, _ := s.Create("Puzzle Games", 4, 80, "🧩", 0)

	assert.True(t, s.SetState(pid, StateWaiting))
	proc, _ := s.Get(pid)
	assert.Equal(t, StateWaiting, proc.State)

	assert.False(t, s.SetState(99, StateReady))
}

func TestService_RunnableAndList(t *testing.T) {
	s, _ := newService()
	a, _ := s.Create("A", 3, 32, "🔷", 0)
	b, _ := s.Create("B", 3, 32, "🔷", 0)
	s.SetState(b, StateWaiting)

	runnable := s.Runnable()
	pids := make([]int, 0, len(runnable))
	for _, proc := range runnable {
		pids = append(pids, proc.PID)
	}
	assert.Equal(t, []int{InitPID, a}, pids)
	assert.Len(t, s.List(), 3)
}

func TestService_AddCPUTime(t *testing.T) {
	s, _ := newService()
	pid, _ := s.Create("A", 3, 32, "🔷", 0)
	s.AddCPUTime(pid, 0.1)
	s.AddCPUTime(pid, 0.1)
	proc, _ := s.Get(pid)
	assert.InDelta(t, 0.2, proc.CPUTime, 1e-9)

	// Silent no-op for unknown pid.
	s.AddCPUTime(404, 0.1)
}

func TestService_ObserverNotifiedAndIsolated(t *testing.T) {
	s, _ := newService()
	calls := 0
	s.AddObserver(func() { panic("broken UI callback") })
	s.AddObserver(func() { calls++ })

	pid, ok := s.Create("A", 3, 32, "🔷", 0)
	require.True(t, ok)
	assert.Equal(t, 1, calls)

	s.SetState(pid, StateWaiting)
	assert.Equal(t, 2, calls)

	s.Terminate(pid)
	assert.Equal(t, 3, calls)

	// Failed mutations do not notify.
	s.Terminate(pid)
	assert.Equal(t, 3, calls)
}
