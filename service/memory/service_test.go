package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestService_Allocate(t *testing.T) {
	testCases := []struct {
		name     string
		requests []int
		granted  []bool
		used     int
	}{
		{
			name:     "fits exactly into user capacity",
			requests: []int{256, 256, 256},
			granted:  []bool{true, true, true},
			used:     TotalCapacity,
		},
		{
			name:     "oversized request rejected without side effect",
			requests: []int{512, 512},
			granted:  []bool{true, false},
			used:     SystemReserved + 512,
		},
		{
			name:     "zero size rejected",
			requests: []int{0},
			granted:  []bool{false},
			used:     SystemReserved,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			for i, size := range tc.requests {
				ok := s.Allocate(i+1, size, "app")
				assert.Equal(t, tc.granted[i], ok, "request %d", i)
			}
			assert.Equal(t, tc.used, s.UsedCapacity())
			assert.Equal(t, TotalCapacity-tc.used, s.FreeCapacity())
		})
	}
}

func TestService_FailedAllocateLeavesNoBlock(t *testing.T) {
	s := New()
	assert.False(t, s.Allocate(1, UserCapacity+1, "too big"))
	assert.Equal(t, 0, s.CapacityFor(1))
	assert.Equal(t, SystemReserved, s.UsedCapacity())
	assert.Len(t, s.Snapshot(), 1)
}

func TestService_Free(t *testing.T) {
	s := New()
	assert.True(t, s.Allocate(1, 100, "drawing"))
	assert.Equal(t, 100, s.CapacityFor(1))

	assert.True(t, s.Free(1))
	assert.Equal(t, 0, s.CapacityFor(1))
	assert.Equal(t, SystemReserved, s.UsedCapacity())

	// Unknown pid and double free.
	assert.False(t, s.Free(1))
	assert.False(t, s.Free(42))
}

func TestService_FreeSystemBlock(t *testing.T) {
	s := New()
	assert.False(t, s.Free(0))
	assert.Equal(t, SystemReserved, s.UsedCapacity())
	assert.Equal(t, SystemReserved, s.CapacityFor(0))
}

func TestService_SnapshotOrderedByStart(t *testing.T) {
	s := New()
	assert.True(t, s.Allocate(1, 128, "drawing"))
	assert.True(t, s.Allocate(2, 96, "music"))

	snapshot := s.Snapshot()
	assert.Len(t, snapshot, 3)
	assert.Equal(t, 0, snapshot[0].PID)
	assert.Equal(t, 0, snapshot[0].Start)
	assert.Equal(t, SystemReserved, snapshot[1].Start)
	assert.Equal(t, 1, snapshot[1].PID)
	assert.Equal(t, SystemReserved+128, snapshot[2].Start)
	assert.Equal(t, snapshot[2].Start+96, snapshot[2].End())
}

func TestService_BumpOffsetFollowsAccounting(t *testing.T) {
	s := New()
	assert.True(t, s.Allocate(1, 128, "drawing")) // starts at 256
	assert.True(t, s.Allocate(2, 64, "music"))    // starts at 384
	assert.True(t, s.Free(1))
	assert.Equal(t, SystemReserved+64, s.UsedCapacity())

	// No free list: the next start offset is derived purely from the used
	// counter, not from the gap the freed block left behind.
	assert.True(t, s.Allocate(3, 64, "puzzle"))
	snapshot := s.Snapshot()
	last := snapshot[len(snapshot)-1]
	assert.Equal(t, 2, last.PID)
	for _, block := range snapshot {
		if block.PID == 3 {
			assert.Equal(t, SystemReserved+64, block.Start)
		}
	}
}

func TestService_Stats(t *testing.T) {
	s := New()
	assert.True(t, s.Allocate(1, 256, "drawing"))
	stats := s.Stats()
	assert.Equal(t, TotalCapacity, stats.Total)
	assert.Equal(t, 512, stats.Used)
	assert.Equal(t, 512, stats.Free)
	assert.InDelta(t, 50.0, stats.Percent, 0.001)
	assert.Equal(t, 2, stats.BlockCount)
}

func TestService_ConcurrentAllocate(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			s.Allocate(pid, 64, "app")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, SystemReserved+8*64, s.UsedCapacity())
}
