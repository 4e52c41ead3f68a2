package memory

import (
	"log"
	"sort"
	"sync"
)

// Memory constants in KB-equivalent units.
const (
	// TotalCapacity is the size of the whole simulated address space.
	TotalCapacity = 1024

	// SystemReserved is pre-allocated to PID 0 at initialisation and can
	// never be freed.
	SystemReserved = 256

	// UserCapacity is what remains for applications.
	UserCapacity = TotalCapacity - SystemReserved
)

// Block represents one contiguous allocation owned by a process.
type Block struct {
	PID   int    `json:"pid"`
	Start int    `json:"start"`
	Size  int    `json:"size"`
	Name  string `json:"name"`
}

// End returns the first offset past the block.
func (b *Block) End() int { return b.Start + b.Size }

// Stats summarises pool usage for display.
type Stats struct {
	Total          int     `json:"total"`
	Used           int     `json:"used"`
	Free           int     `json:"free"`
	Percent        float64 `json:"percent"`
	SystemReserved int     `json:"systemReserved"`
	BlockCount     int     `json:"blockCount"`
}

// Service tracks a fixed-size pool of simulated address space and hands out
// contiguous slices keyed by process id.
//
// Allocation is a plain bump allocator: a new block always starts at the
// current high-water mark of used capacity and offsets freed earlier are
// never reused. The accounting itself stays exact - only the offsets
// fragment. This is deliberate; the fragmentation is part of what the
// memory map visualisation teaches.
type Service struct {
	mu     sync.Mutex
	blocks map[int]*Block
	used   int
}

// New creates an allocator with the system block for PID 0 already in place.
func New() *Service {
	s := &Service{
		blocks: make(map[int]*Block),
		used:   SystemReserved,
	}
	s.blocks[0] = &Block{PID: 0, Start: 0, Size: SystemReserved, Name: "System Reserved"}
	return s
}

// Allocate reserves size units for pid. It returns false without any side
// effect when the request exceeds the currently free capacity.
func (s *Service) Allocate(pid, size int, name string) bool {
	if size < 1 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if TotalCapacity-s.used < size {
		log.Printf("memory: allocation failed for pid %d: need %dKB, only %dKB free", pid, size, TotalCapacity-s.used)
		return false
	}
	s.blocks[pid] = &Block{PID: pid, Start: s.used, Size: size, Name: name}
	s.used += size
	return true
}

// Free releases the block owned by pid. It returns false for an unknown pid
// and for PID 0, whose block is permanent.
func (s *Service) Free(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.blocks[pid]
	if !ok {
		return false
	}
	if pid == 0 {
		log.Printf("memory: refusing to free system reserved block")
		return false
	}
	delete(s.blocks, pid)
	s.used -= block.Size
	return true
}

// FreeCapacity returns the number of units currently available.
func (s *Service) FreeCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TotalCapacity - s.used
}

// UsedCapacity returns the number of units currently allocated.
func (s *Service) UsedCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// UsagePercent returns pool usage in percent.
func (s *Service) UsagePercent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.used) / float64(TotalCapacity) * 100
}

// CapacityFor returns the size of the block owned by pid, or 0 when pid has
// no allocation.
func (s *Service) CapacityFor(pid int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if block, ok := s.blocks[pid]; ok {
		return block.Size
	}
	return 0
}

// Snapshot returns copies of all blocks ordered by ascending start offset,
// for visualisation only.
func (s *Service) Snapshot() []Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Block, 0, len(s.blocks))
	for _, block := range s.blocks {
		out = append(out, *block)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Stats returns aggregate usage numbers for display.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Total:          TotalCapacity,
		Used:           s.used,
		Free:           TotalCapacity - s.used,
		Percent:        float64(s.used) / float64(TotalCapacity) * 100,
		SystemReserved: SystemReserved,
		BlockCount:     len(s.blocks),
	}
}
