// Package memory simulates a fixed 1MB pool of RAM for the teaching OS.
// It deals in bookkeeping only - no real memory is reserved. Blocks are
// bump-allocated and never compacted so that repeated allocate/free cycles
// leave visible gaps in the memory map.
package memory
