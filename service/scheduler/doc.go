// Package scheduler simulates CPU dispatch for the teaching OS: round robin
// within a priority level, strict preemption across levels, one fixed
// quantum credited per tick. Nothing is actually preempted - the "context
// switch" is a counter and a pair of state flips on the process table.
package scheduler
