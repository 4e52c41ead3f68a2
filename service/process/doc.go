// Package process owns the table of simulated processes. Every launched app
// becomes a row with its own pid, state, priority and resource usage. The
// table is the arena; other components hold pids only and must resolve them
// here on every use.
package process
