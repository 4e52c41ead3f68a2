// Package minimind assembles the MiniMind OS simulation: a child-friendly
// operating system model with the classic kernel trio underneath a
// kid-proof surface.
//
// The core services are:
//
//   - memory    – fixed 1024 KB pool with a bump allocator
//   - process   – process table, lifecycle and observers
//   - scheduler – priority round-robin over five ready queues
//   - vfs       – sandboxed virtual file system
//   - parental  – password gate, time limits and bedtime lock
//   - hardware  – simulated CPU, display, clock and audio
//
// Hosts embed the engine through the Service façade and drive it via the
// Runtime:
//
//	srv := minimind.New(minimind.WithDataURL("data"))
//	rt := srv.Runtime()
//	rt.Start()
//	pid, err := rt.Launch(ctx, "drawing")
//	...
//	rt.Shutdown()
//
// For details see the individual service sub-packages.
package minimind
