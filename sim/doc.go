// Package sim provides the core discrete-event simulation kernel for procsim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - time.go: Time, the tolerance used by every comparison, priorities and wait requests
//   - registry.go: one pending event per process, with in-place activation (decrease-key)
//   - environment.go: the scheduling loop (Start, RunUntil, Activate)
//   - process.go / task.go: the suspend/resume contract and the coroutine adapter
//
// # Architecture
//
// The kernel is single-threaded and cooperative. Exactly one process runs at
// a time, between being resumed and yielding its next WaitRequest. The
// Environment pops the globally earliest event, advances time, resumes the
// owning process and schedules whatever it yields next.
//
// Sub-packages:
//   - sim/pheap/: pairing heap with O(1) decrease-key, the registry's backing store
//   - sim/locks/: Lock, RLock, Semaphore, WaitEvent and Latch built on Activate
//   - sim/trace/: event trace recording via hooks, summaries, SQLite export
//   - sim/scenario/: runnable example workloads driven by YAML configuration
//
// Synchronization primitives never touch the heap. They park waiters with the
// Park wait request and wake them through Environment.Activate, so every
// ordering guarantee comes from the registry.
package sim
