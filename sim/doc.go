// Package sim provides the discrete-event simulation kernel.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Event handles, actions and terminators
//   - ordering.go: the two orderings (stable comparator, packed integer key)
//   - simulator.go: the event loop, starters and end hooks
//   - agent.go: cooperative blocking through per-key queues of retryable operations
//
// # Architecture
//
// The kernel is single-threaded. Actions run to completion and may schedule
// further events directly, through a Repeater, or by resuming an Agent's
// pending operations. Nothing is ever polled: an operation that cannot
// complete stays queued until some other event resumes its key.
//
// Entities built on top of the kernel live in sub-packages:
//   - sim/conveyor/: chained bounded conveyors with backpressure
//   - sim/workload/: cargo arrival records (CSV, inline, periodic)
//   - sim/trace/: acceptance and transfer trace recording and export
package sim
