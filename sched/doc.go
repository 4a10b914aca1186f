// Package sched implements goroutine-affine task queues.
//
// This package contains:
//   - The Scheduler interface with its three dispatch modes
//   - TaskQueue, a FIFO queue owned by the goroutine that created it
//   - Future, the completion handle returned by Dispatch
//   - The process-wide main queue used as the default delivery target
package sched
