package binding

import (
	"fmt"
	"sync/atomic"

	"github.com/chazu/mira/sched"
)

// ---------------------------------------------------------------------------
// Region: one registered allocation
// ---------------------------------------------------------------------------

// Region is the registry's record of one registered allocation: the byte
// range it occupies, the scheduler that owns deliveries into it, and the
// outbound edges keyed by source address.
type Region struct {
	rng   Range
	sched sched.Scheduler // nil falls back to the process main queue

	// anchor pins the registered object so the collector cannot recycle
	// its address while the region is live.
	anchor any

	alive atomic.Bool

	// edges maps source address to the edges stored under it, in insertion
	// order. Guarded by the owning Registry's mutex.
	edges map[uintptr][]*edge
}

func newRegion(rng Range, s sched.Scheduler, anchor any) *Region {
	rg := &Region{
		rng:    rng,
		sched:  s,
		anchor: anchor,
		edges:  make(map[uintptr][]*edge),
	}
	rg.alive.Store(true)
	return rg
}

// Range returns the byte range the region covers.
func (rg *Region) Range() Range {
	return rg.rng
}

// Alive reports whether the region is still registered. Edges capture
// regions across scheduler hops; a delivery that finds its region dead
// drops out without touching the destination.
func (rg *Region) Alive() bool {
	return rg.alive.Load()
}

// Scheduler returns the scheduler that deliveries into this region use. A
// region registered without one falls back to the process main queue; nil
// means no queue is configured anywhere and delivery runs inline.
func (rg *Region) Scheduler() sched.Scheduler {
	if rg.sched != nil {
		return rg.sched
	}
	if m := sched.Main(); m != nil {
		return m
	}
	return nil
}

// ---------------------------------------------------------------------------
// Edge: one stored connection
// ---------------------------------------------------------------------------

// Handle identifies the edges inserted by one connect call. Handles are
// unique for the process lifetime and increase monotonically from 1. The
// zero Handle means "no edge was inserted".
type Handle uint64

// DeliveryMode selects how an edge hands a value to the destination
// scheduler.
type DeliveryMode int

const (
	// Deferred always enqueues onto the destination scheduler.
	Deferred DeliveryMode = iota

	// Immediate runs inline when the notifying goroutine already owns the
	// destination scheduler, and enqueues otherwise.
	Immediate
)

// String returns a human-readable mode name.
func (m DeliveryMode) String() string {
	switch m {
	case Deferred:
		return "deferred"
	case Immediate:
		return "immediate"
	default:
		return fmt.Sprintf("DeliveryMode(%d)", int(m))
	}
}

// edge is one stored connection. It lives in its source region's table
// under each source address it names; multi-source edges share one id.
type edge struct {
	id  Handle
	seq uint64 // insertion order tie-break across keys

	srcAddrs  []uintptr
	dstAddr   uintptr
	dstRegion *Region
	mode      DeliveryMode

	// handler re-reads the source and pushes to the destination; it runs
	// on the notifying goroutine.
	handler func(*edge)

	srcDesc string
	dstDesc string

	removed atomic.Bool
}

// describe renders the edge for logs.
func (e *edge) describe() string {
	src, dst := e.srcDesc, e.dstDesc
	if src == "" {
		src = fmt.Sprintf("%#x", e.srcAddrs)
	}
	if dst == "" {
		dst = fmt.Sprintf("%#x", e.dstAddr)
	}
	return fmt.Sprintf("edge %d %s -> %s", e.id, src, dst)
}
