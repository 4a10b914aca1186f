package binding

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tliron/commonlog"

	"github.com/chazu/mira/sched"
)

var log = commonlog.GetLogger("mira.binding")

// ---------------------------------------------------------------------------
// Registry: ranges -> regions -> edges
// ---------------------------------------------------------------------------

// Registry maps the address ranges of registered objects to Regions and
// stores the edges between them. The zero value is not usable; call New.
//
// All structural state is guarded by one mutex. Notification snapshots the
// relevant edges under the mutex and fires them outside it, so handlers are
// free to connect, disconnect, and notify again.
type Registry struct {
	mu      sync.Mutex
	regions []*Region // ordered by range Min

	nextHandle atomic.Uint64
	nextSeq    atomic.Uint64

	// guards holds, per goroutine, the identifiers that already fired in
	// the current top-level notification. An edge fires at most once per
	// synchronous batch, which stops bidirectional pairs from echoing and
	// collapses multi-source edges hit through several keys at once.
	guardMu sync.Mutex
	guards  map[int64]*guardState

	static *Region
}

// New creates a registry containing only the static region, which covers
// the StaticLifetime anchor and is never unregistered.
func New() *Registry {
	r := &Registry{guards: make(map[int64]*guardState)}
	r.static = newRegion(RangeOf(staticAnchor), nil, staticAnchor)
	r.regions = []*Region{r.static}
	return r
}

var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// ---------------------------------------------------------------------------
// Region registration
// ---------------------------------------------------------------------------

// RegisterRange records rng as a live region whose deliveries run on s; nil
// s nominates the process main queue. The returned region stays valid until
// UnregisterRange.
//
// Overlap with a live region means two objects claim the same bytes, which
// is always a caller bug, so it panics rather than returning an error.
func (r *Registry) RegisterRange(rng Range, s sched.Scheduler) *Region {
	return r.register(rng, s, nil)
}

func (r *Registry) register(rng Range, s sched.Scheduler, anchor any) *Region {
	if rng.Empty() {
		panic(fmt.Sprintf("binding: cannot register empty range %v", rng))
	}
	rg := newRegion(rng, s, anchor)

	r.mu.Lock()
	defer r.mu.Unlock()
	i := sort.Search(len(r.regions), func(i int) bool {
		return r.regions[i].rng.Min >= rng.Min
	})
	if (i > 0 && r.regions[i-1].rng.Overlaps(rng)) ||
		(i < len(r.regions) && r.regions[i].rng.Overlaps(rng)) {
		panic(fmt.Sprintf("binding: range %v overlaps a registered region", rng))
	}
	r.regions = append(r.regions, nil)
	copy(r.regions[i+1:], r.regions[i:])
	r.regions[i] = rg
	log.Debugf("registered region %v", rng)
	return rg
}

// UnregisterRange removes the region registered for exactly rng, together
// with every edge that names an address inside it as source or destination.
// Removal is atomic with respect to notification: a snapshot taken before
// this call observes the region dead and skips its edges. Unregistering an
// unknown range is a no-op.
func (r *Registry) UnregisterRange(rng Range) {
	r.mu.Lock()
	var dead *Region
	i := sort.Search(len(r.regions), func(i int) bool {
		return r.regions[i].rng.Min >= rng.Min
	})
	if i < len(r.regions) && r.regions[i].rng == rng && r.regions[i] != r.static {
		dead = r.regions[i]
		r.regions = append(r.regions[:i], r.regions[i+1:]...)
	}
	if dead != nil {
		dead.alive.Store(false)
		for _, list := range dead.edges {
			for _, e := range list {
				e.removed.Store(true)
			}
		}
		dead.edges = nil
		// Sever edges elsewhere that point into the dead range, in either
		// role.
		for _, rg := range r.regions {
			pruneEdgesLocked(rg, func(e *edge) bool {
				if rng.Contains(e.dstAddr) {
					return true
				}
				for _, a := range e.srcAddrs {
					if rng.Contains(a) {
						return true
					}
				}
				return false
			})
		}
	}
	r.mu.Unlock()
	if dead != nil {
		log.Debugf("unregistered region %v", rng)
	}
}

// pruneEdgesLocked removes the edges of rg matching drop, marking each
// removed, and returns how many entries went away. Caller holds the
// registry mutex.
func pruneEdgesLocked(rg *Region, drop func(*edge) bool) int {
	pruned := 0
	for key, list := range rg.edges {
		kept := list[:0]
		for _, e := range list {
			if drop(e) {
				e.removed.Store(true)
				pruned++
			} else {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(rg.edges, key)
		} else {
			rg.edges[key] = kept
		}
	}
	return pruned
}

// LookupRegion returns the live region containing addr, or nil.
func (r *Registry) LookupRegion(addr uintptr) *Region {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(addr)
}

// lookupLocked binary-searches the by-Min ordered region list.
func (r *Registry) lookupLocked(addr uintptr) *Region {
	i := sort.Search(len(r.regions), func(i int) bool {
		return r.regions[i].rng.Min > addr
	})
	if i == 0 {
		return nil
	}
	if rg := r.regions[i-1]; rg.rng.Contains(addr) {
		return rg
	}
	return nil
}

// IsRegisteredRange reports whether exactly rng is registered.
func (r *Registry) IsRegisteredRange(rng Range) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := sort.Search(len(r.regions), func(i int) bool {
		return r.regions[i].rng.Min >= rng.Min
	})
	return i < len(r.regions) && r.regions[i].rng == rng
}

// WithinRegisteredRange reports whether addr lies inside some live region.
func (r *Registry) WithinRegisteredRange(addr uintptr) bool {
	return r.LookupRegion(addr) != nil
}

// StaticRegion returns the region covering the StaticLifetime anchor.
func (r *Registry) StaticRegion() *Region {
	return r.static
}

// ---------------------------------------------------------------------------
// Edge storage
// ---------------------------------------------------------------------------

// insert validates the endpoint addresses, builds the edge, and stores it
// under every source address. id 0 allocates a fresh handle; a caller that
// pairs edges (ConnectBidir) passes the shared handle explicitly.
func (r *Registry) insert(dstAddr uintptr, srcAddrs []uintptr, mode DeliveryMode,
	srcDesc, dstDesc string, id Handle, handler func(*edge)) *edge {

	r.mu.Lock()
	defer r.mu.Unlock()

	dstRegion := r.lookupLocked(dstAddr)
	if dstRegion == nil {
		panic(fmt.Sprintf("binding: destination address %#x is not in any registered region", dstAddr))
	}
	srcRegions := make([]*Region, len(srcAddrs))
	for i, a := range srcAddrs {
		srcRegions[i] = r.lookupLocked(a)
		if srcRegions[i] == nil {
			panic(fmt.Sprintf("binding: source address %#x is not in any registered region", a))
		}
	}

	if id == 0 {
		id = Handle(r.nextHandle.Add(1))
	}
	e := &edge{
		id:        id,
		seq:       r.nextSeq.Add(1),
		srcAddrs:  append([]uintptr(nil), srcAddrs...),
		dstAddr:   dstAddr,
		dstRegion: dstRegion,
		mode:      mode,
		handler:   handler,
		srcDesc:   srcDesc,
		dstDesc:   dstDesc,
	}
	for i, a := range srcAddrs {
		srcRegions[i].edges[a] = append(srcRegions[i].edges[a], e)
	}
	log.Debugf("connected %s (%s)", e.describe(), mode)
	return e
}

// newHandle reserves a handle without inserting anything yet.
func (r *Registry) newHandle() Handle {
	return Handle(r.nextHandle.Add(1))
}

// Disconnect removes the edges carrying the given handle, wherever they are
// stored. It reports whether anything was removed.
func (r *Registry) Disconnect(h Handle) bool {
	if h == 0 {
		return false
	}
	removed := false
	r.mu.Lock()
	for _, rg := range r.regions {
		if pruneEdgesLocked(rg, func(e *edge) bool { return e.id == h }) > 0 {
			removed = true
		}
	}
	r.mu.Unlock()
	if removed {
		log.Debugf("disconnected handle %d", h)
	}
	return removed
}

// dropEdge removes a single edge found dead during delivery.
func (r *Registry) dropEdge(target *edge) {
	target.removed.Store(true)
	r.mu.Lock()
	for _, rg := range r.regions {
		pruneEdgesLocked(rg, func(e *edge) bool { return e == target })
	}
	r.mu.Unlock()
	log.Debugf("dropped %s: destination region is gone", target.describe())
}

// disconnectAddrs removes edges whose destination is one of dstAddrs or
// whose source set intersects srcAddrs. Either slice may be empty.
func (r *Registry) disconnectAddrs(dstAddrs, srcAddrs []uintptr) int {
	inSet := func(set []uintptr, a uintptr) bool {
		for _, s := range set {
			if s == a {
				return true
			}
		}
		return false
	}
	dropped := make(map[Handle]struct{})
	r.mu.Lock()
	for _, rg := range r.regions {
		pruneEdgesLocked(rg, func(e *edge) bool {
			match := inSet(dstAddrs, e.dstAddr)
			for _, a := range e.srcAddrs {
				if match {
					break
				}
				match = inSet(srcAddrs, a)
			}
			if match {
				dropped[e.id] = struct{}{}
			}
			return match
		})
	}
	r.mu.Unlock()
	return len(dropped)
}

// ---------------------------------------------------------------------------
// Cycle guard
// ---------------------------------------------------------------------------

// guardState tracks one goroutine's in-flight notification. depth counts
// nested notify calls; fired holds the identifiers already delivered. Only
// the owning goroutine touches fired, so it needs no lock of its own.
type guardState struct {
	depth int
	fired map[Handle]struct{}
}

// mark records that h fired in this batch, reporting false when it already
// had and must be skipped.
func (g *guardState) mark(h Handle) bool {
	if _, dup := g.fired[h]; dup {
		return false
	}
	g.fired[h] = struct{}{}
	return true
}

// guardBegin opens a notify scope on the calling goroutine, reusing the
// in-flight state when the call is nested inside another delivery.
func (r *Registry) guardBegin(gid int64) *guardState {
	r.guardMu.Lock()
	defer r.guardMu.Unlock()
	g := r.guards[gid]
	if g == nil {
		g = &guardState{fired: make(map[Handle]struct{})}
		r.guards[gid] = g
	}
	g.depth++
	return g
}

// guardEnd closes a notify scope. When the outermost scope unwinds the
// fired set is discarded, so the next top-level notify starts fresh.
func (r *Registry) guardEnd(gid int64) {
	r.guardMu.Lock()
	defer r.guardMu.Unlock()
	g := r.guards[gid]
	if g == nil {
		return
	}
	if g.depth--; g.depth <= 0 {
		delete(r.guards, gid)
	}
}
