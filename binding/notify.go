package binding

import (
	"sort"

	"github.com/chazu/mira/sched"
)

// ---------------------------------------------------------------------------
// Notification
// ---------------------------------------------------------------------------

// NotifyAddr announces that the value at addr changed. Every edge keyed at
// addr fires in insertion order. Returns the number of handlers invoked.
func (r *Registry) NotifyAddr(addr uintptr) int {
	return r.NotifyRange(Range{Min: addr, Max: addr + 1})
}

// NotifyRange announces that every address in rng may have changed. Edges
// keyed anywhere inside rng fire in insertion order. The edge set is
// snapshotted under the registry lock and each edge is re-checked at fire
// time, so handlers may freely connect, disconnect, and notify again:
// removed edges never fire, and edges added during the batch wait for the
// next notify. Each identifier fires at most once per top-level batch,
// nested notifies from handlers included.
func (r *Registry) NotifyRange(rng Range) int {
	r.mu.Lock()
	var batch []*edge
	for _, rg := range r.overlappingLocked(rng) {
		for key, list := range rg.edges {
			if rng.Contains(key) {
				batch = append(batch, list...)
			}
		}
	}
	r.mu.Unlock()
	if len(batch) == 0 {
		return 0
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].seq < batch[j].seq })

	gid := sched.GoroutineID()
	guard := r.guardBegin(gid)
	defer r.guardEnd(gid)

	fired := 0
	for _, e := range batch {
		if e.removed.Load() {
			continue
		}
		if !e.dstRegion.Alive() {
			r.dropEdge(e)
			continue
		}
		if !guard.mark(e.id) {
			log.Debugf("cycle guard skipped %s", e.describe())
			continue
		}
		logPanics(e.describe(), func() { e.handler(e) })()
		fired++
	}
	return fired
}

// overlappingLocked returns the regions intersecting rng. Almost always
// zero or one, but a range may legitimately span none.
func (r *Registry) overlappingLocked(rng Range) []*Region {
	var out []*Region
	i := sort.Search(len(r.regions), func(i int) bool {
		return r.regions[i].rng.Min >= rng.Min
	})
	if i > 0 && r.regions[i-1].rng.Overlaps(rng) {
		out = append(out, r.regions[i-1])
	}
	for ; i < len(r.regions) && r.regions[i].rng.Min < rng.Max; i++ {
		out = append(out, r.regions[i])
	}
	return out
}

// deliver hands apply to the edge's destination scheduler under the edge's
// mode. With no scheduler configured anywhere it runs inline on the
// notifying goroutine.
func (r *Registry) deliver(e *edge, apply func()) {
	task := func() {
		if e.removed.Load() || !e.dstRegion.Alive() {
			log.Debugf("skipped %s: endpoint gone", e.describe())
			return
		}
		logPanics(e.describe(), apply)()
	}
	s := e.dstRegion.Scheduler()
	if s == nil {
		task()
		return
	}
	mode := sched.NeverInline
	if e.mode == Immediate {
		mode = sched.RunIfOnThread
	}
	s.Dispatch(task, mode)
}

// logPanics wraps fn so a panic is logged instead of crossing a scheduler
// boundary.
func logPanics(what string, fn func()) func() {
	return func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("%s panicked: %v", what, rec)
			}
		}()
		fn()
	}
}

// ---------------------------------------------------------------------------
// Mutation helpers
// ---------------------------------------------------------------------------

// Assign stores v into *p and notifies p's address on r when the value
// actually changed. It reports whether it did.
func Assign[T comparable](r *Registry, p *T, v T) bool {
	if *p == v {
		return false
	}
	*p = v
	r.NotifyAddr(AddrOf(p))
	return true
}

// Update applies fn to *p and assigns the result, notifying on change.
// This is the spelling for increments and other read-modify-write updates.
func Update[T comparable](r *Registry, p *T, fn func(T) T) bool {
	return Assign(r, p, fn(*p))
}

// AssignAtomic swaps v into the cell and notifies the cell's address when
// the previous value differed.
func AssignAtomic[T comparable](r *Registry, a *Atomic[T], v T) bool {
	if a.Swap(v) == v {
		return false
	}
	r.NotifyAddr(AddrOf(a))
	return true
}

// AssignAndFire stores v into *p like Assign, then fires the trigger
// whether or not the value changed.
func AssignAndFire[T comparable, A any](r *Registry, p *T, v T, t *Trigger[A]) bool {
	changed := Assign(r, p, v)
	t.FireEmpty(r)
	return changed
}
