package binding

import (
	"fmt"

	"github.com/chazu/mira/sched"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// ConnectOption adjusts how an edge is inserted.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	mode      DeliveryMode
	updateNow bool
	srcDesc   string
	dstDesc   string
}

// WithMode selects the delivery mode. Connect defaults to Deferred; Listen
// defaults to Immediate.
func WithMode(m DeliveryMode) ConnectOption {
	return func(o *connectOptions) { o.mode = m }
}

// WithUpdateNow pushes the source value into the destination at connect
// time, before any notification happens.
func WithUpdateNow() ConnectOption {
	return func(o *connectOptions) { o.updateNow = true }
}

// WithDescriptions labels the source and destination sides for logs.
func WithDescriptions(src, dst string) ConnectOption {
	return func(o *connectOptions) { o.srcDesc, o.dstDesc = src, dst }
}

// ---------------------------------------------------------------------------
// Connect / ConnectBidir / Listen
// ---------------------------------------------------------------------------

// Connect inserts an edge that pushes src into dst whenever one of src's
// addresses is notified on r. The destination address and every source
// address must lie inside registered regions; connecting unregistered
// memory panics.
//
// It returns 0 without storing an edge when dst is not writable, src is
// not readable, or src names no addresses. WithUpdateNow still performs
// the one-time push for an addressless readable src.
func Connect[T any](r *Registry, dst Value[T], src Value[T], opts ...ConnectOption) Handle {
	cfg := connectOptions{mode: Deferred}
	for _, o := range opts {
		o(&cfg)
	}
	return connectValues(r, dst, src, cfg, 0, cfg.updateNow)
}

// ConnectBidir links a and b both ways under one handle: changes to b push
// into a, and changes to a push back into b. The reverse direction never
// performs the initial push, and because both directions share one
// identifier the cycle guard stops them from echoing inside a synchronous
// batch. A direction whose endpoints cannot support it is skipped.
func ConnectBidir[T any](r *Registry, a, b Value[T], opts ...ConnectOption) Handle {
	cfg := connectOptions{mode: Deferred}
	for _, o := range opts {
		o(&cfg)
	}
	id := r.newHandle()
	forward := connectValues(r, a, b, cfg, id, cfg.updateNow)
	reverse := cfg
	reverse.srcDesc, reverse.dstDesc = cfg.dstDesc, cfg.srcDesc
	backward := connectValues(r, b, a, reverse, id, false)
	if forward == 0 && backward == 0 {
		return 0
	}
	return id
}

// Listen invokes fn with the new value whenever one of src's addresses is
// notified. The edge anchors at owner's address, so deliveries run on the
// scheduler of owner's region and stop once that region is unregistered.
// Listen defaults to Immediate delivery. Panics in fn are logged and
// suppressed.
func Listen[T any](r *Registry, owner *Lifetime, src Value[T], fn func(T), opts ...ConnectOption) Handle {
	cfg := connectOptions{mode: Immediate}
	for _, o := range opts {
		o(&cfg)
	}
	dst := listenerValue(AddrOf(owner), fn)
	return connectValues(r, dst, src, cfg, 0, cfg.updateNow)
}

// connectValues is the shared insertion path: validate endpoints, perform
// the optional initial push, then store the edge under every source
// address.
func connectValues[T any](r *Registry, dst, src Value[T], cfg connectOptions, id Handle, updateNow bool) Handle {
	if !dst.Writable() || !src.Readable() {
		return 0
	}
	r.validateEndpoints(dst.dst, src.srcs)
	if updateNow {
		pushNow(r, dst, src)
	}
	if len(src.srcs) == 0 {
		return 0
	}
	e := r.insert(dst.dst, src.srcs, cfg.mode, cfg.srcDesc, cfg.dstDesc, id, func(e *edge) {
		// Running on the notifying goroutine: read here, deliver on the
		// destination scheduler.
		v := src.Get()
		r.deliver(e, func() { dst.Set(v) })
	})
	return e.id
}

// validateEndpoints checks every named address against the live regions.
func (r *Registry) validateEndpoints(dstAddr uintptr, srcAddrs []uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupLocked(dstAddr) == nil {
		panic(fmt.Sprintf("binding: destination address %#x is not in any registered region", dstAddr))
	}
	for _, a := range srcAddrs {
		if r.lookupLocked(a) == nil {
			panic(fmt.Sprintf("binding: source address %#x is not in any registered region", a))
		}
	}
}

// pushNow performs the initial push: read on the source scheduler, apply
// on the destination scheduler, inline whenever the caller already owns
// the goroutine in question.
func pushNow[T any](r *Registry, dst, src Value[T]) {
	var srcSched sched.Scheduler
	if len(src.srcs) > 0 {
		if rg := r.LookupRegion(src.srcs[0]); rg != nil {
			srcSched = rg.Scheduler()
		}
	}
	var v T
	read := func() { v = src.Get() }
	if srcSched == nil {
		read()
	} else if err := srcSched.DispatchAndWait(read, sched.RunIfOnThread); err != nil {
		log.Errorf("initial push: reading the source failed: %v", err)
		return
	}

	var dstSched sched.Scheduler
	if rg := r.LookupRegion(dst.dst); rg != nil {
		dstSched = rg.Scheduler()
	}
	apply := logPanics("initial push", func() { dst.Set(v) })
	if dstSched == nil {
		apply()
		return
	}
	dstSched.Dispatch(apply, sched.RunIfOnThread)
}

// ---------------------------------------------------------------------------
// Disconnecting by value
// ---------------------------------------------------------------------------

// Direction selects which role of a value DisconnectValue matches.
type Direction int

const (
	// Inbound matches edges that deliver into the value.
	Inbound Direction = 1 << iota
	// Outbound matches edges that watch the value.
	Outbound
)

// Both matches edges in either role.
const Both = Inbound | Outbound

// DisconnectValue removes every edge naming one of v's addresses in the
// chosen role and returns the number of connections removed.
func DisconnectValue[T any](r *Registry, v Value[T], dir Direction) int {
	var dstAddrs, srcAddrs []uintptr
	if dir&Inbound != 0 && v.dst != 0 {
		dstAddrs = []uintptr{v.dst}
	}
	if dir&Outbound != 0 {
		srcAddrs = v.srcs
	}
	return r.disconnectAddrs(dstAddrs, srcAddrs)
}
