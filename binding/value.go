package binding

import "sync"

// ---------------------------------------------------------------------------
// Value: composable get/set handles
// ---------------------------------------------------------------------------

// Value is a copyable get/set handle over some location. It carries the
// source addresses the binding machinery watches and the destination
// address writes land on, so connecting Values needs no introspection.
//
// The zero Value is empty: not readable, not writable, no addresses.
type Value[T any] struct {
	get  func() T
	set  func(T)
	srcs []uintptr
	dst  uintptr
}

// Readable reports whether Get may be called.
func (v Value[T]) Readable() bool { return v.get != nil }

// Writable reports whether Set does anything.
func (v Value[T]) Writable() bool { return v.set != nil }

// Addressed reports whether the value names at least one source address.
func (v Value[T]) Addressed() bool { return len(v.srcs) > 0 }

// Empty reports whether the value is neither readable nor writable.
func (v Value[T]) Empty() bool { return v.get == nil && v.set == nil }

// Get reads the current value. Reading an unreadable value yields the zero
// value.
func (v Value[T]) Get() T {
	if v.get == nil {
		var zero T
		return zero
	}
	return v.get()
}

// Set writes nv. Writing an unwritable value does nothing.
func (v Value[T]) Set(nv T) {
	if v.set != nil {
		v.set(nv)
	}
}

// Sources returns the addresses notification watches for this value.
func (v Value[T]) Sources() []uintptr {
	return append([]uintptr(nil), v.srcs...)
}

// Destination returns the address writes land on, 0 when the value has
// none.
func (v Value[T]) Destination() uintptr {
	return v.dst
}

// Addresses returns the source set plus the destination, deduplicated.
func (v Value[T]) Addresses() []uintptr {
	out := append([]uintptr(nil), v.srcs...)
	if v.dst != 0 {
		for _, a := range out {
			if a == v.dst {
				return out
			}
		}
		out = append(out, v.dst)
	}
	return out
}

// ReadOnly returns a copy with the setter cleared.
func (v Value[T]) ReadOnly() Value[T] {
	v.set = nil
	return v
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// Constant captures v. The result is writable but writes are discarded;
// its destination is the static anchor so connecting into it stays legal
// and harmless.
func Constant[T any](v T) Value[T] {
	return Value[T]{
		get: func() T { return v },
		set: func(T) {},
		dst: AddrOf(staticAnchor),
	}
}

// Computed wraps f as a read-only, address-free value.
func Computed[T any](f func() T) Value[T] {
	return Value[T]{get: f}
}

// FromPtr adapts the variable p points at. Reads dereference; writes go
// through Assign, so they compare, store, and notify r on change. The
// variable's address must lie inside a region registered with r by the
// time the value is connected or written.
func FromPtr[T comparable](r *Registry, p *T) Value[T] {
	addr := AddrOf(p)
	return Value[T]{
		get:  func() T { return *p },
		set:  func(nv T) { Assign(r, p, nv) },
		srcs: []uintptr{addr},
		dst:  addr,
	}
}

// FromAtomic adapts a shared cell. Writes swap and notify r on change.
func FromAtomic[T comparable](r *Registry, a *Atomic[T]) Value[T] {
	addr := AddrOf(a)
	return Value[T]{
		get:  a.Load,
		set:  func(nv T) { AssignAtomic(r, a, nv) },
		srcs: []uintptr{addr},
		dst:  addr,
	}
}

// listenerValue wraps a callback as a write-only value anchored at addr.
// Panics in the callback are logged and suppressed: listener edges have no
// future for errors to flow into.
func listenerValue[T any](addr uintptr, fn func(T)) Value[T] {
	return Value[T]{
		set: func(nv T) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorf("listener at %#x panicked: %v", addr, rec)
				}
			}()
			fn(nv)
		},
		srcs: []uintptr{addr},
		dst:  addr,
	}
}

// ---------------------------------------------------------------------------
// Atomic: a shared cell for cross-goroutine variables
// ---------------------------------------------------------------------------

// Atomic is a locked cell holding a comparable value. AssignAtomic pairs it
// with notification; FromAtomic adapts it as a Value.
type Atomic[T comparable] struct {
	mu sync.Mutex
	v  T
}

// NewAtomic returns a cell holding v.
func NewAtomic[T comparable](v T) *Atomic[T] {
	return &Atomic[T]{v: v}
}

// Load returns the current value.
func (a *Atomic[T]) Load() T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

// Store replaces the value without notifying anyone.
func (a *Atomic[T]) Store(v T) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}

// Swap replaces the value and returns the previous one.
func (a *Atomic[T]) Swap(v T) T {
	a.mu.Lock()
	old := a.v
	a.v = v
	a.mu.Unlock()
	return old
}

// CompareAndSwap replaces the value with nv when it currently equals old.
func (a *Atomic[T]) CompareAndSwap(old, nv T) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.v != old {
		return false
	}
	a.v = nv
	return true
}
