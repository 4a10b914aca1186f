package binding

import (
	"sync/atomic"

	"github.com/chazu/mira/sched"
)

// ---------------------------------------------------------------------------
// Registered objects
// ---------------------------------------------------------------------------

// Lifetime is a one-byte object whose address stands in for "no particular
// object". Constants bind their destination to the package-wide instance,
// and embedding one gives an otherwise empty struct a registrable range.
type Lifetime struct {
	_ byte
}

// staticAnchor is covered by the static region of every Registry, so values
// addressed to it always validate.
var staticAnchor = &Lifetime{}

// StaticLifetime returns the anchor object backing constants.
func StaticLifetime() *Lifetime {
	return staticAnchor
}

// Registration is the result of registering an object. Closing it removes
// the region and every edge touching it. Close is idempotent.
type Registration struct {
	r      *Registry
	rng    Range
	closed atomic.Bool
}

// Register records obj's memory with r so its fields can serve as binding
// endpoints, with deliveries running on s (nil nominates the main queue).
// The registry keeps obj reachable until Close, so a registered object's
// addresses are never recycled out from under its edges.
func Register[T any](r *Registry, obj *T, s sched.Scheduler) *Registration {
	rng := RangeOf(obj)
	r.register(rng, s, obj)
	return &Registration{r: r, rng: rng}
}

// Range returns the registered address range.
func (reg *Registration) Range() Range {
	return reg.rng
}

// Registry returns the registry the object was registered with.
func (reg *Registration) Registry() *Registry {
	return reg.r
}

// Close unregisters the object and severs its edges.
func (reg *Registration) Close() {
	if reg.closed.CompareAndSwap(false, true) {
		reg.r.UnregisterRange(reg.rng)
	}
}

// ---------------------------------------------------------------------------
// Cell: a self-registering value
// ---------------------------------------------------------------------------

// Cell is a single bindable value that registers itself on creation. It is
// the lightest way to get a binding endpoint without laying out a struct.
type Cell[T comparable] struct {
	r   *Registry
	reg *Registration
	v   T
}

// NewCell registers a cell holding initial with r, delivering on s.
func NewCell[T comparable](r *Registry, initial T, s sched.Scheduler) *Cell[T] {
	c := &Cell[T]{r: r, v: initial}
	c.reg = Register(r, c, s)
	return c
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.v
}

// Set stores v and notifies when it changed.
func (c *Cell[T]) Set(v T) bool {
	return Assign(c.r, &c.v, v)
}

// Value returns a readable, writable view over the cell's storage.
func (c *Cell[T]) Value() Value[T] {
	return FromPtr(c.r, &c.v)
}

// Close unregisters the cell.
func (c *Cell[T]) Close() {
	c.reg.Close()
}
