package binding

// ---------------------------------------------------------------------------
// Trigger
// ---------------------------------------------------------------------------

// Trigger is an event-shaped notification site. Fire stores the argument,
// notifies the trigger's own address, then clears it again, so the argument
// is observable only during the synchronous part of the delivery: Immediate
// listeners on the firing goroutine see it, Deferred listeners run later and
// read the zero value.
//
// A Trigger participates in the graph through its address, so it must live
// inside a registered region, typically embedded in a registered object.
// Valueless events use Trigger[struct{}].
type Trigger[T any] struct {
	arg T
}

// Fire publishes arg to the trigger's listeners and reports how many ran.
func (t *Trigger[T]) Fire(r *Registry, arg T) int {
	t.arg = arg
	n := r.NotifyAddr(AddrOf(t))
	var zero T
	t.arg = zero
	return n
}

// FireEmpty fires with the zero argument.
func (t *Trigger[T]) FireEmpty(r *Registry) int {
	var zero T
	return t.Fire(r, zero)
}

// Arg returns the in-flight argument.
func (t *Trigger[T]) Arg() T {
	return t.arg
}

// Value adapts the trigger into a read-only source for Connect and Listen.
func (t *Trigger[T]) Value() Value[T] {
	addr := AddrOf(t)
	return Value[T]{
		get:  func() T { return t.arg },
		srcs: []uintptr{addr},
		dst:  addr,
	}
}
