package binding

// ---------------------------------------------------------------------------
// Property
// ---------------------------------------------------------------------------

// Property describes one bindable member of an object type: how to reach the
// backing field, optional accessor overrides, and the name used in logs and
// serialized trees. Properties carry no per-instance storage; declare one
// package-level descriptor per member and bind it to instances as needed.
//
//	var SliderValue = binding.Property[Slider, float64]{
//		Field: func(s *Slider) *float64 { return &s.value },
//		Name:  "value",
//	}
type Property[O any, T comparable] struct {
	// Field returns the backing field. Required: the field's address keys
	// the edges even when Get or Set is overridden.
	Field func(*O) *T

	// Get, when non-nil, replaces the plain field read.
	Get func(*O) T

	// Set, when non-nil, replaces the compare-and-notify write. The
	// override owns the whole protocol: store the (possibly adjusted)
	// value and notify, typically by calling Assign on the field.
	Set func(*O, T)

	// Name identifies the member in logs and serialization.
	Name string
}

// Bind adapts the property on a concrete instance into a Value whose
// addresses are the instance's field address. The instance must be inside a
// region registered with r; writes go through the compare-and-notify
// protocol unless Set is overridden.
func (p Property[O, T]) Bind(r *Registry, o *O) Value[T] {
	ptr := p.Field(o)
	addr := AddrOf(ptr)
	get := func() T { return *ptr }
	if p.Get != nil {
		get = func() T { return p.Get(o) }
	}
	set := func(v T) { Assign(r, ptr, v) }
	if p.Set != nil {
		set = func(v T) { p.Set(o, v) }
	}
	return Value[T]{
		get:  get,
		set:  set,
		srcs: []uintptr{addr},
		dst:  addr,
	}
}
