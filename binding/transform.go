package binding

// Number constrains the arithmetic combinators.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Transform returns a read-only view of v through fwd. Addresses carry
// over, so connections watching the transformed value still key on v's
// locations.
func Transform[T, U any](v Value[T], fwd func(T) U) Value[U] {
	out := Value[U]{srcs: v.srcs, dst: v.dst}
	if v.get != nil {
		get := v.get
		out.get = func() U { return fwd(get()) }
	}
	return out
}

// TransformBidir returns a view of v through fwd on read and back on
// write.
func TransformBidir[T, U any](v Value[T], fwd func(T) U, back func(U) T) Value[U] {
	out := Transform(v, fwd)
	if v.set != nil && back != nil {
		set := v.set
		out.set = func(nv U) { set(back(nv)) }
	}
	return out
}

// Combine merges two values through f. The result is read-only with the
// union of both source sets, so it reacts to changes on either side.
func Combine[A, B, C any](a Value[A], b Value[B], f func(A, B) C) Value[C] {
	out := Value[C]{srcs: unionAddrs(a.srcs, b.srcs)}
	if a.get != nil && b.get != nil {
		getA, getB := a.get, b.get
		out.get = func() C { return f(getA(), getB()) }
	}
	return out
}

func unionAddrs(a, b []uintptr) []uintptr {
	out := append([]uintptr(nil), a...)
loop:
	for _, x := range b {
		for _, y := range out {
			if x == y {
				continue loop
			}
		}
		out = append(out, x)
	}
	return out
}

// Add returns a value reading the sum of a and b.
func Add[T Number](a, b Value[T]) Value[T] {
	return Combine(a, b, func(x, y T) T { return x + y })
}

// Sub returns a value reading a minus b.
func Sub[T Number](a, b Value[T]) Value[T] {
	return Combine(a, b, func(x, y T) T { return x - y })
}

// Mul returns a value reading the product of a and b.
func Mul[T Number](a, b Value[T]) Value[T] {
	return Combine(a, b, func(x, y T) T { return x * y })
}

// Eq compares v against a fixed scalar. The result reads true when they
// match; writing true stores the scalar through v, and writing false is
// ignored. Radio groups build on this one-directional selection.
func Eq[T comparable](v Value[T], scalar T) Value[bool] {
	out := Value[bool]{srcs: v.srcs, dst: v.dst}
	if v.get != nil {
		get := v.get
		out.get = func() bool { return get() == scalar }
	}
	if v.set != nil {
		set := v.set
		out.set = func(on bool) {
			if on {
				set(scalar)
			}
		}
	}
	return out
}
