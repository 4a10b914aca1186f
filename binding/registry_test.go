package binding

import (
	"strings"
	"testing"
	"unsafe"
)

// widget is the registered object most tests bind against.
type widget struct {
	x    int64
	y    int64
	life Lifetime
}

func TestRangeContains(t *testing.T) {
	r := Range{Min: 0x100, Max: 0x110}

	tests := []struct {
		addr uintptr
		want bool
	}{
		{0x0ff, false},
		{0x100, true},
		{0x108, true},
		{0x10f, true},
		{0x110, false}, // half-open
	}
	for _, tt := range tests {
		if got := r.Contains(tt.addr); got != tt.want {
			t.Errorf("Contains(%#x) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestRangeOverlaps(t *testing.T) {
	r := Range{Min: 0x100, Max: 0x110}

	tests := []struct {
		other Range
		want  bool
	}{
		{Range{0x0f0, 0x100}, false}, // touching below
		{Range{0x110, 0x120}, false}, // touching above
		{Range{0x0f0, 0x101}, true},
		{Range{0x10f, 0x120}, true},
		{Range{0x104, 0x108}, true}, // contained
		{Range{0x0f0, 0x120}, true}, // containing
		{Range{0x100, 0x110}, true}, // equal
	}
	for _, tt := range tests {
		if got := r.Overlaps(tt.other); got != tt.want {
			t.Errorf("Overlaps(%v) = %v, want %v", tt.other, got, tt.want)
		}
		// Overlap is symmetric.
		if got := tt.other.Overlaps(r); got != tt.want {
			t.Errorf("Overlaps(%v) reversed = %v, want %v", tt.other, got, tt.want)
		}
	}
}

func TestRangeContainsRange(t *testing.T) {
	r := Range{Min: 0x100, Max: 0x110}

	if !r.ContainsRange(Range{0x100, 0x110}) {
		t.Error("a range should contain itself")
	}
	if !r.ContainsRange(Range{0x104, 0x108}) {
		t.Error("interior range should be contained")
	}
	if r.ContainsRange(Range{0x0ff, 0x108}) {
		t.Error("range extending below should not be contained")
	}
	if r.ContainsRange(Range{0x108, 0x111}) {
		t.Error("range extending above should not be contained")
	}
}

func TestRangeString(t *testing.T) {
	r := Range{Min: 0x100, Max: 0x110}
	s := r.String()
	if !strings.Contains(s, "0x100") || !strings.Contains(s, "0x110") {
		t.Errorf("String() = %q, want both bounds in hex", s)
	}
}

func TestRangeOfCoversFields(t *testing.T) {
	w := &widget{}
	rng := RangeOf(w)

	if rng.Size() != unsafe.Sizeof(*w) {
		t.Errorf("Size() = %d, want %d", rng.Size(), unsafe.Sizeof(*w))
	}
	if !rng.Contains(AddrOf(&w.x)) {
		t.Error("range should contain the first field")
	}
	if !rng.Contains(AddrOf(&w.y)) {
		t.Error("range should contain the second field")
	}
	if !rng.Contains(AddrOf(&w.life)) {
		t.Error("range should contain the lifetime anchor")
	}
}

func TestRangeOfZeroSize(t *testing.T) {
	e := &struct{}{}
	rng := RangeOf(e)
	if rng.Empty() {
		t.Error("zero-size object should still get a non-empty range")
	}
	if rng.Size() != 1 {
		t.Errorf("Size() = %d, want 1", rng.Size())
	}
}

func TestRegisterLookup(t *testing.T) {
	r := New()
	w := &widget{}
	rng := RangeOf(w)
	rg := r.RegisterRange(rng, nil)

	if rg == nil {
		t.Fatal("RegisterRange returned nil")
	}
	if !rg.Alive() {
		t.Error("fresh region should be alive")
	}
	if got := r.LookupRegion(AddrOf(&w.y)); got != rg {
		t.Errorf("LookupRegion(inner) = %p, want %p", got, rg)
	}
	if !r.WithinRegisteredRange(AddrOf(&w.x)) {
		t.Error("WithinRegisteredRange(inner) = false, want true")
	}
	if !r.IsRegisteredRange(rng) {
		t.Error("IsRegisteredRange(exact) = false, want true")
	}
	if r.IsRegisteredRange(Range{rng.Min, rng.Min + 1}) {
		t.Error("IsRegisteredRange(sub-range) = true, want false")
	}
}

func TestRegisterMultipleLookup(t *testing.T) {
	r := New()
	objs := make([]*widget, 4)
	regions := make([]*Region, 4)
	for i := range objs {
		objs[i] = &widget{}
		regions[i] = r.RegisterRange(RangeOf(objs[i]), nil)
	}
	for i, w := range objs {
		if got := r.LookupRegion(AddrOf(&w.y)); got != regions[i] {
			t.Errorf("LookupRegion(obj %d) resolved to the wrong region", i)
		}
	}
}

func TestRegisterOverlapPanics(t *testing.T) {
	r := New()
	w := &widget{}
	r.RegisterRange(RangeOf(w), nil)

	defer func() {
		if recover() == nil {
			t.Error("registering an overlapping range should panic")
		}
	}()
	r.RegisterRange(Range{AddrOf(&w.y), AddrOf(&w.y) + 8}, nil)
}

func TestRegisterEmptyRangePanics(t *testing.T) {
	r := New()
	defer func() {
		if recover() == nil {
			t.Error("registering an empty range should panic")
		}
	}()
	r.RegisterRange(Range{Min: 0x100, Max: 0x100}, nil)
}

func TestUnregister(t *testing.T) {
	r := New()
	w := &widget{}
	rng := RangeOf(w)
	rg := r.RegisterRange(rng, nil)

	r.UnregisterRange(rng)

	if rg.Alive() {
		t.Error("unregistered region should report dead")
	}
	if r.LookupRegion(AddrOf(&w.x)) != nil {
		t.Error("LookupRegion should miss after unregister")
	}
	if r.IsRegisteredRange(rng) {
		t.Error("IsRegisteredRange should be false after unregister")
	}

	// Unregistering an unknown range is a no-op.
	r.UnregisterRange(Range{Min: 0x1000, Max: 0x2000})
}

func TestUnregisterThenReregister(t *testing.T) {
	r := New()
	w := &widget{}
	rng := RangeOf(w)

	r.RegisterRange(rng, nil)
	r.UnregisterRange(rng)
	rg := r.RegisterRange(rng, nil)

	if !rg.Alive() {
		t.Error("re-registered region should be alive")
	}
	if r.LookupRegion(AddrOf(&w.x)) != rg {
		t.Error("LookupRegion should resolve to the new region")
	}
}

func TestStaticRegion(t *testing.T) {
	r := New()
	static := r.StaticRegion()

	if static == nil {
		t.Fatal("StaticRegion returned nil")
	}
	if !static.Alive() {
		t.Error("static region should be alive")
	}
	if !r.WithinRegisteredRange(AddrOf(StaticLifetime())) {
		t.Error("the static anchor should lie inside a registered range")
	}

	// The static region ignores unregistration.
	r.UnregisterRange(static.Range())
	if !static.Alive() {
		t.Error("static region should survive UnregisterRange")
	}
	if !r.WithinRegisteredRange(AddrOf(StaticLifetime())) {
		t.Error("static anchor should stay registered")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
	if Default() != Default() {
		t.Error("Default() should return the same instance")
	}
	if !Default().WithinRegisteredRange(AddrOf(StaticLifetime())) {
		t.Error("default registry should cover the static anchor")
	}
}
