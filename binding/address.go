package binding

import (
	"fmt"
	"unsafe"
)

// Range is a half-open [Min, Max) interval of byte addresses occupied by a
// live object. Ranges order by Min.
type Range struct {
	Min uintptr
	Max uintptr
}

// RangeOf returns the range covering the object p points at.
func RangeOf[T any](p *T) Range {
	addr := uintptr(unsafe.Pointer(p))
	size := unsafe.Sizeof(*p)
	if size == 0 {
		// Zero-size objects share addresses; give each registration one
		// byte so containment checks stay meaningful.
		size = 1
	}
	return Range{Min: addr, Max: addr + size}
}

// AddrOf returns the address of the object p points at.
func AddrOf[T any](p *T) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// Contains reports whether addr lies within the range.
func (r Range) Contains(addr uintptr) bool {
	return addr >= r.Min && addr < r.Max
}

// ContainsRange reports whether other lies fully within r.
func (r Range) ContainsRange(other Range) bool {
	return other.Min >= r.Min && other.Max <= r.Max
}

// Overlaps reports whether the interiors of the two ranges intersect.
func (r Range) Overlaps(other Range) bool {
	return r.Min < other.Max && other.Min < r.Max
}

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool {
	return r.Max <= r.Min
}

// Size returns the number of bytes covered.
func (r Range) Size() uintptr {
	if r.Empty() {
		return 0
	}
	return r.Max - r.Min
}

// String renders the range for logs.
func (r Range) String() string {
	return fmt.Sprintf("[%#x,%#x)", r.Min, r.Max)
}
