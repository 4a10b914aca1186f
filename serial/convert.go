package serial

import (
	"math"

	"github.com/chazu/mira/tree"
)

// assignInto moves n's payload into the variable p points at, converting
// across numeric kinds when the exact value survives the trip. It reports
// false and leaves *p untouched when the shapes don't line up, which is
// what keeps load misses harmless.
func assignInto[T any](p *T, n *tree.Node) bool {
	switch dst := any(p).(type) {
	case *bool:
		v, ok := n.AsBool()
		if !ok {
			return false
		}
		*dst = v
	case *int:
		v, ok := n.AsInt()
		if !ok || int64(int(v)) != v {
			return false
		}
		*dst = int(v)
	case *int8:
		v, ok := n.AsInt()
		if !ok || v < math.MinInt8 || v > math.MaxInt8 {
			return false
		}
		*dst = int8(v)
	case *int16:
		v, ok := n.AsInt()
		if !ok || v < math.MinInt16 || v > math.MaxInt16 {
			return false
		}
		*dst = int16(v)
	case *int32:
		v, ok := n.AsInt()
		if !ok || v < math.MinInt32 || v > math.MaxInt32 {
			return false
		}
		*dst = int32(v)
	case *int64:
		v, ok := n.AsInt()
		if !ok {
			return false
		}
		*dst = v
	case *uint:
		v, ok := n.AsUint()
		if !ok || uint64(uint(v)) != v {
			return false
		}
		*dst = uint(v)
	case *uint8:
		v, ok := n.AsUint()
		if !ok || v > math.MaxUint8 {
			return false
		}
		*dst = uint8(v)
	case *uint16:
		v, ok := n.AsUint()
		if !ok || v > math.MaxUint16 {
			return false
		}
		*dst = uint16(v)
	case *uint32:
		v, ok := n.AsUint()
		if !ok || v > math.MaxUint32 {
			return false
		}
		*dst = uint32(v)
	case *uint64:
		v, ok := n.AsUint()
		if !ok {
			return false
		}
		*dst = v
	case *float32:
		v, ok := n.AsFloat()
		if !ok {
			return false
		}
		*dst = float32(v)
	case *float64:
		v, ok := n.AsFloat()
		if !ok {
			return false
		}
		*dst = v
	case *string:
		v, ok := n.AsString()
		if !ok {
			return false
		}
		*dst = v
	case **tree.Node:
		if n == nil {
			return false
		}
		*dst = n.Clone()
	default:
		return false
	}
	return true
}
