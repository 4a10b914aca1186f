package tree

import (
	"fmt"
	"sort"
)

// FromGo converts a plain Go value into a node. Maps are entered in sorted
// key order so the result is deterministic. Unrepresentable types return an
// error.
func FromGo(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		if x == nil {
			return Null(), nil
		}
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Uint(uint64(x)), nil
	case uint8:
		return Uint(uint64(x)), nil
	case uint16:
		return Uint(uint64(x)), nil
	case uint32:
		return Uint(uint64(x)), nil
	case uint64:
		return Uint(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []byte:
		return String(string(x)), nil
	case []any:
		arr := make([]*Node, len(x))
		for i, item := range x {
			n, err := FromGo(item)
			if err != nil {
				return nil, err
			}
			arr[i] = n
		}
		return Array(arr...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			n, err := FromGo(x[k])
			if err != nil {
				return nil, err
			}
			members = append(members, Member{Key: k, Value: n})
		}
		return Object(members...), nil
	default:
		return nil, fmt.Errorf("tree: cannot represent %T", v)
	}
}

// ToGo converts a node into plain Go values: nil, bool, int64, uint64,
// float64, string, []any, or map[string]any. Object member order is lost.
func ToGo(n *Node) any {
	switch n.Kind() {
	case KindBool:
		return n.b
	case KindInt:
		return n.i
	case KindUint:
		return n.u
	case KindFloat:
		return n.f
	case KindString:
		return n.s
	case KindArray:
		out := make([]any, len(n.arr))
		for i, item := range n.arr {
			out[i] = ToGo(item)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(n.obj))
		for _, m := range n.obj {
			out[m.Key] = ToGo(m.Value)
		}
		return out
	default:
		return nil
	}
}
