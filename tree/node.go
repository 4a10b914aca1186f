package tree

import "math"

// Kind identifies what a Node holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Member is one key/value pair of an object node.
type Member struct {
	Key   string
	Value *Node
}

// Node is one value in a document tree. The zero value and a nil *Node both
// behave as null.
type Node struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	arr  []*Node
	obj  []Member
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// Null returns a null node.
func Null() *Node { return &Node{kind: KindNull} }

// Bool returns a boolean node.
func Bool(v bool) *Node { return &Node{kind: KindBool, b: v} }

// Int returns a signed integer node.
func Int(v int64) *Node { return &Node{kind: KindInt, i: v} }

// Uint returns an unsigned integer node.
func Uint(v uint64) *Node { return &Node{kind: KindUint, u: v} }

// Float returns a floating-point node.
func Float(v float64) *Node { return &Node{kind: KindFloat, f: v} }

// String returns a string node.
func String(v string) *Node { return &Node{kind: KindString, s: v} }

// Array returns an array node holding items.
func Array(items ...*Node) *Node {
	return &Node{kind: KindArray, arr: items}
}

// Object returns an object node holding members in the given order.
func Object(members ...Member) *Node {
	return &Node{kind: KindObject, obj: members}
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// Kind returns the node's kind. A nil node is null.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// IsNull reports whether the node is null.
func (n *Node) IsNull() bool { return n.Kind() == KindNull }

// AsBool returns the boolean payload.
func (n *Node) AsBool() (bool, bool) {
	if n == nil || n.kind != KindBool {
		return false, false
	}
	return n.b, true
}

// AsInt returns the value as int64. Unsigned and integral float payloads
// convert when the exact value fits.
func (n *Node) AsInt() (int64, bool) {
	if n == nil {
		return 0, false
	}
	switch n.kind {
	case KindInt:
		return n.i, true
	case KindUint:
		if n.u <= math.MaxInt64 {
			return int64(n.u), true
		}
	case KindFloat:
		if i := int64(n.f); float64(i) == n.f {
			return i, true
		}
	}
	return 0, false
}

// AsUint returns the value as uint64. Signed and integral float payloads
// convert when the exact value fits.
func (n *Node) AsUint() (uint64, bool) {
	if n == nil {
		return 0, false
	}
	switch n.kind {
	case KindUint:
		return n.u, true
	case KindInt:
		if n.i >= 0 {
			return uint64(n.i), true
		}
	case KindFloat:
		if n.f >= 0 {
			if u := uint64(n.f); float64(u) == n.f {
				return u, true
			}
		}
	}
	return 0, false
}

// AsFloat returns the value as float64. Integer payloads convert.
func (n *Node) AsFloat() (float64, bool) {
	if n == nil {
		return 0, false
	}
	switch n.kind {
	case KindFloat:
		return n.f, true
	case KindInt:
		return float64(n.i), true
	case KindUint:
		return float64(n.u), true
	}
	return 0, false
}

// AsString returns the string payload.
func (n *Node) AsString() (string, bool) {
	if n == nil || n.kind != KindString {
		return "", false
	}
	return n.s, true
}

// Len returns the number of array items or object members, 0 otherwise.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindArray:
		return len(n.arr)
	case KindObject:
		return len(n.obj)
	}
	return 0
}

// At returns the i-th array item, or nil when out of range or not an array.
func (n *Node) At(i int) *Node {
	if n == nil || n.kind != KindArray || i < 0 || i >= len(n.arr) {
		return nil
	}
	return n.arr[i]
}

// Items returns the array items. The slice is the node's own storage.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != KindArray {
		return nil
	}
	return n.arr
}

// Get returns the member named key.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.kind != KindObject {
		return nil, false
	}
	for _, m := range n.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Members returns the object members in order. The slice is the node's own
// storage.
func (n *Node) Members() []Member {
	if n == nil || n.kind != KindObject {
		return nil
	}
	return n.obj
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// Set stores child under key, replacing an existing member in place so
// member order stays stable. A node of any other kind becomes an object
// first.
func (n *Node) Set(key string, child *Node) *Node {
	if n.kind != KindObject {
		*n = Node{kind: KindObject}
	}
	for i := range n.obj {
		if n.obj[i].Key == key {
			n.obj[i].Value = child
			return n
		}
	}
	n.obj = append(n.obj, Member{Key: key, Value: child})
	return n
}

// Delete removes the member named key, preserving the order of the rest.
func (n *Node) Delete(key string) bool {
	if n == nil || n.kind != KindObject {
		return false
	}
	for i := range n.obj {
		if n.obj[i].Key == key {
			n.obj = append(n.obj[:i], n.obj[i+1:]...)
			return true
		}
	}
	return false
}

// Append adds child to the end of the array. A node of any other kind
// becomes an array first.
func (n *Node) Append(child *Node) *Node {
	if n.kind != KindArray {
		*n = Node{kind: KindArray}
	}
	n.arr = append(n.arr, child)
	return n
}

// SetAt stores child at index i, growing the array with nulls as needed. A
// node of any other kind becomes an array first. Negative indices are
// ignored.
func (n *Node) SetAt(i int, child *Node) *Node {
	if i < 0 {
		return n
	}
	if n.kind != KindArray {
		*n = Node{kind: KindArray}
	}
	for len(n.arr) <= i {
		n.arr = append(n.arr, Null())
	}
	n.arr[i] = child
	return n
}

// ---------------------------------------------------------------------------
// Comparison and copying
// ---------------------------------------------------------------------------

// Equal reports deep equality. Kinds must match exactly; Int(1) and Uint(1)
// are not equal.
func (n *Node) Equal(o *Node) bool {
	if n.Kind() != o.Kind() {
		return false
	}
	switch n.Kind() {
	case KindNull:
		return true
	case KindBool:
		return n.b == o.b
	case KindInt:
		return n.i == o.i
	case KindUint:
		return n.u == o.u
	case KindFloat:
		return n.f == o.f
	case KindString:
		return n.s == o.s
	case KindArray:
		if len(n.arr) != len(o.arr) {
			return false
		}
		for i := range n.arr {
			if !n.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(n.obj) != len(o.obj) {
			return false
		}
		for i := range n.obj {
			if n.obj[i].Key != o.obj[i].Key || !n.obj[i].Value.Equal(o.obj[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return Null()
	}
	c := *n
	switch n.kind {
	case KindArray:
		c.arr = make([]*Node, len(n.arr))
		for i, item := range n.arr {
			c.arr[i] = item.Clone()
		}
	case KindObject:
		c.obj = make([]Member, len(n.obj))
		for i, m := range n.obj {
			c.obj[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
	}
	return &c
}

// String renders the node as compact JSON for logs and errors.
func (n *Node) String() string {
	data, err := EncodeJSON(n, 0)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(data)
}
