// Package serial implements the symmetric load/save visitor objects use to
// persist themselves into the JSON-like tree. One Serialize method walks
// fields in declaration order; the visitor's direction decides whether it
// reads the tree into the fields or writes the fields into the tree.
//
// The visitor never returns errors. A load miss, an absent key or a value
// of the wrong shape, leaves the destination untouched and is counted;
// Misses reports the total for the whole walk.
package serial

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/mira/binding"
	"github.com/chazu/mira/tree"
)

var log = commonlog.GetLogger("mira.serial")

// Direction selects what a visit does with the tree.
type Direction int

const (
	// Load reads tree values into the visited fields.
	Load Direction = iota
	// Save writes the visited fields into the tree.
	Save
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	if d == Load {
		return "load"
	}
	return "save"
}

// Serializable is the hook objects implement. The Visit calls inside
// Serialize define the on-disk field order.
type Serializable interface {
	Serialize(v *Visitor)
}

// Visitor walks an object's fields against one tree node. Nested visitors
// from Key and Index bind to sub-trees and write back into their parent on
// Flush.
type Visitor struct {
	dir  Direction
	node *tree.Node

	parent  *Visitor
	key     string
	idx     int
	byIndex bool
	flushed bool

	// misses is shared across the whole visitor family so the root
	// observes nested failures too.
	misses *int
}

// NewLoad returns a visitor reading from root.
func NewLoad(root *tree.Node) *Visitor {
	return &Visitor{dir: Load, node: root, misses: new(int)}
}

// NewSave returns a visitor writing into a fresh object node.
func NewSave() *Visitor {
	return &Visitor{dir: Save, node: tree.Object(), misses: new(int)}
}

// Direction returns the visitor's direction.
func (v *Visitor) Direction() Direction { return v.dir }

// Loading reports whether visits read the tree.
func (v *Visitor) Loading() bool { return v.dir == Load }

// Saving reports whether visits write the tree.
func (v *Visitor) Saving() bool { return v.dir == Save }

// Tree returns the node the visitor is bound to. For a save visitor this
// is the tree built so far.
func (v *Visitor) Tree() *tree.Node { return v.node }

// Misses returns how many visits failed to transfer a value, across the
// root and every nested visitor.
func (v *Visitor) Misses() int { return *v.misses }

func (v *Visitor) miss(name, why string) {
	*v.misses++
	log.Debugf("%s miss for %q: %s", v.dir, name, why)
}

// Key returns a visitor bound to the named sub-tree. Loading from an
// absent or non-object key yields a visitor whose reads all miss. A save
// visitor builds the sub-tree detached; call Flush to attach it.
func (v *Visitor) Key(name string) *Visitor {
	child := &Visitor{dir: v.dir, parent: v, key: name, misses: v.misses}
	if v.dir == Load {
		child.node, _ = v.node.Get(name)
	} else {
		child.node = tree.Object()
	}
	return child
}

// Index returns a visitor bound to the i-th element of the array at this
// node, with the same attachment rules as Key.
func (v *Visitor) Index(i int) *Visitor {
	child := &Visitor{dir: v.dir, parent: v, idx: i, byIndex: true, misses: v.misses}
	if v.dir == Load {
		child.node = v.node.At(i)
	} else {
		child.node = tree.Object()
	}
	return child
}

// Flush writes a nested save visitor's sub-tree into its parent. It is
// idempotent and a no-op for load visitors and the root.
func (v *Visitor) Flush() {
	if v.parent == nil || v.dir != Save || v.flushed {
		return
	}
	v.flushed = true
	if v.byIndex {
		v.parent.node.SetAt(v.idx, v.node)
	} else {
		v.parent.node.Set(v.key, v.node)
	}
}

// Visit transfers between the named tree entry and a binding value: Set on
// load, Get on save. Loads go through the value's setter, so bound fields
// notify their watchers like any other write.
func Visit[T any](v *Visitor, name string, val binding.Value[T]) {
	switch v.dir {
	case Load:
		n, ok := v.node.Get(name)
		if !ok {
			v.miss(name, "key absent")
			return
		}
		var tmp T
		if !assignInto(&tmp, n) {
			v.miss(name, "wrong shape")
			return
		}
		val.Set(tmp)
	case Save:
		if !val.Readable() {
			v.miss(name, "value not readable")
			return
		}
		n, err := tree.FromGo(val.Get())
		if err != nil {
			v.miss(name, err.Error())
			return
		}
		v.node.Set(name, n)
	}
}

// VisitVar transfers between the named tree entry and a plain variable.
func VisitVar[T any](v *Visitor, name string, p *T) {
	switch v.dir {
	case Load:
		n, ok := v.node.Get(name)
		if !ok {
			v.miss(name, "key absent")
			return
		}
		if !assignInto(p, n) {
			v.miss(name, "wrong shape")
		}
	case Save:
		n, err := tree.FromGo(*p)
		if err != nil {
			v.miss(name, err.Error())
			return
		}
		v.node.Set(name, n)
	}
}

// VisitFunc transfers through an explicit current value and setter, the
// form for fields that recompute something when they change.
func VisitFunc[T any](v *Visitor, name string, current T, set func(T)) {
	switch v.dir {
	case Load:
		n, ok := v.node.Get(name)
		if !ok {
			v.miss(name, "key absent")
			return
		}
		var tmp T
		if !assignInto(&tmp, n) {
			v.miss(name, "wrong shape")
			return
		}
		set(tmp)
	case Save:
		n, err := tree.FromGo(current)
		if err != nil {
			v.miss(name, err.Error())
			return
		}
		v.node.Set(name, n)
	}
}

// VisitObject descends into the named sub-tree and runs obj's Serialize
// there, attaching the result on the way out.
func VisitObject(v *Visitor, name string, obj Serializable) {
	child := v.Key(name)
	obj.Serialize(child)
	child.Flush()
}

// VisitProperty transfers a bound property under its declared name.
func VisitProperty[O any, T comparable](v *Visitor, r *binding.Registry, o *O, p binding.Property[O, T]) {
	Visit(v, p.Name, p.Bind(r, o))
}

// SaveNode serializes obj in save direction and returns the built tree.
func SaveNode(obj Serializable) *tree.Node {
	v := NewSave()
	obj.Serialize(v)
	return v.Tree()
}

// LoadNode serializes obj in load direction against root, returning the
// miss count.
func LoadNode(root *tree.Node, obj Serializable) int {
	v := NewLoad(root)
	obj.Serialize(v)
	return v.Misses()
}
