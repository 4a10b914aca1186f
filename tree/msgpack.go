package tree

import (
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

var (
	_ msgpack.CustomEncoder = (*Node)(nil)
	_ msgpack.CustomDecoder = (*Node)(nil)
)

// EncodeMsgpack renders n in MessagePack binary form.
func EncodeMsgpack(n *Node) ([]byte, error) {
	if n == nil {
		n = Null()
	}
	data, err := msgpack.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("tree: encode msgpack: %w", err)
	}
	return data, nil
}

// DecodeMsgpack parses MessagePack binary data into a node.
func DecodeMsgpack(data []byte) (*Node, error) {
	n := Null()
	if err := msgpack.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("tree: decode msgpack: %w", err)
	}
	return n, nil
}

// EncodeMsgpack implements msgpack.CustomEncoder, so a Node embeds directly
// in other MessagePack messages. Integers are written in their smallest wire
// form.
func (n *Node) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch n.Kind() {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(n.b)
	case KindInt:
		return enc.EncodeInt(n.i)
	case KindUint:
		return enc.EncodeUint(n.u)
	case KindFloat:
		return enc.EncodeFloat64(n.f)
	case KindString:
		return enc.EncodeString(n.s)
	case KindArray:
		if err := enc.EncodeArrayLen(len(n.arr)); err != nil {
			return err
		}
		for _, item := range n.arr {
			if err := item.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	case KindObject:
		if err := enc.EncodeMapLen(len(n.obj)); err != nil {
			return err
		}
		for _, m := range n.obj {
			if err := enc.EncodeString(m.Key); err != nil {
				return err
			}
			if err := m.Value.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("tree: cannot encode kind %s", n.Kind())
}

// DecodeMsgpack implements msgpack.CustomDecoder. The wire format does not
// distinguish signed from unsigned, so non-negative integers decode as Int
// unless they exceed the int64 range, matching the JSON decoder. Binary
// payloads decode as strings; map keys must be strings.
func (n *Node) DecodeMsgpack(dec *msgpack.Decoder) error {
	code, err := dec.PeekCode()
	if err != nil {
		return err
	}
	switch {
	case code == msgpcode.Nil:
		if err := dec.DecodeNil(); err != nil {
			return err
		}
		*n = Node{kind: KindNull}

	case code == msgpcode.False || code == msgpcode.True:
		b, err := dec.DecodeBool()
		if err != nil {
			return err
		}
		*n = Node{kind: KindBool, b: b}

	case msgpcode.IsFixedNum(code) ||
		code == msgpcode.Int8 || code == msgpcode.Int16 ||
		code == msgpcode.Int32 || code == msgpcode.Int64:
		i, err := dec.DecodeInt64()
		if err != nil {
			return err
		}
		*n = Node{kind: KindInt, i: i}

	case code == msgpcode.Uint8 || code == msgpcode.Uint16 ||
		code == msgpcode.Uint32 || code == msgpcode.Uint64:
		u, err := dec.DecodeUint64()
		if err != nil {
			return err
		}
		if u <= math.MaxInt64 {
			*n = Node{kind: KindInt, i: int64(u)}
		} else {
			*n = Node{kind: KindUint, u: u}
		}

	case code == msgpcode.Float || code == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		if err != nil {
			return err
		}
		*n = Node{kind: KindFloat, f: f}

	case msgpcode.IsString(code):
		s, err := dec.DecodeString()
		if err != nil {
			return err
		}
		*n = Node{kind: KindString, s: s}

	case msgpcode.IsBin(code):
		b, err := dec.DecodeBytes()
		if err != nil {
			return err
		}
		*n = Node{kind: KindString, s: string(b)}

	case msgpcode.IsFixedArray(code) ||
		code == msgpcode.Array16 || code == msgpcode.Array32:
		l, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		items := make([]*Node, l)
		for i := range items {
			child := Null()
			if err := child.DecodeMsgpack(dec); err != nil {
				return err
			}
			items[i] = child
		}
		*n = Node{kind: KindArray, arr: items}

	case msgpcode.IsFixedMap(code) ||
		code == msgpcode.Map16 || code == msgpcode.Map32:
		l, err := dec.DecodeMapLen()
		if err != nil {
			return err
		}
		members := make([]Member, 0, l)
		for i := 0; i < l; i++ {
			key, err := dec.DecodeString()
			if err != nil {
				return fmt.Errorf("tree: msgpack map key: %w", err)
			}
			child := Null()
			if err := child.DecodeMsgpack(dec); err != nil {
				return err
			}
			members = append(members, Member{Key: key, Value: child})
		}
		*n = Node{kind: KindObject, obj: members}

	default:
		return fmt.Errorf("tree: unsupported msgpack code 0x%02x", code)
	}
	return nil
}
