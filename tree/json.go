package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// EncodeJSON renders n as JSON text. An indent of zero or less produces
// compact output; a positive indent pretty-prints with that many spaces per
// nesting level. NaN and infinities have no JSON form and error out.
func EncodeJSON(n *Node, indent int) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, n, indent, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSON(buf *bytes.Buffer, n *Node, indent, depth int) error {
	switch n.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if n.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindInt:
		buf.Write(strconv.AppendInt(nil, n.i, 10))
	case KindUint:
		buf.Write(strconv.AppendUint(nil, n.u, 10))
	case KindFloat:
		if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
			return fmt.Errorf("tree: %v has no JSON representation", n.f)
		}
		buf.Write(strconv.AppendFloat(nil, n.f, 'g', -1, 64))
	case KindString:
		appendJSONString(buf, n.s)
	case KindArray:
		if len(n.arr) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range n.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			newlineIndent(buf, indent, depth+1)
			if err := encodeJSON(buf, item, indent, depth+1); err != nil {
				return err
			}
		}
		newlineIndent(buf, indent, depth)
		buf.WriteByte(']')
	case KindObject:
		if len(n.obj) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		for i, m := range n.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			newlineIndent(buf, indent, depth+1)
			appendJSONString(buf, m.Key)
			buf.WriteByte(':')
			if indent > 0 {
				buf.WriteByte(' ')
			}
			if err := encodeJSON(buf, m.Value, indent, depth+1); err != nil {
				return err
			}
		}
		newlineIndent(buf, indent, depth)
		buf.WriteByte('}')
	}
	return nil
}

func newlineIndent(buf *bytes.Buffer, indent, depth int) {
	if indent <= 0 {
		return
	}
	buf.WriteByte('\n')
	for i := 0; i < indent*depth; i++ {
		buf.WriteByte(' ')
	}
}

const hexDigits = "0123456789abcdef"

func appendJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[r>>4])
				buf.WriteByte(hexDigits[r&0xf])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// DecodeJSON parses JSON text into a node. Object member order is kept, and
// numbers keep their full 64-bit fidelity: integer literals become Int, or
// Uint when they exceed the int64 range, and everything else becomes Float.
func DecodeJSON(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("tree: decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("tree: decode json: trailing data after value")
	}
	return n, nil
}

func decodeJSONValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberNode(t)
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			arr := Array()
			for dec.More() {
				item, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := Object()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %v, not a string", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func numberNode(num json.Number) (*Node, error) {
	s := num.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return Uint(u), nil
		}
	}
	f, err := num.Float64()
	if err != nil {
		return nil, fmt.Errorf("number %s out of range", s)
	}
	return Float(f), nil
}
