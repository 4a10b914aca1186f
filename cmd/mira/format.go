package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/mira/tree"
)

// The formats the CLI reads and writes.
const (
	formatJSON    = "json"
	formatMsgpack = "msgpack"
	formatCBOR    = "cbor"
)

// detectFormat guesses a format from a file extension, falling back to JSON.
func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		return formatMsgpack
	case ".cbor":
		return formatCBOR
	default:
		return formatJSON
	}
}

var cborDecMode cbor.DecMode

func init() {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("mira: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// readTree reads and decodes a document. A path of "-" reads stdin.
func readTree(path, format string) (*tree.Node, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if format == "" {
		format = detectFormat(path)
	}

	switch format {
	case formatJSON:
		return tree.DecodeJSON(data)
	case formatMsgpack:
		return tree.DecodeMsgpack(data)
	case formatCBOR:
		var v any
		if err := cborDecMode.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding CBOR: %w", err)
		}
		return tree.FromGo(v)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// writeTree encodes node in the given format. A path of "-" writes stdout.
func writeTree(path, format string, indent int, node *tree.Node) error {
	var data []byte
	var err error
	switch format {
	case formatJSON:
		data, err = tree.EncodeJSON(node, indent)
		if err == nil {
			data = append(data, '\n')
		}
	case formatMsgpack:
		data, err = tree.EncodeMsgpack(node)
	case formatCBOR:
		data, err = cbor.Marshal(tree.ToGo(node))
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
