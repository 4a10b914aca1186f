package tree

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// TestCodecGolden checks each testdata archive: the source document must
// re-encode to the expected compact and indented text, survive the binary
// codec unchanged, and decode idempotently.
func TestCodecGolden(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatal("no golden fixtures found")
	}
	for _, path := range matches {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}
			files := make(map[string]string)
			for _, f := range ar.Files {
				files[f.Name] = strings.TrimRight(string(f.Data), "\n")
			}

			doc, err := DecodeJSON([]byte(files["doc.json"]))
			if err != nil {
				t.Fatalf("decode doc.json: %v", err)
			}

			compact, err := EncodeJSON(doc, 0)
			if err != nil {
				t.Fatal(err)
			}
			if string(compact) != files["compact.json"] {
				t.Errorf("compact:\n got %s\nwant %s", compact, files["compact.json"])
			}

			pretty, err := EncodeJSON(doc, 2)
			if err != nil {
				t.Fatal(err)
			}
			if string(pretty) != files["pretty.json"] {
				t.Errorf("pretty:\n got:\n%s\nwant:\n%s", pretty, files["pretty.json"])
			}

			bin, err := EncodeMsgpack(doc)
			if err != nil {
				t.Fatal(err)
			}
			back, err := DecodeMsgpack(bin)
			if err != nil {
				t.Fatal(err)
			}
			if !doc.Equal(back) {
				t.Errorf("binary round trip changed the tree: %s", back)
			}

			again, err := DecodeJSON(compact)
			if err != nil {
				t.Fatal(err)
			}
			if !doc.Equal(again) {
				t.Error("re-decoding the compact text changed the tree")
			}
		})
	}
}
