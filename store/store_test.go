package store

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/chazu/mira/tree"
)

// Both backends run the same conformance suite.
var backends = []struct {
	name string
	open func(t *testing.T, path string) Store
}{
	{"bolt", func(t *testing.T, path string) Store {
		s, err := OpenBolt(path)
		if err != nil {
			t.Fatalf("OpenBolt: %v", err)
		}
		return s
	}},
	{"sqlite", func(t *testing.T, path string) Store {
		s, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		return s
	}},
}

func sampleDoc() *tree.Node {
	n := tree.Object()
	n.Set("theme", tree.String("dark"))
	n.Set("volume", tree.Float(0.5))
	n.Set("big", tree.Uint(math.MaxUint64))
	n.Set("neg", tree.Int(-42))
	n.Set("tags", tree.Array(tree.String("a"), tree.String("b")))
	return n
}

func TestPutGetRoundTrip(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), "docs.db"))
			defer s.Close()

			doc := sampleDoc()
			rev, err := s.Put("prefs", doc)
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if rev == "" {
				t.Error("Put returned an empty revision")
			}

			got, gotRev, err := s.Get("prefs")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if gotRev != rev {
				t.Errorf("Get rev = %q, want %q", gotRev, rev)
			}
			if !got.Equal(doc) {
				t.Errorf("Get = %v, want %v", got, doc)
			}
		})
	}
}

func TestPutMintsFreshRevisions(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), "docs.db"))
			defer s.Close()

			doc := sampleDoc()
			r1, err := s.Put("prefs", doc)
			if err != nil {
				t.Fatalf("Put 1: %v", err)
			}
			// Same bytes, new revision.
			r2, err := s.Put("prefs", doc)
			if err != nil {
				t.Fatalf("Put 2: %v", err)
			}
			if r1 == r2 {
				t.Errorf("two Puts share revision %q", r1)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), "docs.db"))
			defer s.Close()

			if _, _, err := s.Get("nothing"); !errors.Is(err, ErrNoDocument) {
				t.Errorf("Get missing: err = %v, want ErrNoDocument", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), "docs.db"))
			defer s.Close()

			if _, err := s.Put("prefs", sampleDoc()); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := s.Delete("prefs"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, _, err := s.Get("prefs"); !errors.Is(err, ErrNoDocument) {
				t.Errorf("Get after Delete: err = %v, want ErrNoDocument", err)
			}
			if err := s.Delete("prefs"); !errors.Is(err, ErrNoDocument) {
				t.Errorf("Delete again: err = %v, want ErrNoDocument", err)
			}
		})
	}
}

func TestListSortedByName(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, filepath.Join(t.TempDir(), "docs.db"))
			defer s.Close()

			revs := map[string]Revision{}
			for _, name := range []string{"charlie", "alpha", "bravo"} {
				rev, err := s.Put(name, sampleDoc())
				if err != nil {
					t.Fatalf("Put %s: %v", name, err)
				}
				revs[name] = rev
			}

			docs, err := s.List()
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			want := []string{"alpha", "bravo", "charlie"}
			if len(docs) != len(want) {
				t.Fatalf("List returned %d documents, want %d", len(docs), len(want))
			}
			for i, d := range docs {
				if d.Name != want[i] {
					t.Errorf("docs[%d].Name = %q, want %q", i, d.Name, want[i])
				}
				if d.Rev != revs[d.Name] {
					t.Errorf("docs[%d].Rev = %q, want %q", i, d.Rev, revs[d.Name])
				}
				if d.SavedAt.IsZero() {
					t.Errorf("docs[%d].SavedAt is zero", i)
				}
			}
		})
	}
}

func TestReopenKeepsDocuments(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "docs.db")

			s := b.open(t, path)
			doc := sampleDoc()
			rev, err := s.Put("prefs", doc)
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			s = b.open(t, path)
			defer s.Close()
			got, gotRev, err := s.Get("prefs")
			if err != nil {
				t.Fatalf("Get after reopen: %v", err)
			}
			if gotRev != rev {
				t.Errorf("rev after reopen = %q, want %q", gotRev, rev)
			}
			if !got.Equal(doc) {
				t.Errorf("document changed across reopen: %v", got)
			}
		})
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("", filepath.Join(dir, "default.db"))
	if err != nil {
		t.Fatalf("Open default: %v", err)
	}
	s.Close()

	s, err = Open("sqlite", filepath.Join(dir, "docs.sqlite"))
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	s.Close()

	if _, err := Open("duckdb", filepath.Join(dir, "x")); err == nil {
		t.Error("Open with unknown backend should fail")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	rec := &record{Rev: "r-1", SavedAt: 1700000000000, Data: []byte{0x81}}
	raw, err := marshalRecord(rec)
	if err != nil {
		t.Fatalf("marshalRecord: %v", err)
	}
	back, err := unmarshalRecord(raw)
	if err != nil {
		t.Fatalf("unmarshalRecord: %v", err)
	}
	if back.Rev != rec.Rev || back.SavedAt != rec.SavedAt || string(back.Data) != string(rec.Data) {
		t.Errorf("envelope round trip = %+v, want %+v", back, rec)
	}
}
