// Package store persists named serialized trees. Documents are written
// whole: every Put replaces the previous contents under that name and
// mints a fresh revision, so callers can cheaply detect whether a
// document changed between reads.
//
// Two backends implement the same interface: a bbolt file (the default)
// and a SQLite database. Open selects one by name.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/mira/tree"
)

var log = commonlog.GetLogger("mira.store")

// ErrNoDocument is returned by Get and Delete when no document exists
// under the requested name.
var ErrNoDocument = errors.New("store: no such document")

// Revision identifies one particular Put of a document. Two Puts never
// share a revision, even when they wrote identical bytes.
type Revision string

// Document describes a stored document without its contents.
type Document struct {
	Name    string
	Rev     Revision
	SavedAt time.Time
}

// Store is a named-document store for serialized trees.
type Store interface {
	// Put writes node under name, replacing any previous document, and
	// returns the new revision.
	Put(name string, node *tree.Node) (Revision, error)

	// Get returns the document stored under name.
	Get(name string) (*tree.Node, Revision, error)

	// List returns all documents sorted by name.
	List() ([]Document, error)

	// Delete removes the document stored under name.
	Delete(name string) error

	Close() error
}

// Open opens the named backend at path. An empty backend selects bolt.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "bolt":
		return OpenBolt(path)
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}

func newRevision() Revision {
	return Revision(uuid.New().String())
}

// encodeTree renders a document payload in the binary tree codec.
func encodeTree(node *tree.Node) ([]byte, error) {
	data, err := tree.EncodeMsgpack(node)
	if err != nil {
		return nil, fmt.Errorf("store: encode document: %w", err)
	}
	return data, nil
}

func decodeTree(data []byte) (*tree.Node, error) {
	node, err := tree.DecodeMsgpack(data)
	if err != nil {
		return nil, fmt.Errorf("store: decode document: %w", err)
	}
	return node, nil
}
