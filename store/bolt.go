package store

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/chazu/mira/tree"
)

const bucketDocuments = "documents"

// record is the on-disk envelope around a document payload. Integer keys
// keep the envelope small; the payload itself is the binary tree codec.
type record struct {
	Rev     string `cbor:"1,keyasint"`
	SavedAt int64  `cbor:"2,keyasint"` // unix milliseconds
	Data    []byte `cbor:"3,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

func marshalRecord(rec *record) ([]byte, error) {
	raw, err := cborEncMode.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("store: marshal record: %w", err)
	}
	return raw, nil
}

func unmarshalRecord(raw []byte) (*record, error) {
	var rec record
	if err := cbor.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("store: unmarshal record: %w", err)
	}
	return &rec, nil
}

// initBolt lists the named steps run inside one transaction when a
// database is opened.
var initBolt = map[string]func(tx *bolt.Tx) error{
	"initialize document bucket": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketDocuments))
		return err
	},
}

type boltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) a bolt-backed store at path.
func OpenBolt(path string) (Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initBolt {
			if err := fn(tx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init bolt %s: %w", path, err)
	}
	log.Debugf("opened bolt store at %s", path)
	return &boltStore{db: db}, nil
}

func (s *boltStore) Put(name string, node *tree.Node) (Revision, error) {
	data, err := encodeTree(node)
	if err != nil {
		return "", err
	}
	rev := newRevision()
	raw, err := marshalRecord(&record{
		Rev:     string(rev),
		SavedAt: time.Now().UnixMilli(),
		Data:    data,
	})
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDocuments)).Put([]byte(name), raw)
	})
	if err != nil {
		return "", fmt.Errorf("store: put %q: %w", name, err)
	}
	return rev, nil
}

func (s *boltStore) Get(name string) (*tree.Node, Revision, error) {
	var rec *record
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketDocuments)).Get([]byte(name))
		if raw == nil {
			return ErrNoDocument
		}
		var err error
		rec, err = unmarshalRecord(raw)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	node, err := decodeTree(rec.Data)
	if err != nil {
		return nil, "", err
	}
	return node, Revision(rec.Rev), nil
}

func (s *boltStore) List() ([]Document, error) {
	var docs []Document
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketDocuments)).Cursor()
		for k, raw := c.First(); k != nil; k, raw = c.Next() {
			rec, err := unmarshalRecord(raw)
			if err != nil {
				return err
			}
			docs = append(docs, Document{
				Name:    string(k),
				Rev:     Revision(rec.Rev),
				SavedAt: time.UnixMilli(rec.SavedAt),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Bolt cursors iterate in byte order, so docs is already name-sorted.
	return docs, nil
}

func (s *boltStore) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketDocuments))
		if b.Get([]byte(name)) == nil {
			return ErrNoDocument
		}
		return b.Delete([]byte(name))
	})
}

func (s *boltStore) Close() error {
	return s.db.Close()
}
