package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var historyBucket = []byte("history_documents")

// BoltStore keeps history documents in a single-file embedded database.
// It is the default durable backend; no external service required.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database file at path and ensures
// the history bucket exists. The open uses a short lock timeout so a
// second process pointing at the same file fails fast instead of
// blocking forever.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, errBucket := tx.CreateBucketIfNotExists(historyBucket)
		return errBucket
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Load reads and decodes the document stored under path.
func (s *BoltStore) Load(_ context.Context, path string) (Document, bool, error) {
	var (
		doc   Document
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(path))
		if len(v) == 0 {
			return nil
		}
		if errDecode := json.Unmarshal(v, &doc); errDecode != nil {
			return errDecode
		}
		found = true
		return nil
	})
	if err != nil {
		return Document{}, false, err
	}
	return doc, found, nil
}

// Save encodes doc and overwrites whatever is stored under path.
func (s *BoltStore) Save(_ context.Context, path string, doc Document) error {
	enc, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, errBucket := tx.CreateBucketIfNotExists(historyBucket)
		if errBucket != nil {
			return errBucket
		}
		return b.Put([]byte(path), enc)
	})
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error { return s.db.Close() }
