// Package history persists identity keys across imports so a batch can
// optionally skip transactions already committed by a previous run. The
// pipeline works without it; cross-batch de-duplication is an opt-in
// extension.
package history

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketKeys = []byte("identity_keys")

// Store is a persisted ledger of previously imported identity keys.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the ledger file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history ledger: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKeys)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init history ledger: %w", err)
	}
	return &Store{db: db}, nil
}

// Seen reports whether the key was recorded by a previous batch.
func (s *Store) Seen(key string) (bool, error) {
	var seen bool
	err := s.db.View(func(tx *bolt.Tx) error {
		seen = tx.Bucket(bucketKeys).Get([]byte(key)) != nil
		return nil
	})
	return seen, err
}

// MarkBatch records the keys of a successfully exported batch. The recorded
// value is the export timestamp, useful when inspecting the ledger manually.
func (s *Store) MarkBatch(keys []string) error {
	stamp := []byte(time.Now().UTC().Format(time.RFC3339))
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketKeys)
		for _, key := range keys {
			if err := b.Put([]byte(key), stamp); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the underlying database file.
func (s *Store) Close() error { return s.db.Close() }
