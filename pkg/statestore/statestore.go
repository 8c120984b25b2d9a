package statestore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"nexora/pkg/config"
)

const (
	defaultBucket   = "nexora"
	defaultFileName = "state.db"
)

// Keys used by the app. Kept here so callers agree on spelling.
const (
	KeyMVPSnapshot = "mvp/snapshot"
	KeyDismissals  = "ui/dismissals"
)

// Store is a small key-value persistence layer backed by bbolt. It holds
// in-progress generation snapshots and UI state between runs.
type Store struct {
	db *bolt.DB
}

// DefaultPath returns the database location under the app state directory.
func DefaultPath() string {
	return filepath.Join(config.Dir(), defaultFileName)
}

// Open opens (creating if needed) the database at path and ensures the
// bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(defaultBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or nil when absent.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(defaultBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", defaultBucket)
		}
		v := bucket.Get([]byte(key))
		if v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	return value, err
}

func (s *Store) Put(key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(defaultBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", defaultBucket)
		}
		return bucket.Put([]byte(key), value)
	})
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(defaultBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", defaultBucket)
		}
		return bucket.Delete([]byte(key))
	})
}

// List returns every key/value pair whose key starts with prefix. An empty
// prefix returns everything.
func (s *Store) List(prefix string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(defaultBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", defaultBucket)
		}
		cursor := bucket.Cursor()
		p := []byte(prefix)
		if len(p) == 0 {
			for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
				result[string(k)] = append([]byte(nil), v...)
			}
			return nil
		}
		for k, v := cursor.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = cursor.Next() {
			result[string(k)] = append([]byte(nil), v...)
		}
		return nil
	})
	return result, err
}
