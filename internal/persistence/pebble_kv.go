package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
)

const pebbleKeyPrefix = "slot:"

// PebbleKV stores slots in an embedded pebble database.
type PebbleKV struct {
	mu     sync.RWMutex
	db     *pebble.DB
	closed bool
}

// OpenPebbleKV opens (or creates) the database at path.
func OpenPebbleKV(path string) (*PebbleKV, error) {
	return OpenPebbleKVWith(path, &pebble.Options{})
}

// OpenPebbleKVWith opens the database with explicit options, e.g. an
// in-memory vfs for tests.
func OpenPebbleKVWith(path string, opts *pebble.Options) (*PebbleKV, error) {
	if opts == nil || opts.FS == nil {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &PebbleKV{db: db}, nil
}

// Get returns a copy of the value stored for key.
func (s *PebbleKV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	v, closer, err := s.db.Get([]byte(pebbleKeyPrefix + key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// pebble owns v until closer is closed
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put writes value synchronously.
func (s *PebbleKV) Put(_ context.Context, key string, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Set([]byte(pebbleKeyPrefix+key), value, pebble.Sync)
}

// Close closes the database. Later reads and writes return ErrClosed.
func (s *PebbleKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
