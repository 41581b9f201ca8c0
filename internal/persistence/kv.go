package persistence

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrKeyNotFound is returned by KV.Get for keys that were never written.
var ErrKeyNotFound = errors.New("persistence: key not found")

// ErrClosed is returned by a KV used after Close.
var ErrClosed = errors.New("persistence: store closed")

// KV is the durable key/value backend the gateway writes slots to.
// Put replaces the whole value atomically.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

// Open creates the KV backend called name rooted at dir.
func Open(name, dir string) (KV, error) {
	switch name {
	case BackendFile, "":
		return NewAferoKV(afero.NewOsFs(), dir)
	case BackendPebble:
		return OpenPebbleKV(filepath.Join(dir, "state.pebble"))
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", name)
	}
}
