package persistence

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// AferoKV stores every key as one JSON file under a directory.
type AferoKV struct {
	fs  afero.Fs
	dir string
}

// NewAferoKV creates the directory when needed and returns a store on fsys.
func NewAferoKV(fsys afero.Fs, dir string) (*AferoKV, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &AferoKV{fs: fsys, dir: dir}, nil
}

// NewMemoryKV returns a store backed by an in-memory filesystem. Nothing
// survives the process.
func NewMemoryKV() *AferoKV {
	kv, _ := NewAferoKV(afero.NewMemMapFs(), "/")
	return kv
}

func (s *AferoKV) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the file for key.
func (s *AferoKV) Get(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

// Put writes value to a temporary file and renames it over the previous
// version, so readers never see a partial document.
func (s *AferoKV) Put(_ context.Context, key string, value []byte) error {
	target := s.path(key)
	tmp := target + ".tmp"

	f, err := s.fs.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(value); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return s.fs.Rename(tmp, target)
}

// Close is a no-op; files are closed after every write.
func (s *AferoKV) Close() error {
	return nil
}
