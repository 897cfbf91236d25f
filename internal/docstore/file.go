package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileBackend stores each key as <dir>/<key>.json.
type FileBackend struct {
	fs  afero.Fs
	dir string
}

// NewFileBackend returns a backend rooted at dir on fs (afero.NewOsFs() in production).
func NewFileBackend(fs afero.Fs, dir string) *FileBackend {
	return &FileBackend{fs: fs, dir: dir}
}

func (b *FileBackend) Resolve(key string) string {
	p := filepath.Join(b.dir, key+".json")
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func (b *FileBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	data, err := afero.ReadFile(b.fs, b.Resolve(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	// empty content reads as absent
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// Save writes to a temp file in the target directory and renames it over the target.
func (b *FileBackend) Save(_ context.Context, key string, data []byte) error {
	path := b.Resolve(key)
	dir := filepath.Dir(path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := afero.TempFile(b.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := b.fs.Rename(tmpName, path); err != nil {
		_ = b.fs.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
