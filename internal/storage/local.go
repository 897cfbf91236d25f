package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStorage keeps assets below a root directory, one subdirectory per owner.
type LocalStorage struct {
	fs afero.Fs
}

// NewLocalStorage roots fs at dir; paths cannot escape it.
func NewLocalStorage(fs afero.Fs, dir string) *LocalStorage {
	return &LocalStorage{fs: afero.NewBasePathFs(fs, dir)}
}

func (s *LocalStorage) Put(_ context.Context, owner, name string, r io.Reader, _ int64, _ string) (string, error) {
	if !validSegment(owner) || !validSegment(name) {
		return "", fmt.Errorf("invalid asset path %q/%q", owner, name)
	}
	if err := s.fs.MkdirAll(owner, 0o755); err != nil {
		return "", fmt.Errorf("create owner dir: %w", err)
	}
	f, err := s.fs.OpenFile(filepath.Join(owner, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create asset: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write asset: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close asset: %w", err)
	}
	return Ref(owner, name), nil
}

func (s *LocalStorage) Remove(_ context.Context, ref string) error {
	owner, name, ok := Split(ref)
	if !ok {
		return fmt.Errorf("not a local asset reference: %q", ref)
	}
	if err := s.fs.Remove(filepath.Join(owner, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) RemoveOwner(_ context.Context, owner string) error {
	if !validSegment(owner) {
		return fmt.Errorf("invalid owner %q", owner)
	}
	return s.fs.RemoveAll(owner)
}

func (s *LocalStorage) Owners(_ context.Context) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, string(filepath.Separator))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, fi := range infos {
		if fi.IsDir() {
			out = append(out, fi.Name())
		}
	}
	return out, nil
}
