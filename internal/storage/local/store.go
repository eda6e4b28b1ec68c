package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/askdb/askdb/internal/storage"
)

// Store keeps exports as files below a root directory.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve export directory %q: %w", root, err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) Location() string {
	return s.root
}

func (s *Store) Put(ctx context.Context, key string, payload []byte, _ storage.PutOptions) (storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return storage.Object{}, err
	}
	cleaned, target, err := s.resolve(key)
	if err != nil {
		return storage.Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return storage.Object{}, fmt.Errorf("create export directory: %w", err)
	}
	if err := writeFileAtomic(target, payload); err != nil {
		return storage.Object{}, fmt.Errorf("write %s: %w", target, err)
	}
	return s.stat(cleaned, target)
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("open %s: %w", target, err)
	}
	return file, nil
}

func (s *Store) Stat(ctx context.Context, key string) (storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return storage.Object{}, err
	}
	cleaned, target, err := s.resolve(key)
	if err != nil {
		return storage.Object{}, err
	}
	return s.stat(cleaned, target)
}

func (s *Store) stat(key, target string) (storage.Object, error) {
	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.Object{}, storage.ErrObjectNotFound
		}
		return storage.Object{}, fmt.Errorf("stat %s: %w", target, err)
	}
	return storage.Object{
		Key:       key,
		Location:  target,
		Size:      info.Size(),
		WrittenAt: info.ModTime().UTC(),
	}, nil
}

func (s *Store) resolve(key string) (string, string, error) {
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return cleaned, filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// writeFileAtomic leaves either the old file or the complete new one at path.
func writeFileAtomic(path string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
