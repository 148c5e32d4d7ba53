package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	osfs "github.com/hack-pad/hackpadfs/os"
)

// FSSlot stores each key as one file in a hackpadfs filesystem. The same code
// runs on IndexedDB in the browser, on disk, and in memory for tests.
type FSSlot struct {
	FS  hackpadfs.FS
	Dir string
}

// NewFSSlot creates a slot rooted at dir inside fs, creating dir if needed.
func NewFSSlot(fs hackpadfs.FS, dir string) (*FSSlot, error) {
	if dir == "" {
		dir = "."
	}
	if dir != "." {
		if err := hackpadfs.MkdirAll(fs, dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create slot dir %q: %w", dir, err)
		}
	}
	return &FSSlot{FS: fs, Dir: dir}, nil
}

// NewMemSlot returns a slot backed by a fresh in-memory filesystem.
func NewMemSlot() (*FSSlot, error) {
	fs, err := mem.NewFS()
	if err != nil {
		return nil, err
	}
	return NewFSSlot(fs, ".")
}

// NewDirSlot returns a slot backed by a directory on the host filesystem.
func NewDirSlot(dir string) (*FSSlot, error) {
	fs, err := DirFS(dir)
	if err != nil {
		return nil, err
	}
	return NewFSSlot(fs, ".")
}

// DirFS maps a host directory to a hackpadfs filesystem rooted there.
func DirFS(dir string) (hackpadfs.FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	root := osfs.NewFS()
	if err := hackpadfs.MkdirAll(root, toFSPath(abs), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %q: %w", abs, err)
	}
	return root.Sub(toFSPath(abs))
}

func toFSPath(abs string) string {
	p := strings.TrimPrefix(filepath.ToSlash(abs), "/")
	if p == "" {
		return "."
	}
	return p
}

func (s *FSSlot) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("kv: invalid key %q", key)
	}
	return path.Join(s.Dir, key), nil
}

func (s *FSSlot) Get(_ context.Context, key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	content, err := hackpadfs.ReadFile(s.FS, p)
	if err != nil {
		if errors.Is(err, hackpadfs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(content), nil
}

func (s *FSSlot) Set(_ context.Context, key string, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := hackpadfs.WriteFullFile(s.FS, p, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}

func (s *FSSlot) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := hackpadfs.Remove(s.FS, p); err != nil && !errors.Is(err, hackpadfs.ErrNotExist) {
		return err
	}
	return nil
}

var _ Slot = (*FSSlot)(nil)
