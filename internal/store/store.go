package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FS keeps one directory per session under Root: staged uploads and exported images.
type FS struct{ Root string }

func New(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FS{Root: root}, nil
}

func (s *FS) SessionDir(id string) string { return filepath.Join(s.Root, id) }

func (s *FS) MkSession(id string) (string, error) {
	d := s.SessionDir(id)
	for _, sub := range []string{"uploads", "exports"} {
		if err := os.MkdirAll(filepath.Join(d, sub), 0o755); err != nil {
			return "", err
		}
	}
	return d, nil
}

// SaveUpload copies r into the session's uploads directory and returns the file path.
// Only the base name of name is used.
func (s *FS) SaveUpload(id, name string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "", fmt.Errorf("invalid upload name %q", name)
	}
	if _, err := s.MkSession(id); err != nil {
		return "", err
	}
	dstPath := filepath.Join(s.SessionDir(id), "uploads", base)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		return "", err
	}
	return dstPath, dst.Close()
}

// SaveExport writes a rendered image as exports/graph.<ext>.
func (s *FS) SaveExport(id, ext string, data []byte) (string, error) {
	if _, err := s.MkSession(id); err != nil {
		return "", err
	}
	p := filepath.Join(s.SessionDir(id), "exports", "graph."+ext)
	return p, os.WriteFile(p, data, 0o644)
}

func (s *FS) RemoveSession(id string) error {
	return os.RemoveAll(s.SessionDir(id))
}

// Purge removes everything under Root, keeping Root itself.
func (s *FS) Purge() (removed int, err error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.Root, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
