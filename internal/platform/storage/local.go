// Package storage keeps uploaded attachments on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrExtensionNotAllowed is returned when an upload's extension is outside the allow-list.
var ErrExtensionNotAllowed = errors.New("file extension not allowed")

// ErrUnsafePath is returned when a stored path escapes the storage root.
var ErrUnsafePath = errors.New("unsafe attachment path")

// Local stores files beneath Root and hands out slash separated relative paths.
type Local struct {
	Root string
}

// NewLocal returns a store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Root: dir}
}

// Save writes r under subdir with a random name keeping the extension of
// filename. An empty filename means nothing was uploaded and returns "".
func (s *Local) Save(subdir, filename string, r io.Reader, allowed ...string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !contains(allowed, ext) {
		return "", fmt.Errorf("%w: %s (allowed: %s)", ErrExtensionNotAllowed, filename, strings.Join(allowed, ", "))
	}

	rel := path.Join(subdir, uuid.NewString()+"."+ext)
	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("storage: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close: %w", err)
	}
	return rel, nil
}

// Open resolves a relative path returned by Save.
func (s *Local) Open(rel string) (*os.File, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Remove deletes a file written by Save. A missing file is not an error.
func (s *Local) Remove(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}

func (s *Local) resolve(rel string) (string, error) {
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	clean := path.Clean(rel)
	if rel == "" || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrUnsafePath
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimPrefix(item, "."), v) {
			return true
		}
	}
	return false
}
