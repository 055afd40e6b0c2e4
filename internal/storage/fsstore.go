// Package storage provides the blob/object store collaborator: put,
// exists and open over named binary objects. The ingestion chunker
// writes page units here (write-if-absent); the search provider's
// indexer reads them out of band.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/skydocs/skydocs/internal/log"
)

// ErrNotFound indicates the named object does not exist in the store.
var ErrNotFound = errors.New("object not found")

// FSStore stores objects as files under a single root directory.
// Object names are flat; path separators and traversal are rejected.
// Content is immutable per name, so concurrent writers of the same
// object are harmless (last writer wins with identical bytes).
type FSStore struct {
	root   string
	logger log.Logger
}

// NewFSStore creates the store, creating root if needed.
func NewFSStore(root string, logger log.Logger) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: root directory is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}
	return &FSStore{root: root, logger: logger}, nil
}

// Exists reports whether an object with the given name is present.
func (s *FSStore) Exists(_ context.Context, name string) (bool, error) {
	path, err := s.objectPath(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking object %q: %w", name, err)
}

// Upload writes the object. The contentType tag is object-store
// metadata; the filesystem backend records it only in the debug log.
// The write goes through a temp file and rename so a crashed upload
// never leaves a half-written object behind.
func (s *FSStore) Upload(_ context.Context, name string, r io.Reader, contentType string) error {
	path, err := s.objectPath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp object: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("writing object %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing object %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storing object %q: %w", name, err)
	}

	s.logger.Debug("stored object", "name", name, "content_type", contentType)
	return nil
}

// Open returns a reader over the named object. The caller closes it.
func (s *FSStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path, err := s.objectPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("object %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("opening object %q: %w", name, err)
	}
	return f, nil
}

// objectPath validates the name and resolves it under root.
func (s *FSStore) objectPath(name string) (string, error) {
	if name == "" {
		return "", errors.New("storage: object name is required")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", fmt.Errorf("storage: invalid object name %q", name)
	}
	return filepath.Join(s.root, name), nil
}
