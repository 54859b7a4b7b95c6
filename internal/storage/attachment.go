// Package storage persists uploaded pictogram files outside the database.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// AttachmentStore is the file side of the task/subtask pictogram lifecycle.
// Delete is idempotent on missing paths. File writes are not transactional
// with the database; callers sequence stores before commit and deletes after
// commit, accepting at worst an orphaned file.
type AttachmentStore interface {
	// Store saves the stream under a fresh name derived from filename's
	// extension and returns the stored path.
	Store(filename string, r io.Reader) (string, error)
	// Copy duplicates an already stored file under a fresh name, so a
	// replicated task occurrence owns its attachment independently.
	Copy(path string) (string, error)
	// Delete removes a stored file. Missing paths are not an error.
	Delete(path string) error
}

// DiskStore keeps attachments as flat files under a root directory.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir %q: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Store(filename string, r io.Reader) (string, error) {
	path := uuid.NewString() + filepath.Ext(filename)
	f, err := os.Create(filepath.Join(s.root, path))
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path, nil
}

func (s *DiskStore) Copy(path string) (string, error) {
	src, err := os.Open(filepath.Join(s.root, path))
	if err != nil {
		return "", fmt.Errorf("open attachment %q: %w", path, err)
	}
	defer src.Close()
	return s.Store(path, src)
}

func (s *DiskStore) Delete(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete attachment %q: %w", path, err)
	}
	return nil
}
