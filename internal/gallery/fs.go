package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// validRollNumber keeps gallery file names inside the store directory.
var validRollNumber = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// FSStore keeps one gallery file per person under a root directory.
// The storage handle is the file path, keyed by roll number.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem-backed gallery store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Handle: dir, Cause: err}
	}
	return &FSStore{root: dir}, nil
}

// Write serializes the gallery to a temp file and renames it into place,
// so readers never observe a partially written gallery.
func (s *FSStore) Write(_ context.Context, rollNumber string, vectors [][]float32) (string, error) {
	if !validRollNumber.MatchString(rollNumber) {
		return "", &StorageError{Op: "write", Handle: rollNumber, Cause: fmt.Errorf("invalid roll number %q", rollNumber)}
	}
	handle := filepath.Join(s.root, rollNumber+".gal")

	data, err := Encode(vectors)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, ".gal-*")
	if err != nil {
		return "", &StorageError{Op: "write", Handle: handle, Cause: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &StorageError{Op: "write", Handle: handle, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &StorageError{Op: "write", Handle: handle, Cause: err}
	}
	if err := os.Rename(tmpPath, handle); err != nil {
		os.Remove(tmpPath)
		return "", &StorageError{Op: "write", Handle: handle, Cause: err}
	}

	return handle, nil
}

// Read loads and decodes a gallery file.
func (s *FSStore) Read(_ context.Context, handle string) ([][]float32, error) {
	data, err := os.ReadFile(handle)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StorageError{Op: "read", Handle: handle, Cause: ErrNotFound}
		}
		return nil, &StorageError{Op: "read", Handle: handle, Cause: err}
	}

	vectors, err := Decode(data)
	if err != nil {
		return nil, &StorageError{Op: "read", Handle: handle, Cause: err}
	}
	return vectors, nil
}
