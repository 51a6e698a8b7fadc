// Package gallery persists per-person embedding galleries.
// A gallery is an ordered sequence of same-length float32 vectors owned
// by exactly one enrolled person. The store owns the serialized format;
// consumers only see vectors and opaque storage handles.
package gallery

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a storage handle does not resolve to a gallery.
var ErrNotFound = errors.New("gallery not found")

// StorageError wraps I/O and serialization failures. A storage failure is
// fatal for the affected person's operation only; matching continues over
// the remaining galleries.
type StorageError struct {
	Op     string
	Handle string
	Cause  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("gallery %s %q: %v", e.Op, e.Handle, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Store reads and writes embedding galleries.
type Store interface {
	// Write persists the vector sequence for a person, replacing any
	// previous gallery. The write is atomic: a crash mid-write never
	// leaves a corrupt gallery readable by a later Read. An empty vector
	// sequence is valid and produces an empty gallery.
	Write(ctx context.Context, rollNumber string, vectors [][]float32) (handle string, err error)

	// Read loads the vector sequence for a handle in enrollment order.
	// Returns a StorageError wrapping ErrNotFound for a missing handle,
	// a StorageError for corrupt payloads, and a dimension error if the
	// stored vectors disagree on length.
	Read(ctx context.Context, handle string) ([][]float32, error)
}
