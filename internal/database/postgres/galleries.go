package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-attendance/internal/embedding"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

// pgHandlePrefix distinguishes postgres gallery handles from filesystem
// paths in the students.gallery_ref column.
const pgHandlePrefix = "pg:"

// GalleryStore implements gallery.Store on PostgreSQL with pgvector.
// Each gallery is a run of (roll_number, seq, embedding) rows replaced
// in a single transaction; the handle is "pg:<roll_number>".
type GalleryStore struct {
	pool *Pool
}

// NewGalleryStore creates a pgvector-backed gallery store.
func NewGalleryStore(pool *Pool) *GalleryStore {
	return &GalleryStore{pool: pool}
}

// Write replaces the person's gallery rows in one transaction, so readers
// never observe a partially written gallery.
func (s *GalleryStore) Write(ctx context.Context, rollNumber string, vectors [][]float32) (string, error) {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if err := embedding.CheckDimension(dim, len(v)); err != nil {
			return "", err
		}
	}

	handle := pgHandlePrefix + rollNumber

	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return "", &gallery.StorageError{Op: "write", Handle: handle, Cause: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM galleries WHERE roll_number = $1", rollNumber); err != nil {
		return "", &gallery.StorageError{Op: "write", Handle: handle, Cause: err}
	}
	for i, v := range vectors {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO galleries (roll_number, seq, embedding) VALUES ($1, $2, $3)",
			rollNumber, i, pgvector.NewVector(v),
		); err != nil {
			return "", &gallery.StorageError{Op: "write", Handle: handle, Cause: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", &gallery.StorageError{Op: "write", Handle: handle, Cause: err}
	}
	return handle, nil
}

// Read loads the person's gallery rows in enrollment order.
func (s *GalleryStore) Read(ctx context.Context, handle string) ([][]float32, error) {
	rollNumber, ok := strings.CutPrefix(handle, pgHandlePrefix)
	if !ok {
		return nil, &gallery.StorageError{Op: "read", Handle: handle, Cause: fmt.Errorf("not a postgres gallery handle")}
	}

	// An empty gallery and a missing one are indistinguishable at the row
	// level, so confirm the person was enrolled at all.
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM students WHERE roll_number = $1 AND gallery_ref = $2)",
		rollNumber, handle,
	).Scan(&exists)
	if err != nil {
		return nil, &gallery.StorageError{Op: "read", Handle: handle, Cause: err}
	}
	if !exists {
		return nil, &gallery.StorageError{Op: "read", Handle: handle, Cause: gallery.ErrNotFound}
	}

	rows, err := s.pool.Query(ctx,
		"SELECT embedding FROM galleries WHERE roll_number = $1 ORDER BY seq", rollNumber)
	if err != nil {
		return nil, &gallery.StorageError{Op: "read", Handle: handle, Cause: err}
	}
	defer rows.Close()

	var vectors [][]float32
	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, &gallery.StorageError{Op: "read", Handle: handle, Cause: err}
		}
		vectors = append(vectors, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, &gallery.StorageError{Op: "read", Handle: handle, Cause: err}
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if err := embedding.CheckDimension(dim, len(v)); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}
