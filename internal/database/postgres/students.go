package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pqUniqueViolation = "23505"

// StudentRepository provides PostgreSQL-backed student storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = "id, uid, name, roll_number, department, year, COALESCE(gallery_ref, ''), created_at"

func scanStudent(row interface{ Scan(...any) error }, s *database.Student) error {
	return row.Scan(&s.ID, &s.UID, &s.Name, &s.RollNumber, &s.Department, &s.Year, &s.GalleryRef, &s.CreatedAt)
}

// CreateStudent inserts a new student record.
func (r *StudentRepository) CreateStudent(ctx context.Context, s *database.Student) error {
	s.UID = uuid.NewString()

	query := `
		INSERT INTO students (uid, name, roll_number, department, year)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, s.UID, s.Name, s.RollNumber, s.Department, s.Year).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return database.ErrDuplicateStudent
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// SetGalleryRef points a student at their enrolled gallery.
func (r *StudentRepository) SetGalleryRef(ctx context.Context, studentID int64, ref string) error {
	result, err := r.pool.Exec(ctx, "UPDATE students SET gallery_ref = $1 WHERE id = $2", ref, studentID)
	if err != nil {
		return fmt.Errorf("set gallery ref: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return database.ErrStudentNotFound
	}
	return nil
}

// AddPhotoRefs records enrollment photo paths for provenance.
func (r *StudentRepository) AddPhotoRefs(ctx context.Context, studentID int64, paths []string) error {
	for _, path := range paths {
		if _, err := r.pool.Exec(ctx,
			"INSERT INTO student_photos (student_id, photo_path) VALUES ($1, $2)",
			studentID, path,
		); err != nil {
			return fmt.Errorf("insert photo ref: %w", err)
		}
	}
	return nil
}

// GetByRollNumber returns the student with the given roll number.
func (r *StudentRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*database.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE roll_number = $1"

	var s database.Student
	err := scanStudent(r.pool.QueryRow(ctx, query, rollNumber), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	return &s, nil
}

// ListStudents returns all students ordered by name, optionally filtered
// by a normalized name query.
func (r *StudentRepository) ListStudents(ctx context.Context, query string) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+studentColumns+" FROM students ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	students, err := scanStudents(rows)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return students, nil
	}

	// Diacritic-insensitive filtering happens in Go so the schema stays
	// free of extension requirements beyond pgvector.
	needle := database.NormalizeName(query)
	filtered := students[:0]
	for _, s := range students {
		if containsNormalized(s.Name, needle) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

func containsNormalized(name, needle string) bool {
	return strings.Contains(database.NormalizeName(name), needle)
}

// ListEnrolled returns students with a gallery, ordered by id. This order
// is what breaks exact score ties during matching.
func (r *StudentRepository) ListEnrolled(ctx context.Context) ([]database.Student, error) {
	query := "SELECT " + studentColumns + ` FROM students
		WHERE gallery_ref IS NOT NULL AND gallery_ref <> ''
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query enrolled students: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

func scanStudents(rows *sql.Rows) ([]database.Student, error) {
	var students []database.Student
	for rows.Next() {
		var s database.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}
