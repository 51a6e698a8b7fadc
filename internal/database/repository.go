// Package database defines the storage interfaces and shared types for
// students, enrollment photos, and the attendance ledger.
package database

import (
	"context"
)

// StudentReader provides read access to student records.
type StudentReader interface {
	// GetByRollNumber returns the student with the given roll number,
	// or ErrStudentNotFound.
	GetByRollNumber(ctx context.Context, rollNumber string) (*Student, error)

	// ListStudents returns all students ordered by name. A non-empty
	// query filters by normalized name match (case- and
	// diacritic-insensitive substring).
	ListStudents(ctx context.Context, query string) ([]Student, error)

	// ListEnrolled returns students with a non-empty gallery reference,
	// ordered by id. The matching engine enumerates galleries in this
	// order, and exact score ties are broken by it: first in enumeration
	// order wins.
	ListEnrolled(ctx context.Context) ([]Student, error)
}

// StudentWriter provides write access to student records.
type StudentWriter interface {
	StudentReader

	// CreateStudent inserts a new student and fills in ID, UID and
	// CreatedAt. Returns ErrDuplicateStudent if the roll number is taken.
	CreateStudent(ctx context.Context, s *Student) error

	// SetGalleryRef points a student at their enrolled gallery.
	SetGalleryRef(ctx context.Context, studentID int64, ref string) error

	// AddPhotoRefs records enrollment photo paths for provenance.
	AddPhotoRefs(ctx context.Context, studentID int64, paths []string) error
}

// AttendanceStore persists attendance events. It is the only component
// that creates attendance rows.
type AttendanceStore interface {
	// MarkAttendance inserts (studentID, date, timeOfDay) unless a row
	// for (studentID, date) already exists. The storage engine's
	// uniqueness constraint makes this safe under concurrent requests:
	// exactly one insert wins, the rest observe AlreadyMarked.
	MarkAttendance(ctx context.Context, studentID int64, date, timeOfDay string) (AttendanceOutcome, error)

	// ListAttendance returns attendance joined with student attributes,
	// ordered by (date desc, time desc).
	ListAttendance(ctx context.Context) ([]AttendanceRecord, error)
}
