package database

import "errors"

var (
	// ErrStudentNotFound is returned when a lookup matches no student.
	ErrStudentNotFound = errors.New("student not found")

	// ErrDuplicateStudent is returned when a roll number is already
	// registered. Roll numbers are unique across all students.
	ErrDuplicateStudent = errors.New("roll number already registered")
)
