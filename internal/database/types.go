package database

import (
	"time"
)

// Student represents a registered person.
type Student struct {
	ID         int64
	UID        string
	Name       string
	RollNumber string
	Department string
	Year       int
	GalleryRef string // storage handle; empty until enrollment completes
	CreatedAt  time.Time
}

// Enrolled reports whether a gallery has been written for the student.
func (s *Student) Enrolled() bool {
	return s.GalleryRef != ""
}

// PhotoRef records the path of an enrollment photo. Kept as provenance
// only; the matching core never reads these.
type PhotoRef struct {
	ID        int64
	StudentID int64
	Path      string
	CreatedAt time.Time
}

// AttendanceRecord is one attendance event joined with student attributes.
// Date and TimeOfDay use the same text representation as the ledger
// ("2006-01-02" and "15:04:05").
type AttendanceRecord struct {
	ID         int64
	StudentID  int64
	Date       string
	TimeOfDay  string
	Name       string
	RollNumber string
	Department string
	Year       int
}

// AttendanceOutcome is the result of a mark-attendance call.
type AttendanceOutcome int

const (
	// Recorded means a new attendance row was inserted.
	Recorded AttendanceOutcome = iota
	// AlreadyMarked means an attendance row for (student, date) already
	// existed; the call was an idempotent no-op.
	AlreadyMarked
)

func (o AttendanceOutcome) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case AlreadyMarked:
		return "already_marked"
	default:
		return "unknown"
	}
}
