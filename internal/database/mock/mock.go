// Package mock provides in-memory implementations of the storage
// interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

// StudentStore is an in-memory implementation of database.StudentWriter.
type StudentStore struct {
	mu       sync.RWMutex
	students []database.Student
	photos   map[int64][]string
	nextID   int64

	// Error injection
	CreateError       error
	ListEnrolledError error
	GetError          error
}

// NewStudentStore creates an empty in-memory student store.
func NewStudentStore() *StudentStore {
	return &StudentStore{photos: make(map[int64][]string), nextID: 1}
}

// CreateStudent inserts a student, enforcing roll number uniqueness.
func (m *StudentStore) CreateStudent(ctx context.Context, s *database.Student) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.students {
		if existing.RollNumber == s.RollNumber {
			return database.ErrDuplicateStudent
		}
	}
	s.ID = m.nextID
	m.nextID++
	if s.UID == "" {
		s.UID = fmt.Sprintf("mock-uid-%d", s.ID)
	}
	s.CreatedAt = time.Now()
	m.students = append(m.students, *s)
	return nil
}

// SetGalleryRef points a student at a gallery handle.
func (m *StudentStore) SetGalleryRef(ctx context.Context, studentID int64, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].ID == studentID {
			m.students[i].GalleryRef = ref
			return nil
		}
	}
	return database.ErrStudentNotFound
}

// AddPhotoRefs records photo paths for a student.
func (m *StudentStore) AddPhotoRefs(ctx context.Context, studentID int64, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos[studentID] = append(m.photos[studentID], paths...)
	return nil
}

// PhotoRefs returns recorded photo paths for a student.
func (m *StudentStore) PhotoRefs(studentID int64) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.photos[studentID]...)
}

// GetByRollNumber returns the student with the given roll number.
func (m *StudentStore) GetByRollNumber(ctx context.Context, rollNumber string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.RollNumber == rollNumber {
			out := s
			return &out, nil
		}
	}
	return nil, database.ErrStudentNotFound
}

// ListStudents returns all students ordered by name.
func (m *StudentStore) ListStudents(ctx context.Context, query string) ([]database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := database.NormalizeName(query)
	var out []database.Student
	for _, s := range m.students {
		if needle == "" || strings.Contains(database.NormalizeName(s.Name), needle) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListEnrolled returns students with a gallery ref, in id order.
func (m *StudentStore) ListEnrolled(ctx context.Context) ([]database.Student, error) {
	if m.ListEnrolledError != nil {
		return nil, m.ListEnrolledError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []database.Student
	for _, s := range m.students {
		if s.Enrolled() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AttendanceStore is an in-memory implementation of database.AttendanceStore.
type AttendanceStore struct {
	mu      sync.Mutex
	records []database.AttendanceRecord
	nextID  int64

	// Error injection
	MarkError error
	ListError error
}

// NewAttendanceStore creates an empty in-memory attendance store.
func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{nextID: 1}
}

// MarkAttendance inserts a record unless one exists for (student, date).
func (m *AttendanceStore) MarkAttendance(ctx context.Context, studentID int64, date, timeOfDay string) (database.AttendanceOutcome, error) {
	if m.MarkError != nil {
		return 0, m.MarkError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.StudentID == studentID && r.Date == date {
			return database.AlreadyMarked, nil
		}
	}
	m.records = append(m.records, database.AttendanceRecord{
		ID:        m.nextID,
		StudentID: studentID,
		Date:      date,
		TimeOfDay: timeOfDay,
	})
	m.nextID++
	return database.Recorded, nil
}

// ListAttendance returns recorded events, newest first.
func (m *AttendanceStore) ListAttendance(ctx context.Context) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]database.AttendanceRecord(nil), m.records...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].TimeOfDay > out[j].TimeOfDay
	})
	return out, nil
}

// Records returns a copy of all stored records in insertion order.
func (m *AttendanceStore) Records() []database.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.AttendanceRecord(nil), m.records...)
}

// GalleryStore is an in-memory implementation of gallery.Store.
type GalleryStore struct {
	mu        sync.RWMutex
	galleries map[string][][]float32

	// Error injection
	WriteError error
	ReadErrors map[string]error // per-handle read failures
}

// NewGalleryStore creates an empty in-memory gallery store.
func NewGalleryStore() *GalleryStore {
	return &GalleryStore{
		galleries:  make(map[string][][]float32),
		ReadErrors: make(map[string]error),
	}
}

// Write stores the vectors under a handle derived from the roll number.
func (m *GalleryStore) Write(ctx context.Context, rollNumber string, vectors [][]float32) (string, error) {
	if m.WriteError != nil {
		return "", m.WriteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	handle := "mock:" + rollNumber
	copied := make([][]float32, len(vectors))
	for i, v := range vectors {
		copied[i] = append([]float32(nil), v...)
	}
	m.galleries[handle] = copied
	return handle, nil
}

// Read returns the vectors stored under a handle.
func (m *GalleryStore) Read(ctx context.Context, handle string) ([][]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.ReadErrors[handle]; ok {
		return nil, err
	}
	vectors, ok := m.galleries[handle]
	if !ok {
		return nil, &gallery.StorageError{Op: "read", Handle: handle, Cause: gallery.ErrNotFound}
	}
	return vectors, nil
}
