package matching

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/embedding"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

// enroll registers a student and stores their gallery, returning the record.
func enroll(t *testing.T, students *mock.StudentStore, galleries *mock.GalleryStore, name, roll string, vectors [][]float32) database.Student {
	t.Helper()
	ctx := context.Background()

	s := &database.Student{Name: name, RollNumber: roll, Department: "CS", Year: 2}
	if err := students.CreateStudent(ctx, s); err != nil {
		t.Fatalf("create student %s: %v", roll, err)
	}
	handle, err := galleries.Write(ctx, roll, vectors)
	if err != nil {
		t.Fatalf("write gallery %s: %v", roll, err)
	}
	if err := students.SetGalleryRef(ctx, s.ID, handle); err != nil {
		t.Fatalf("set gallery ref %s: %v", roll, err)
	}
	s.GalleryRef = handle
	return *s
}

// vecAtDistance builds a 2d unit-ish vector whose cosine distance from
// (1,0) is exactly d: angle = arccos(1-d).
func vecAtDistance(d float64) []float32 {
	angle := math.Acos(1 - d)
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func TestIdentify_BestCandidateWins(t *testing.T) {
	students := mock.NewStudentStore()
	galleries := mock.NewGalleryStore()

	alice := enroll(t, students, galleries, "Alice", "A1", [][]float32{vecAtDistance(0.2)})
	enroll(t, students, galleries, "Bob", "B1", [][]float32{vecAtDistance(0.5)})

	engine := NewEngine(students, galleries, 0.35)
	decision, err := engine.Identify(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}

	if !decision.Matched {
		t.Fatal("expected a match")
	}
	if decision.Student.ID != alice.ID {
		t.Errorf("expected Alice to win, got %s", decision.Student.RollNumber)
	}
	if math.Abs(decision.Distance-0.2) > 1e-4 {
		t.Errorf("expected distance 0.2, got %f", decision.Distance)
	}
}

func TestIdentify_ThresholdExcludesAll(t *testing.T) {
	students := mock.NewStudentStore()
	galleries := mock.NewGalleryStore()

	enroll(t, students, galleries, "Alice", "A1", [][]float32{vecAtDistance(0.2)})
	enroll(t, students, galleries, "Bob", "B1", [][]float32{vecAtDistance(0.5)})

	engine := NewEngine(students, galleries, 0.1)
	decision, err := engine.Identify(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if decision.Matched {
		t.Errorf("expected no match under threshold 0.1, got %s at %f",
			decision.Student.RollNumber, decision.Distance)
	}
}

func TestIdentify_MinOverGalleryVectors(t *testing.T) {
	students := mock.NewStudentStore()
	galleries := mock.NewGalleryStore()

	// One bad photo and one good one: the good one must carry the match.
	enroll(t, students, galleries, "Alice", "A1", [][]float32{
		vecAtDistance(0.9),
		vecAtDistance(0.05),
		vecAtDistance(0.6),
	})

	engine := NewEngine(students, galleries, 0.35)
	decision, err := engine.Identify(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if !decision.Matched {
		t.Fatal("expected a match via the closest gallery vector")
	}
	if math.Abs(decision.Distance-0.05) > 1e-4 {
		t.Errorf("expected min distance 0.05, got %f", decision.Distance)
	}
}

func TestIdentify_TieKeepsEnumerationOrder(t *testing.T) {
	students := mock.NewStudentStore()
	galleries := mock.NewGalleryStore()

	// Identical galleries: both score the same exact distance.
	shared := vecAtDistance(0.2)
	first := enroll(t, students, galleries, "First", "A1", [][]float32{shared})
	enroll(t, students, galleries, "Second", "B1", [][]float32{shared})

	engine := NewEngine(students, galleries, 0.35)
	decision, err := engine.Identify(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if !decision.Matched || decision.Student.ID != first.ID {
		t.Errorf("expected the first enrolled student to win the tie, got %+v", decision.Student)
	}
}

func TestIdentify_EmptyGalleryNeverMatches(t *testing.T) {
	students := mock.NewStudentStore()
	galleries := mock.NewGalleryStore()

	enroll(t, students, galleries, "Empty", "E1", nil)

	engine := NewEngine(students, galleries, 2.0)
	decision, err := engine.Identify(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if decision.Matched {
		t.Error("a person with an empty gallery must never match")
	}
}

func TestIdentify_DimensionMismatch(t *testing.T) {
	students := mock.NewStudentStore()
	galleries := mock.NewGalleryStore()

	enroll(t, students, galleries, "Alice", "A1", [][]float32{{1, 0}})

	engine := NewEngine(students, galleries, 0.35)
	_, err := engine.Identify(context.Background(), []float32{1, 0, 0})

	var dimErr *embedding.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected *embedding.DimensionError, got %v", err)
	}
	if dimErr.Want != 2 || dimErr.Got != 3 {
		t.Errorf("expected want=2 got=3, got want=%d got=%d", dimErr.Want, dimErr.Got)
	}
}

func TestIdentify_StorageFailureSkipsPerson(t *testing.T) {
	students := mock.NewStudentStore()
	galleries := mock.NewGalleryStore()

	broken := enroll(t, students, galleries, "Broken", "X1", [][]float32{vecAtDistance(0.01)})
	alice := enroll(t, students, galleries, "Alice", "A1", [][]float32{vecAtDistance(0.2)})

	galleries.ReadErrors[broken.GalleryRef] = &gallery.StorageError{
		Op: "read", Handle: broken.GalleryRef, Cause: errors.New("disk gone"),
	}

	engine := NewEngine(students, galleries, 0.35)
	decision, err := engine.Identify(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("a per-person storage failure must not fail the scan: %v", err)
	}
	if !decision.Matched || decision.Student.ID != alice.ID {
		t.Errorf("expected Alice after skipping the broken gallery, got %+v", decision.Student)
	}
}

func TestIdentify_NoEnrolledStudents(t *testing.T) {
	engine := NewEngine(mock.NewStudentStore(), mock.NewGalleryStore(), 0.35)
	decision, err := engine.Identify(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if decision.Matched {
		t.Error("expected no match with no enrolled students")
	}
}

func TestIdentify_GlobalBestProperty(t *testing.T) {
	students := mock.NewStudentStore()
	galleries := mock.NewGalleryStore()

	distances := map[string]float64{"A1": 0.30, "B1": 0.12, "C1": 0.25}
	for roll, d := range distances {
		enroll(t, students, galleries, "Student "+roll, roll, [][]float32{vecAtDistance(d)})
	}

	engine := NewEngine(students, galleries, 0.35)
	decision, err := engine.Identify(context.Background(), []float32{1, 0})
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if !decision.Matched {
		t.Fatal("expected a match")
	}

	// The winner's distance must be <= every candidate's distance and
	// within the threshold.
	if decision.Distance > engine.Threshold() {
		t.Errorf("winner distance %f exceeds threshold", decision.Distance)
	}
	for roll, d := range distances {
		if decision.Distance > d+1e-4 {
			t.Errorf("winner (%f) is not the global best, %s scores %f", decision.Distance, roll, d)
		}
	}
	if decision.Student.RollNumber != "B1" {
		t.Errorf("expected B1 to win, got %s", decision.Student.RollNumber)
	}
}
