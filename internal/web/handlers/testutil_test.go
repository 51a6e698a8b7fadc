package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/enrollment"
	"github.com/kozaktomas/face-attendance/internal/matching"
)

// fakeExtractor returns a canned embedding, or delegates to fn when set.
type fakeExtractor struct {
	vec []float32
	err error
	fn  func(ctx context.Context, image []byte) ([]float32, error)
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) ([]float32, error) {
	if f.fn != nil {
		return f.fn(ctx, image)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

// testEnv wires the handlers against in-memory stores.
type testEnv struct {
	students  *mock.StudentStore
	records   *mock.AttendanceStore
	galleries *mock.GalleryStore
	extractor *fakeExtractor
}

func newTestEnv() *testEnv {
	return &testEnv{
		students:  mock.NewStudentStore(),
		records:   mock.NewAttendanceStore(),
		galleries: mock.NewGalleryStore(),
		extractor: &fakeExtractor{},
	}
}

func (e *testEnv) studentsHandler() *StudentsHandler {
	pipeline := enrollment.NewPipeline(e.extractor, e.galleries, e.students)
	return NewStudentsHandler(e.students, pipeline)
}

func (e *testEnv) attendanceHandler(threshold float64) *AttendanceHandler {
	engine := matching.NewEngine(e.students, e.galleries, threshold)
	ledger := attendance.NewLedger(e.records)
	return NewAttendanceHandler(e.extractor, engine, ledger, e.records)
}

// addStudent registers a student directly in the mock store, optionally
// with an enrolled gallery.
func (e *testEnv) addStudent(t *testing.T, name, rollNumber string, vectors [][]float32) *database.Student {
	t.Helper()
	s := &database.Student{Name: name, RollNumber: rollNumber}
	if err := e.students.CreateStudent(context.Background(), s); err != nil {
		t.Fatalf("creating student %s: %v", rollNumber, err)
	}
	if vectors != nil {
		handle, err := e.galleries.Write(context.Background(), rollNumber, vectors)
		if err != nil {
			t.Fatalf("writing gallery for %s: %v", rollNumber, err)
		}
		if err := e.students.SetGalleryRef(context.Background(), s.ID, handle); err != nil {
			t.Fatalf("setting gallery ref for %s: %v", rollNumber, err)
		}
		s.GalleryRef = handle
	}
	return s
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartRequest builds a multipart POST with form fields and photo files.
func multipartRequest(t *testing.T, path string, fields map[string]string, photos map[string][]byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}

	for name, data := range photos {
		part, err := writer.CreateFormFile("photos", name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
