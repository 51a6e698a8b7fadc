package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/enrollment"
)

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID         int64  `json:"id"`
	UID        string `json:"uid"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Department string `json:"department,omitempty"`
	Year       int    `json:"year,omitempty"`
	Enrolled   bool   `json:"enrolled"`
}

// RegisterResponse is returned by student registration
type RegisterResponse struct {
	Student    StudentResponse    `json:"student"`
	Enrollment *enrollment.Result `json:"enrollment,omitempty"`
}

// StudentsHandler handles student registration, listing and enrollment
type StudentsHandler struct {
	students database.StudentWriter
	enroller *enrollment.Pipeline
}

// NewStudentsHandler creates a students handler
func NewStudentsHandler(students database.StudentWriter, enroller *enrollment.Pipeline) *StudentsHandler {
	return &StudentsHandler{
		students: students,
		enroller: enroller,
	}
}

func toStudentResponse(s *database.Student) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		UID:        s.UID,
		Name:       s.Name,
		RollNumber: s.RollNumber,
		Department: s.Department,
		Year:       s.Year,
		Enrolled:   s.Enrolled(),
	}
}

// readPhotos reads every uploaded file under the "photos" form field.
func readPhotos(files []*multipart.FileHeader) ([][]byte, []string, error) {
	var photos [][]byte
	var names []string
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		photos = append(photos, data)
		names = append(names, fh.Filename)
	}
	return photos, names, nil
}

// Register handles POST /api/v1/students. The request is multipart: name,
// roll_number, department and year fields plus zero or more photos. When
// photos are present the student is enrolled in the same request; photo
// failures are reported as counts in the enrollment result, not as errors.
func (h *StudentsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	rollNumber := strings.TrimSpace(r.FormValue("roll_number"))
	if name == "" || rollNumber == "" {
		respondError(w, http.StatusBadRequest, "name and roll_number are required")
		return
	}

	year := 0
	if y := r.FormValue("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			respondError(w, http.StatusBadRequest, "year must be a number")
			return
		}
		year = n
	}

	student := &database.Student{
		Name:       name,
		RollNumber: rollNumber,
		Department: strings.TrimSpace(r.FormValue("department")),
		Year:       year,
	}

	if err := h.students.CreateStudent(r.Context(), student); err != nil {
		if errors.Is(err, database.ErrDuplicateStudent) {
			respondError(w, http.StatusConflict, "roll number already registered")
			return
		}
		log.Printf("creating student %s: %v", sanitizeForLog(rollNumber), err)
		respondError(w, http.StatusInternalServerError, "failed to create student")
		return
	}

	resp := RegisterResponse{Student: toStudentResponse(student)}

	if r.MultipartForm != nil && len(r.MultipartForm.File["photos"]) > 0 {
		result, err := h.enrollFromForm(r, student)
		if err != nil {
			// Student was created; report the enrollment failure without
			// rolling the registration back.
			log.Printf("enrolling student %s: %v", sanitizeForLog(rollNumber), err)
			respondError(w, http.StatusInternalServerError, "student created but enrollment failed")
			return
		}
		resp.Enrollment = result
		resp.Student.Enrolled = true
	}

	respondJSON(w, http.StatusCreated, resp)
}

// Enroll handles POST /api/v1/students/{roll_number}/enroll. Re-enrolling
// replaces the student's gallery with one built from the new photos.
func (h *StudentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	rollNumber := chi.URLParam(r, "rollNumber")

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["photos"]) == 0 {
		respondError(w, http.StatusBadRequest, "no photos uploaded")
		return
	}

	student, err := h.students.GetByRollNumber(r.Context(), rollNumber)
	if err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "student not found")
			return
		}
		log.Printf("looking up student %s: %v", sanitizeForLog(rollNumber), err)
		respondError(w, http.StatusInternalServerError, "failed to look up student")
		return
	}

	result, err := h.enrollFromForm(r, student)
	if err != nil {
		log.Printf("enrolling student %s: %v", sanitizeForLog(rollNumber), err)
		respondError(w, http.StatusInternalServerError, "enrollment failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// enrollFromForm runs the enrollment pipeline over the uploaded photos and
// records their filenames as provenance.
func (h *StudentsHandler) enrollFromForm(r *http.Request, student *database.Student) (*enrollment.Result, error) {
	photos, names, err := readPhotos(r.MultipartForm.File["photos"])
	if err != nil {
		return nil, err
	}

	result, err := h.enroller.Enroll(r.Context(), student.RollNumber, photos)
	if err != nil {
		return nil, err
	}

	if err := h.students.AddPhotoRefs(r.Context(), student.ID, names); err != nil {
		// Provenance only, the gallery is already written.
		log.Printf("recording photo refs for student %s: %v", sanitizeForLog(student.RollNumber), err)
	}

	return &result, nil
}

// List handles GET /api/v1/students. An optional ?q= filters by name,
// ignoring case and diacritics.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	students, err := h.students.ListStudents(r.Context(), query)
	if err != nil {
		log.Printf("listing students: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	resp := make([]StudentResponse, 0, len(students))
	for i := range students {
		resp = append(resp, toStudentResponse(&students[i]))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"students": resp,
		"count":    len(resp),
	})
}
