package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/matching"
)

// ProcessRequest carries one probe frame, base64-encoded. A data URL
// prefix (as sent by canvas.toDataURL) is accepted and stripped.
type ProcessRequest struct {
	Image string `json:"image"`
}

// MatchedStudent is the student part of a positive attendance response
type MatchedStudent struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
}

// ProcessResponse is the outcome of processing one probe frame
type ProcessResponse struct {
	Matched       bool            `json:"matched"`
	AlreadyMarked bool            `json:"already_marked"`
	Student       *MatchedStudent `json:"student,omitempty"`
	Distance      float64         `json:"distance,omitempty"`
	Message       string          `json:"message"`
}

// AttendanceRecordResponse is one ledger row joined with student attributes
type AttendanceRecordResponse struct {
	ID         int64  `json:"id"`
	StudentID  int64  `json:"student_id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Department string `json:"department,omitempty"`
	Year       int    `json:"year,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// AttendanceHandler processes probe frames and lists the ledger
type AttendanceHandler struct {
	extractor extractor.Extractor
	matcher   *matching.Engine
	ledger    *attendance.Ledger
	records   database.AttendanceStore
}

// NewAttendanceHandler creates an attendance handler
func NewAttendanceHandler(ext extractor.Extractor, matcher *matching.Engine, ledger *attendance.Ledger, records database.AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{
		extractor: ext,
		matcher:   matcher,
		ledger:    ledger,
		records:   records,
	}
}

// decodeProbeImage decodes the base64 payload, tolerating a data URL prefix.
func decodeProbeImage(s string) ([]byte, error) {
	if idx := strings.Index(s, "base64,"); idx >= 0 {
		s = s[idx+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}

// Process handles POST /api/v1/attendance: extract an embedding from the
// probe frame, identify the person against all enrolled galleries, and
// mark attendance for a match. Extraction failure aborts the request with
// no ledger side effect.
func (h *AttendanceHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}

	image, err := decodeProbeImage(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is not valid base64")
		return
	}

	probe, err := h.extractor.Extract(r.Context(), image)
	if err != nil {
		var extErr *extractor.ExtractionError
		if errors.As(err, &extErr) {
			respondError(w, http.StatusUnprocessableEntity, "no usable face in image")
			return
		}
		log.Printf("extracting probe embedding: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to process image")
		return
	}

	decision, err := h.matcher.Identify(r.Context(), probe)
	if err != nil {
		log.Printf("identifying probe: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to identify face")
		return
	}

	if !decision.Matched {
		respondJSON(w, http.StatusOK, ProcessResponse{
			Matched: false,
			Message: "no match found",
		})
		return
	}

	outcome, err := h.ledger.Mark(r.Context(), decision.Student.ID)
	if err != nil {
		log.Printf("marking attendance for %s: %v", sanitizeForLog(decision.Student.RollNumber), err)
		respondError(w, http.StatusInternalServerError, "failed to mark attendance")
		return
	}

	resp := ProcessResponse{
		Matched:       true,
		AlreadyMarked: outcome == database.AlreadyMarked,
		Student: &MatchedStudent{
			ID:         decision.Student.ID,
			Name:       decision.Student.Name,
			RollNumber: decision.Student.RollNumber,
		},
		Distance: decision.Distance,
	}
	if resp.AlreadyMarked {
		resp.Message = fmt.Sprintf("attendance already marked today for %s", decision.Student.Name)
	} else {
		resp.Message = fmt.Sprintf("attendance recorded for %s", decision.Student.Name)
	}

	respondJSON(w, http.StatusOK, resp)
}

// List handles GET /api/v1/attendance.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListAttendance(r.Context())
	if err != nil {
		log.Printf("listing attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	resp := make([]AttendanceRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, AttendanceRecordResponse{
			ID:         rec.ID,
			StudentID:  rec.StudentID,
			Name:       rec.Name,
			RollNumber: rec.RollNumber,
			Department: rec.Department,
			Year:       rec.Year,
			Date:       rec.Date,
			Time:       rec.TimeOfDay,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"records": resp,
		"count":   len(resp),
	})
}
