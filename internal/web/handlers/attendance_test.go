package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/extractor"
)

const testThreshold = 0.35

// probeRequest builds a POST /attendance request with a base64 image payload.
func probeRequest(t *testing.T, image string) *http.Request {
	t.Helper()
	body, err := json.Marshal(ProcessRequest{Image: image})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/v1/attendance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func encodedProbe() string {
	return base64.StdEncoding.EncodeToString([]byte("probe-frame"))
}

func TestProcess_MatchMarksAttendance(t *testing.T) {
	env := newTestEnv()
	env.extractor.vec = []float32{1, 0}
	env.addStudent(t, "Alice Novak", "CS-101", [][]float32{{1, 0}})
	handler := env.attendanceHandler(testThreshold)

	recorder := httptest.NewRecorder()
	handler.Process(recorder, probeRequest(t, encodedProbe()))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp ProcessResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.Matched {
		t.Fatal("expected a match")
	}
	if resp.AlreadyMarked {
		t.Error("first mark must not be already_marked")
	}
	if resp.Student == nil || resp.Student.Name != "Alice Novak" {
		t.Errorf("unexpected student in response: %+v", resp.Student)
	}
	if len(env.records.Records()) != 1 {
		t.Errorf("expected one attendance record, got %d", len(env.records.Records()))
	}
}

func TestProcess_SecondMatchIsIdempotent(t *testing.T) {
	env := newTestEnv()
	env.extractor.vec = []float32{1, 0}
	env.addStudent(t, "Alice Novak", "CS-101", [][]float32{{1, 0}})
	handler := env.attendanceHandler(testThreshold)

	handler.Process(httptest.NewRecorder(), probeRequest(t, encodedProbe()))

	recorder := httptest.NewRecorder()
	handler.Process(recorder, probeRequest(t, encodedProbe()))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var resp ProcessResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.Matched || !resp.AlreadyMarked {
		t.Errorf("expected matched and already_marked, got %+v", resp)
	}
	if len(env.records.Records()) != 1 {
		t.Errorf("expected exactly one attendance record, got %d", len(env.records.Records()))
	}
}

func TestProcess_NoMatch(t *testing.T) {
	env := newTestEnv()
	env.extractor.vec = []float32{1, 0}
	// Opposite direction, distance 2.
	env.addStudent(t, "Alice Novak", "CS-101", [][]float32{{-1, 0}})
	handler := env.attendanceHandler(testThreshold)

	recorder := httptest.NewRecorder()
	handler.Process(recorder, probeRequest(t, encodedProbe()))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var resp ProcessResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Matched {
		t.Error("expected no match")
	}
	if resp.Student != nil {
		t.Error("no-match response must not carry a student")
	}
	if len(env.records.Records()) != 0 {
		t.Errorf("no attendance may be recorded without a match, got %d records", len(env.records.Records()))
	}
}

func TestProcess_ExtractionFailure(t *testing.T) {
	env := newTestEnv()
	env.extractor.err = &extractor.ExtractionError{Cause: errors.New("no face detected")}
	env.addStudent(t, "Alice Novak", "CS-101", [][]float32{{1, 0}})
	handler := env.attendanceHandler(testThreshold)

	recorder := httptest.NewRecorder()
	handler.Process(recorder, probeRequest(t, encodedProbe()))

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", recorder.Code)
	}
	if len(env.records.Records()) != 0 {
		t.Error("extraction failure must leave the ledger untouched")
	}
}

func TestProcess_AcceptsDataURL(t *testing.T) {
	env := newTestEnv()
	env.extractor.vec = []float32{1, 0}
	env.addStudent(t, "Alice Novak", "CS-101", [][]float32{{1, 0}})
	handler := env.attendanceHandler(testThreshold)

	dataURL := fmt.Sprintf("data:image/jpeg;base64,%s", encodedProbe())
	recorder := httptest.NewRecorder()
	handler.Process(recorder, probeRequest(t, dataURL))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for data URL payload, got %d", recorder.Code)
	}
}

func TestProcess_InvalidBody(t *testing.T) {
	env := newTestEnv()
	handler := env.attendanceHandler(testThreshold)

	req := httptest.NewRequest("POST", "/api/v1/attendance", bytes.NewReader([]byte("{not json")))
	recorder := httptest.NewRecorder()
	handler.Process(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", recorder.Code)
	}
}

func TestProcess_MissingImage(t *testing.T) {
	env := newTestEnv()
	handler := env.attendanceHandler(testThreshold)

	recorder := httptest.NewRecorder()
	handler.Process(recorder, probeRequest(t, ""))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", recorder.Code)
	}
}

func TestProcess_InvalidBase64(t *testing.T) {
	env := newTestEnv()
	handler := env.attendanceHandler(testThreshold)

	recorder := httptest.NewRecorder()
	handler.Process(recorder, probeRequest(t, "@@not-base64@@"))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", recorder.Code)
	}
}

func TestList_ReturnsLedger(t *testing.T) {
	env := newTestEnv()
	student := env.addStudent(t, "Alice Novak", "CS-101", nil)
	if _, err := env.records.MarkAttendance(context.Background(), student.ID, "2025-03-14", "09:00:00"); err != nil {
		t.Fatalf("seeding attendance: %v", err)
	}
	handler := env.attendanceHandler(testThreshold)

	req := httptest.NewRequest("GET", "/api/v1/attendance", nil)
	recorder := httptest.NewRecorder()
	handler.List(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var resp struct {
		Records []AttendanceRecordResponse `json:"records"`
		Count   int                        `json:"count"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Count != 1 {
		t.Fatalf("expected 1 record, got %d", resp.Count)
	}
	if resp.Records[0].StudentID != student.ID {
		t.Errorf("unexpected student id %d", resp.Records[0].StudentID)
	}
	if resp.Records[0].Date != "2025-03-14" {
		t.Errorf("unexpected date %s", resp.Records[0].Date)
	}
}
